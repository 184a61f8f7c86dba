// Package placement maintains the ordered assignment of curated videos to
// newsletter issues.
//
// The Store applies every mutation to its in-memory lists first and then
// issues the matching persistence calls. A persistence failure is returned to
// the caller as a *PersistenceError, but the in-memory change is kept; callers
// that need the persisted view call Reload. Positions within every issue are
// renumbered to [0, count) after each structural change.
package placement

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/db"
	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/draft"
	"github.com/ad-tracker/newsletter-curator/internal/metrics"
	"github.com/ad-tracker/newsletter-curator/internal/ordering"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Persistence is the write side of the item and issue store.
type Persistence interface {
	InsertItem(ctx context.Context, item *models.NewsletterItem) error
	UpdateItemPlacement(ctx context.Context, itemID, issueID uuid.UUID, position int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error
	UpdateItemFields(ctx context.Context, itemID uuid.UUID, fields models.ItemFields) error
	UpdateIssueMetadata(ctx context.Context, issueID uuid.UUID, update models.IssueMetadataUpdate) error
}

// VideoPool resolves curated videos eligible for placement.
type VideoPool interface {
	GetVideoByID(ctx context.Context, videoID string) (*models.CuratedVideo, error)
}

// Loader reads the persisted view of an issue for reconciliation.
type Loader interface {
	GetIssueByID(ctx context.Context, issueID uuid.UUID) (*models.NewsletterIssue, error)
	ListItemsByIssue(ctx context.Context, issueID uuid.UUID) ([]*models.NewsletterItem, error)
}

// AssignmentIndex lists the videos persisted against a set of issues.
type AssignmentIndex interface {
	ListAssignedVideoIDs(ctx context.Context, issueIDs []uuid.UUID) ([]string, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLoader enables Reload.
func WithLoader(l Loader) Option {
	return func(s *Store) { s.loader = l }
}

// WithAssignmentIndex makes Add also reject videos that are persisted in a
// loaded issue but missing from its in-memory list.
func WithAssignmentIndex(idx AssignmentIndex) Option {
	return func(s *Store) { s.assignments = idx }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAssembler sets the draft assembler used by DraftText.
func WithAssembler(a *draft.Assembler) Option {
	return func(s *Store) {
		if a != nil {
			s.assembler = a
		}
	}
}

type issueState struct {
	issue *models.NewsletterIssue
	items []*models.NewsletterItem
}

// Store holds the ordered item lists of the loaded issues.
type Store struct {
	mu        sync.RWMutex
	issues    map[uuid.UUID]*issueState
	owners    map[uuid.UUID]uuid.UUID // item id -> issue id
	persist   Persistence
	videos    VideoPool
	loader      Loader
	assignments AssignmentIndex
	assembler   *draft.Assembler
	logger      *zap.Logger
}

// NewStore creates an empty Store. Issues must be loaded before they can be
// mutated. A nil persist gives a memory-only store.
func NewStore(persist Persistence, videos VideoPool, opts ...Option) *Store {
	s := &Store{
		issues:    make(map[uuid.UUID]*issueState),
		owners:    make(map[uuid.UUID]uuid.UUID),
		persist:   persist,
		videos:    videos,
		assembler: draft.New(""),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "placement"))
	return s
}

// Load seeds or replaces the in-memory list of an issue. Items are ordered by
// their stored position and renumbered densely. Items currently held by a
// different issue are moved out of it.
func (s *Store) Load(issue *models.NewsletterIssue, items []*models.NewsletterItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked(issue, items)
}

func (s *Store) loadLocked(issue *models.NewsletterIssue, items []*models.NewsletterItem) {
	if prev, ok := s.issues[issue.ID]; ok {
		for _, it := range prev.items {
			delete(s.owners, it.ID)
		}
	}

	list := make([]*models.NewsletterItem, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		c := it.Clone()
		c.IssueID = issue.ID
		list = append(list, c)
	}
	slices.SortStableFunc(list, func(a, b *models.NewsletterItem) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	renumber(list)

	for _, it := range list {
		if other, ok := s.owners[it.ID]; ok && other != issue.ID {
			s.detachLocked(other, it.ID)
		}
		s.owners[it.ID] = issue.ID
	}

	ic := *issue
	s.issues[issue.ID] = &issueState{issue: &ic, items: list}
}

// Reload replaces an issue's in-memory state with its persisted view.
func (s *Store) Reload(ctx context.Context, issueID uuid.UUID) error {
	if s.loader == nil {
		return ErrNoLoader
	}

	issue, err := s.loader.GetIssueByID(ctx, issueID)
	if err != nil {
		if db.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrIssueNotFound, issueID)
		}
		return &PersistenceError{Op: "load issue", Err: err}
	}

	items, err := s.loader.ListItemsByIssue(ctx, issueID)
	if err != nil {
		return &PersistenceError{Op: "load items", Err: err}
	}

	s.Load(issue, items)
	return nil
}

// IssueOpener returns the open issue of a type, creating one if needed.
type IssueOpener func(ctx context.Context, issueType models.IssueType) (*models.NewsletterIssue, error)

// LoadCurrent opens the current issue of each type and loads its persisted items.
func (s *Store) LoadCurrent(ctx context.Context, open IssueOpener, types ...models.IssueType) error {
	for _, t := range types {
		issue, err := open(ctx, t)
		if err != nil {
			return &PersistenceError{Op: "open " + string(t) + " issue", Err: err}
		}
		if err := s.Reload(ctx, issue.ID); err != nil {
			return err
		}
	}
	return nil
}

// Add places videoID into issueID. A nil position appends; otherwise the
// position is clamped to [0, count]. The returned item reflects the in-memory
// state even when a *PersistenceError is returned.
func (s *Store) Add(ctx context.Context, issueID uuid.UUID, videoID string, position *int) (*models.NewsletterItem, error) {
	s.mu.RLock()
	err := s.checkPlaceableLocked(issueID, videoID)
	s.mu.RUnlock()
	if err != nil {
		metrics.RecordPlacement("add", err, 0)
		return nil, err
	}

	video, err := s.lookupVideo(ctx, videoID)
	if err != nil {
		metrics.RecordPlacement("add", err, 0)
		return nil, err
	}

	if err := s.checkPersistedAssignment(ctx, videoID); err != nil {
		metrics.RecordPlacement("add", err, 0)
		return nil, err
	}

	s.mu.Lock()
	if err := s.checkPlaceableLocked(issueID, videoID); err != nil {
		s.mu.Unlock()
		metrics.RecordPlacement("add", err, 0)
		return nil, err
	}

	state := s.issues[issueID]
	index := len(state.items)
	if position != nil {
		index = ordering.Clamp(*position, len(state.items))
	}

	item := models.NewNewsletterItem(issueID, video, index)
	state.items = ordering.InsertAt(state.items, item, index)
	renumber(state.items)
	s.owners[item.ID] = issueID

	var updates []models.PositionUpdate
	if index < len(state.items)-1 {
		updates = positionsOf(state.items)
	}
	out := item.Clone()
	s.mu.Unlock()

	err = s.sync(ctx, "add",
		step{"insert item", func(ctx context.Context) error {
			if err := s.persist.InsertItem(ctx, out); err != nil {
				if db.IsDuplicateKey(err) {
					return fmt.Errorf("%w: %w", ErrDuplicateAssignment, err)
				}
				return err
			}
			return nil
		}},
		s.positionsStep(updates),
	)
	return out, err
}

// Remove deletes an item from whichever issue holds it and renumbers the rest.
func (s *Store) Remove(ctx context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	issueID, ok := s.owners[itemID]
	if !ok {
		s.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		metrics.RecordPlacement("remove", err, 0)
		return err
	}
	s.detachLocked(issueID, itemID)
	updates := positionsOf(s.issues[issueID].items)
	s.mu.Unlock()

	return s.sync(ctx, "remove",
		step{"delete item", func(ctx context.Context) error {
			return s.persist.DeleteItem(ctx, itemID)
		}},
		s.positionsStep(updates),
	)
}

// ReorderWithinIssue moves the item at from to index to of the same issue and
// rewrites every position of that issue. Equal indexes make no persistence call.
func (s *Store) ReorderWithinIssue(ctx context.Context, issueID uuid.UUID, from, to int) error {
	s.mu.Lock()
	state, ok := s.issues[issueID]
	if !ok {
		s.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrIssueNotFound, issueID)
		metrics.RecordPlacement("reorder", err, 0)
		return err
	}

	updates, err := reorderLocked(state, from, to)
	s.mu.Unlock()
	if err != nil || updates == nil {
		metrics.RecordPlacement("reorder", err, 0)
		return err
	}

	return s.sync(ctx, "reorder", s.positionsStep(updates))
}

// MoveAcrossIssues re-owns an item to targetIssueID at targetIndex (clamped).
// Source and destination lists are both renumbered in full. A target equal to
// the current issue is a reorder within it.
func (s *Store) MoveAcrossIssues(ctx context.Context, itemID, targetIssueID uuid.UUID, targetIndex int) error {
	s.mu.Lock()
	sourceID, ok := s.owners[itemID]
	if !ok {
		s.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		metrics.RecordPlacement("move", err, 0)
		return err
	}
	target, ok := s.issues[targetIssueID]
	if !ok {
		s.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrIssueNotFound, targetIssueID)
		metrics.RecordPlacement("move", err, 0)
		return err
	}

	if sourceID == targetIssueID {
		from := indexOf(target.items, itemID)
		to := min(max(targetIndex, 0), len(target.items)-1)
		updates, err := reorderLocked(target, from, to)
		s.mu.Unlock()
		if err != nil || updates == nil {
			metrics.RecordPlacement("move", err, 0)
			return err
		}
		return s.sync(ctx, "move", s.positionsStep(updates))
	}

	item := s.detachLocked(sourceID, itemID)
	sourceUpdates := positionsOf(s.issues[sourceID].items)

	index := ordering.Clamp(targetIndex, len(target.items))
	item.IssueID = targetIssueID
	item.UpdatedAt = time.Now()
	target.items = ordering.InsertAt(target.items, item, index)
	renumber(target.items)
	s.owners[itemID] = targetIssueID
	targetUpdates := positionsOf(target.items)
	s.mu.Unlock()

	return s.sync(ctx, "move",
		step{"update item placement", func(ctx context.Context) error {
			return s.persist.UpdateItemPlacement(ctx, itemID, targetIssueID, index)
		}},
		s.positionsStep(sourceUpdates),
		s.positionsStep(targetUpdates),
	)
}

// UpdateFields shallow-merges patch into the item's fields.
func (s *Store) UpdateFields(ctx context.Context, itemID uuid.UUID, patch models.FieldsPatch) (*models.NewsletterItem, error) {
	s.mu.Lock()
	item := s.findLocked(itemID)
	if item == nil {
		s.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		metrics.RecordPlacement("update_fields", err, 0)
		return nil, err
	}
	item.Fields = item.Fields.Merge(patch)
	item.UpdatedAt = time.Now()
	out := item.Clone()
	s.mu.Unlock()

	err := s.sync(ctx, "update_fields",
		step{"update item fields", func(ctx context.Context) error {
			return s.persist.UpdateItemFields(ctx, itemID, out.Fields)
		}},
	)
	return out, err
}

// UpdateIssueMetadata applies a field-level update to a loaded issue.
// An empty update makes no persistence call.
func (s *Store) UpdateIssueMetadata(ctx context.Context, issueID uuid.UUID, update models.IssueMetadataUpdate) (*models.NewsletterIssue, error) {
	s.mu.Lock()
	state, ok := s.issues[issueID]
	if !ok {
		s.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrIssueNotFound, issueID)
		metrics.RecordPlacement("update_metadata", err, 0)
		return nil, err
	}
	update.Apply(state.issue)
	if !update.IsEmpty() {
		state.issue.UpdatedAt = time.Now()
	}
	out := *state.issue
	s.mu.Unlock()

	if update.IsEmpty() {
		return &out, nil
	}

	err := s.sync(ctx, "update_metadata",
		step{"update issue metadata", func(ctx context.Context) error {
			return s.persist.UpdateIssueMetadata(ctx, issueID, update)
		}},
	)
	return &out, err
}

// ApplyPublishState mirrors a persisted publish result onto the loaded issue.
// It makes no persistence call.
func (s *Store) ApplyPublishState(issueID uuid.UUID, state models.PublishState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.issues[issueID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrIssueNotFound, issueID)
	}
	st.issue.Status = state.Status
	st.issue.ScheduledAt = state.ScheduledAt
	if state.CampaignID != nil {
		st.issue.CampaignID = state.CampaignID
	}
	st.issue.UpdatedAt = time.Now()
	return nil
}

// Items returns copies of an issue's items in position order.
func (s *Store) Items(issueID uuid.UUID) ([]*models.NewsletterItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.issues[issueID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIssueNotFound, issueID)
	}
	return cloneItems(state.items), nil
}

// Issue returns a copy of a loaded issue.
func (s *Store) Issue(issueID uuid.UUID) (*models.NewsletterIssue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.issues[issueID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIssueNotFound, issueID)
	}
	out := *state.issue
	return &out, nil
}

// CurrentIssue returns the newest loaded open (draft or scheduled) issue of a type.
func (s *Store) CurrentIssue(issueType models.IssueType) (*models.NewsletterIssue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var current *models.NewsletterIssue
	for _, state := range s.issues {
		is := state.issue
		if is.Type != issueType {
			continue
		}
		if is.Status != models.IssueStatusDraft && is.Status != models.IssueStatusScheduled {
			continue
		}
		if current == nil || is.CreatedAt.After(current.CreatedAt) {
			current = is
		}
	}
	if current == nil {
		return nil, false
	}
	out := *current
	return &out, true
}

// AvailableVideos returns the pool videos not referenced by any loaded item,
// keeping the pool's order.
func (s *Store) AvailableVideos(pool []*models.CuratedVideo) []*models.CuratedVideo {
	s.mu.RLock()
	assigned := make(map[string]struct{})
	for _, state := range s.issues {
		for _, it := range state.items {
			assigned[it.VideoID] = struct{}{}
		}
	}
	s.mu.RUnlock()

	out := make([]*models.CuratedVideo, 0, len(pool))
	for _, v := range pool {
		if v == nil {
			continue
		}
		if _, taken := assigned[v.VideoID]; !taken {
			out = append(out, v)
		}
	}
	return out
}

// DraftText assembles the draft of an issue from its current in-memory state.
func (s *Store) DraftText(issueID uuid.UUID) (string, error) {
	s.mu.RLock()
	state, ok := s.issues[issueID]
	if !ok {
		s.mu.RUnlock()
		return "", fmt.Errorf("%w: %s", ErrIssueNotFound, issueID)
	}
	issueType := state.issue.Type
	issueDate := state.issue.IssueDate
	items := cloneItems(state.items)
	s.mu.RUnlock()

	return s.assembler.Assemble(issueType, items, issueDate), nil
}

func (s *Store) checkPlaceableLocked(issueID uuid.UUID, videoID string) error {
	if _, ok := s.issues[issueID]; !ok {
		return fmt.Errorf("%w: %s", ErrIssueNotFound, issueID)
	}
	for id, state := range s.issues {
		for _, it := range state.items {
			if it.VideoID == videoID {
				return fmt.Errorf("%w: video %s is in issue %s", ErrDuplicateAssignment, videoID, id)
			}
		}
	}
	return nil
}

func (s *Store) lookupVideo(ctx context.Context, videoID string) (*models.CuratedVideo, error) {
	if s.videos == nil {
		return &models.CuratedVideo{VideoID: videoID}, nil
	}

	video, err := s.videos.GetVideoByID(ctx, videoID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
		}
		return nil, &PersistenceError{Op: "get video", Err: err}
	}
	if video == nil {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}
	return video, nil
}

// detachLocked removes an item from an issue's list, renumbers it and drops
// the owner entry. It returns the removed item.
func (s *Store) detachLocked(issueID, itemID uuid.UUID) *models.NewsletterItem {
	state, ok := s.issues[issueID]
	if !ok {
		return nil
	}
	idx := indexOf(state.items, itemID)
	if idx < 0 {
		return nil
	}
	item := state.items[idx]
	state.items, _ = ordering.RemoveAt(state.items, idx)
	renumber(state.items)
	delete(s.owners, itemID)
	return item
}

func (s *Store) findLocked(itemID uuid.UUID) *models.NewsletterItem {
	issueID, ok := s.owners[itemID]
	if !ok {
		return nil
	}
	state := s.issues[issueID]
	if idx := indexOf(state.items, itemID); idx >= 0 {
		return state.items[idx]
	}
	return nil
}

func (s *Store) checkPersistedAssignment(ctx context.Context, videoID string) error {
	if s.assignments == nil {
		return nil
	}

	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.issues))
	for id := range s.issues {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	assigned, err := s.assignments.ListAssignedVideoIDs(ctx, ids)
	if err != nil {
		return &PersistenceError{Op: "list assigned videos", Err: err}
	}
	if slices.Contains(assigned, videoID) {
		return fmt.Errorf("%w: video %s is stored in a loaded issue", ErrDuplicateAssignment, videoID)
	}
	return nil
}

type step struct {
	op  string
	run func(ctx context.Context) error
}

func (s *Store) positionsStep(updates []models.PositionUpdate) step {
	if len(updates) == 0 {
		return step{}
	}
	return step{"update positions", func(ctx context.Context) error {
		return s.persist.UpdatePositions(ctx, updates)
	}}
}

// sync runs the persistence steps in order and stops at the first failure.
// It is a no-op without a persistence collaborator.
func (s *Store) sync(ctx context.Context, operation string, steps ...step) error {
	start := time.Now()
	if s.persist == nil {
		metrics.RecordPlacement(operation, nil, time.Since(start))
		return nil
	}

	var err error
	for _, st := range steps {
		if st.run == nil {
			continue
		}
		if stepErr := st.run(ctx); stepErr != nil {
			err = &PersistenceError{Op: st.op, Err: stepErr}
			break
		}
	}

	metrics.RecordPlacement(operation, err, time.Since(start))
	if err != nil {
		s.logger.Warn("Placement persistence failed, in-memory state kept",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
	return err
}

// reorderLocked applies a splice reorder to the issue list. It returns nil
// updates when from equals to.
func reorderLocked(state *issueState, from, to int) ([]models.PositionUpdate, error) {
	reordered, err := ordering.Reorder(state.items, from, to)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, nil
	}
	state.items = reordered
	renumber(state.items)
	return positionsOf(state.items), nil
}

func renumber(items []*models.NewsletterItem) {
	for i, it := range items {
		it.Position = i
	}
}

func positionsOf(items []*models.NewsletterItem) []models.PositionUpdate {
	out := make([]models.PositionUpdate, len(items))
	for i, it := range items {
		out[i] = models.PositionUpdate{ItemID: it.ID, Position: it.Position}
	}
	return out
}

func indexOf(items []*models.NewsletterItem, itemID uuid.UUID) int {
	return slices.IndexFunc(items, func(it *models.NewsletterItem) bool {
		return it.ID == itemID
	})
}

func cloneItems(items []*models.NewsletterItem) []*models.NewsletterItem {
	out := make([]*models.NewsletterItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
