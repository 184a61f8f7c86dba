package repository

// PlacementPersistence combines the item and issue repositories into the
// persistence collaborator used by the placement store.
type PlacementPersistence struct {
	ItemRepository
	IssueRepository
}

// NewPlacementPersistence creates a PlacementPersistence over the given repositories.
func NewPlacementPersistence(items ItemRepository, issues IssueRepository) *PlacementPersistence {
	return &PlacementPersistence{
		ItemRepository:  items,
		IssueRepository: issues,
	}
}
