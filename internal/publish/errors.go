package publish

import (
	"errors"
	"fmt"
)

// ErrNotPublishable is returned when an issue fails the readiness check.
var ErrNotPublishable = errors.New("issue is not publishable")

// ReadinessError lists what an issue is missing before it can be published.
type ReadinessError struct {
	Missing []string
}

func (e *ReadinessError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrNotPublishable, joinMissing(e.Missing))
}

func (e *ReadinessError) Unwrap() error {
	return ErrNotPublishable
}

// CampaignError wraps an ESP failure during publish or status sync.
type CampaignError struct {
	Op  string
	Err error
}

func (e *CampaignError) Error() string {
	return fmt.Sprintf("campaign %s: %v", e.Op, e.Err)
}

func (e *CampaignError) Unwrap() error {
	return e.Err
}

// IsNotPublishable reports whether err is a readiness failure.
func IsNotPublishable(err error) bool {
	return errors.Is(err, ErrNotPublishable)
}

// IsCampaignFailure reports whether err came from the ESP.
func IsCampaignFailure(err error) bool {
	var ce *CampaignError
	return errors.As(err, &ce)
}
