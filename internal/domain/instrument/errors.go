package instrument

import (
	"errors"
	"fmt"
	"sort"
)

// MaxKnownUserIDs caps how many known ids a NotFoundError carries.
const MaxKnownUserIDs = 100

var (
	// ErrUserNotFound matches any *NotFoundError via errors.Is.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidDataset is returned when a dataset document fails validation.
	ErrInvalidDataset = errors.New("invalid dataset")
)

// NotFoundError reports a user id absent from the backing store. KnownUserIDs is for operator
// diagnosis and never contains UserID.
type NotFoundError struct {
	UserID       string
	KnownUserIDs []string
}

// NewNotFoundError sorts, de-duplicates and caps known, and drops userID from it.
func NewNotFoundError(userID string, known []string) *NotFoundError {
	seen := make(map[string]struct{}, len(known))
	ids := make([]string, 0, len(known))
	for _, id := range known {
		if id == userID || id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > MaxKnownUserIDs {
		ids = ids[:MaxKnownUserIDs]
	}
	return &NotFoundError{UserID: userID, KnownUserIDs: ids}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user %s not found", e.UserID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrUserNotFound
}
