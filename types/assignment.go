package types

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoginSet is a set of assignee logins.
//
// The zero value (nil) is a valid empty set for reads; use NewLoginSet before
// calling Add. Sets serialize as a sorted list.
type LoginSet map[string]struct{}

// NewLoginSet creates a set containing the given logins.
func NewLoginSet(logins ...string) LoginSet {
	s := make(LoginSet, len(logins))
	for _, l := range logins {
		s[l] = struct{}{}
	}

	return s
}

// Add inserts a login. Adding a present login is a no-op.
func (s LoginSet) Add(login string) {
	s[login] = struct{}{}
}

// Remove deletes a login. Removing an absent login is a no-op.
func (s LoginSet) Remove(login string) {
	delete(s, login)
}

// Has reports whether login is in the set.
func (s LoginSet) Has(login string) bool {
	_, ok := s[login]
	return ok
}

// Len returns the number of logins in the set.
func (s LoginSet) Len() int {
	return len(s)
}

// Sorted returns the logins in ascending order. The result is never nil.
func (s LoginSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	slices.Sort(out)

	return out
}

// Clone returns an independent copy of the set.
func (s LoginSet) Clone() LoginSet {
	out := make(LoginSet, len(s))
	for l := range s {
		out[l] = struct{}{}
	}

	return out
}

// Minus returns the logins in s that are not in other.
func (s LoginSet) Minus(other LoginSet) LoginSet {
	out := make(LoginSet)
	for l := range s {
		if !other.Has(l) {
			out[l] = struct{}{}
		}
	}

	return out
}

// Equal reports whether both sets contain exactly the same logins.
func (s LoginSet) Equal(other LoginSet) bool {
	if len(s) != len(other) {
		return false
	}
	for l := range s {
		if !other.Has(l) {
			return false
		}
	}

	return true
}

// String renders the set as "{a, b, c}".
func (s LoginSet) String() string {
	return "{" + strings.Join(s.Sorted(), ", ") + "}"
}

// MarshalJSON encodes the set as a sorted JSON array.
func (s LoginSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array of logins. Empty logins are rejected.
func (s *LoginSet) UnmarshalJSON(data []byte) error {
	var logins []string
	if err := json.Unmarshal(data, &logins); err != nil {
		return err
	}

	return s.fromList(logins)
}

// MarshalYAML encodes the set as a sorted YAML sequence.
func (s LoginSet) MarshalYAML() (any, error) {
	return s.Sorted(), nil
}

// UnmarshalYAML decodes a YAML sequence of logins. Empty logins are rejected.
func (s *LoginSet) UnmarshalYAML(value *yaml.Node) error {
	var logins []string
	if err := value.Decode(&logins); err != nil {
		return err
	}

	return s.fromList(logins)
}

func (s *LoginSet) fromList(logins []string) error {
	set := make(LoginSet, len(logins))
	for _, l := range logins {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("empty login in assignee list")
		}
		set[l] = struct{}{}
	}
	*s = set

	return nil
}

// AssignmentState is the assignee set reconstructed from an event log.
//
// Current is derived solely from folding the event log; it is never edited directly.
type AssignmentState struct {
	// Current is the set of logins assigned after the last folded event.
	Current LoginSet

	// AsOf is the timestamp of the last folded event, or the fetch time when
	// the log was empty.
	AsOf time.Time
}

// Snapshot is the last durably recorded assignee set for a tracked item.
type Snapshot struct {
	Owner      string    `json:"repo_owner" yaml:"repo_owner"`
	Repo       string    `json:"repo_name" yaml:"repo_name"`
	Number     int       `json:"item_number" yaml:"item_number"`
	Assignees  LoginSet  `json:"assignees" yaml:"assignees"`
	ObservedAt time.Time `json:"observed_at" yaml:"observed_at"`
}

// NewSnapshot builds a snapshot for ref from a reconstructed state.
//
// The assignee set is copied so later mutation of state does not leak into
// the snapshot.
func NewSnapshot(ref ItemRef, state AssignmentState, observedAt time.Time) Snapshot {
	return Snapshot{
		Owner:      ref.Owner,
		Repo:       ref.Repo,
		Number:     ref.Number,
		Assignees:  state.Current.Clone(),
		ObservedAt: observedAt,
	}
}

// Ref returns the key of the snapshot.
func (s Snapshot) Ref() ItemRef {
	return ItemRef{Owner: s.Owner, Repo: s.Repo, Number: s.Number}
}

// Validate checks that the snapshot carries a valid key and observation time.
func (s Snapshot) Validate() error {
	if err := s.Ref().Validate(); err != nil {
		return err
	}
	if s.ObservedAt.IsZero() {
		return fmt.Errorf("%w: observed_at is zero", ErrInvalidSnapshot)
	}
	for l := range s.Assignees {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("%w: empty login", ErrInvalidSnapshot)
		}
	}

	return nil
}

// Diff is the delta between a stored snapshot and a fresh assignment state.
//
// Added and Removed are always disjoint. When IsBaseline is true no prior
// snapshot existed and both sets are empty.
type Diff struct {
	Added      LoginSet `json:"added"`
	Removed    LoginSet `json:"removed"`
	IsBaseline bool     `json:"is_baseline"`
}

// Empty reports whether the diff records no change.
func (d Diff) Empty() bool {
	return d.Added.Len() == 0 && d.Removed.Len() == 0
}
