package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ownerPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?$`)
	repoPattern  = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// ItemRef identifies a tracked issue or pull request.
//
// ItemRef is the snapshot key: exactly one snapshot exists per ItemRef.
type ItemRef struct {
	Owner  string `json:"owner" yaml:"owner"`
	Repo   string `json:"repo" yaml:"repo"`
	Number int    `json:"number" yaml:"number"`
}

// ParseItemRef parses "owner/repo#number" or "owner/repo/number".
//
// Parameters:
//   - s: Item identifier
//
// Returns:
//   - ItemRef: Parsed and validated reference
//   - error: ErrInvalidItemRef (wrapped) when s is malformed
func ParseItemRef(s string) (ItemRef, error) {
	s = strings.TrimSpace(s)

	var slug, num string
	if i := strings.LastIndexByte(s, '#'); i >= 0 {
		slug, num = s[:i], s[i+1:]
	} else if i := strings.LastIndexByte(s, '/'); i >= 0 {
		slug, num = s[:i], s[i+1:]
	} else {
		return ItemRef{}, fmt.Errorf("%w: %q: expected owner/repo#number", ErrInvalidItemRef, s)
	}

	owner, repo, ok := strings.Cut(slug, "/")
	if !ok {
		return ItemRef{}, fmt.Errorf("%w: %q: expected owner/repo#number", ErrInvalidItemRef, s)
	}

	n, err := strconv.Atoi(num)
	if err != nil {
		return ItemRef{}, fmt.Errorf("%w: %q: invalid number: %w", ErrInvalidItemRef, s, err)
	}

	ref := ItemRef{Owner: owner, Repo: repo, Number: n}
	if err := ref.Validate(); err != nil {
		return ItemRef{}, err
	}

	return ref, nil
}

// Validate checks that the reference names a plausible repository item.
//
// Owner and repository names are restricted to the characters the remote
// service allows, which also keeps them safe as path and key fragments.
func (r ItemRef) Validate() error {
	if !ownerPattern.MatchString(r.Owner) {
		return fmt.Errorf("%w: invalid owner %q", ErrInvalidItemRef, r.Owner)
	}
	if !repoPattern.MatchString(r.Repo) || r.Repo == "." || r.Repo == ".." {
		return fmt.Errorf("%w: invalid repository name %q", ErrInvalidItemRef, r.Repo)
	}
	if r.Number <= 0 {
		return fmt.Errorf("%w: item number must be positive, got %d", ErrInvalidItemRef, r.Number)
	}

	return nil
}

// String returns "owner/repo#number".
func (r ItemRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// Slug returns "owner/repo".
func (r ItemRef) Slug() string {
	return r.Owner + "/" + r.Repo
}

// Path returns the slash-separated storage fragment "owner/repo/number".
func (r ItemRef) Path() string {
	return r.Owner + "/" + r.Repo + "/" + strconv.Itoa(r.Number)
}
