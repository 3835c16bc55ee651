// Package stats resolves GitHub account identifiers into normalized
// profile and repository statistics, using the cache store and fetch
// client.
package stats

import (
	"fmt"
	"time"
)

// AccountKind distinguishes user accounts from organizations. The two
// kinds live under different API paths but normalize to the same stats.
type AccountKind string

const (
	// KindUser is a personal account.
	KindUser AccountKind = "user"

	// KindOrganization is an organization account.
	KindOrganization AccountKind = "organization"
)

// AccountID identifies one account to resolve. Immutable; supplied by
// the caller.
type AccountID struct {
	Login string      `json:"login" yaml:"login"`
	Kind  AccountKind `json:"kind" yaml:"kind"`
}

// String renders the identifier for logs and error messages.
func (id AccountID) String() string {
	if id.Kind == KindOrganization {
		return fmt.Sprintf("org/%s", id.Login)
	}
	return id.Login
}

// profileEndpoint returns the API path for the account's profile.
func (id AccountID) profileEndpoint() string {
	if id.Kind == KindOrganization {
		return "/orgs/" + id.Login
	}
	return "/users/" + id.Login
}

// reposEndpoint returns the API path for the account's repository listing.
func (id AccountID) reposEndpoint() string {
	if id.Kind == KindOrganization {
		return "/orgs/" + id.Login + "/repos"
	}
	return "/users/" + id.Login + "/repos"
}

// Profile is the normalized subset of an account's profile fields.
// Immutable once built.
type Profile struct {
	Login       string    `json:"login" yaml:"login"`
	Name        string    `json:"name,omitempty" yaml:"name,omitempty"`
	Bio         string    `json:"bio,omitempty" yaml:"bio,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Location    string    `json:"location,omitempty" yaml:"location,omitempty"`
	Followers   int       `json:"followers" yaml:"followers"`
	Following   int       `json:"following" yaml:"following"`
	PublicRepos int       `json:"public_repos" yaml:"public_repos"`
	PublicGists int       `json:"public_gists" yaml:"public_gists"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Repository holds the statistics of one repository.
type Repository struct {
	Name       string    `json:"name" yaml:"name"`
	Stars      uint      `json:"stars" yaml:"stars"`
	Language   string    `json:"language,omitempty" yaml:"language,omitempty"`
	Forks      int       `json:"forks" yaml:"forks"`
	OpenIssues int       `json:"open_issues" yaml:"open_issues"`
	SizeKB     int       `json:"size_kb" yaml:"size_kb"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

// HealthScore is a rough repository vitality measure: stars and forks
// count for it, open issues against it, and a recent update earns a
// bonus.
func (r Repository) HealthScore(now time.Time) int {
	score := int(r.Stars)*2 + r.Forks*3 - r.OpenIssues
	if now.Sub(r.UpdatedAt) <= 30*24*time.Hour {
		score += 10
	}
	return score
}

// Contributor is one entry of a repository's contributor list.
type Contributor struct {
	Login         string `json:"login" yaml:"login"`
	Contributions int    `json:"contributions" yaml:"contributions"`
}

// AccountStats is the unit returned per account: one profile plus an
// ordered repository listing (stars descending, names ascending on ties)
// and, when requested, the contributor list of the top repository.
type AccountStats struct {
	Account      AccountID     `json:"account" yaml:"account"`
	Profile      Profile       `json:"profile" yaml:"profile"`
	Repositories []Repository  `json:"repositories" yaml:"repositories"`
	Contributors []Contributor `json:"contributors,omitempty" yaml:"contributors,omitempty"`

	// FetchedAt is when this result was assembled.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// TopRepository returns the highest-starred repository, or false when
// the listing is empty.
func (s *AccountStats) TopRepository() (Repository, bool) {
	if len(s.Repositories) == 0 {
		return Repository{}, false
	}
	return s.Repositories[0], true
}

// Options control how an account is resolved.
type Options struct {
	// MaxRepos bounds the repository listing. Zero means the default.
	MaxRepos int

	// Since excludes repositories last updated before this instant.
	// The boundary is inclusive; zero means no filter.
	Since time.Time

	// WithContributors fetches the contributor list for the top
	// repository only.
	WithContributors bool

	// MaxContributors bounds the contributor list. Zero means the default.
	MaxContributors int

	// TTL overrides the cache lifetime for fetched payloads.
	TTL time.Duration
}

// Defaults mirrors the original tool's flag defaults.
const (
	DefaultMaxRepos        = 10
	DefaultMaxContributors = 5
)

// normalized returns a copy with defaults applied.
func (o Options) normalized() Options {
	if o.MaxRepos <= 0 {
		o.MaxRepos = DefaultMaxRepos
	}
	if o.MaxContributors <= 0 {
		o.MaxContributors = DefaultMaxContributors
	}
	return o
}

// RateLimitInfo reports the account's current core API quota, from the
// /rate_limit endpoint.
type RateLimitInfo struct {
	Limit     int       `json:"limit" yaml:"limit"`
	Remaining int       `json:"remaining" yaml:"remaining"`
	ResetAt   time.Time `json:"reset_at" yaml:"reset_at"`
}
