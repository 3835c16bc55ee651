package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached GitHub API response.
type Key struct {
	// Endpoint is the API path (e.g. "/users/octocat/repos").
	Endpoint string

	// Query are the request query parameters (e.g. {"per_page": "100"}).
	Query url.Values

	// Mode distinguishes anonymous from token-authenticated responses,
	// since the API may return different data per mode.
	Mode string
}

// String generates a deterministic cache key string.
// Format: ghstats:endpoint:query1=val1:query2=val2:mode=token
//
// Example:
//
//	ghstats:users/octocat/repos:per_page=100:mode=anonymous
func (k Key) String() string {
	parts := []string{"ghstats"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism.
	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Query.Get(name)))
		}
	}

	if k.Mode != "" {
		parts = append(parts, fmt.Sprintf("mode=%s", k.Mode))
	}

	return strings.Join(parts, ":")
}
