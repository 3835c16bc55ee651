package cache

import (
	"net/url"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "endpoint only",
			key: Key{
				Endpoint: "/users/octocat",
			},
			want: "ghstats:users/octocat",
		},
		{
			name: "endpoint with mode",
			key: Key{
				Endpoint: "/users/octocat",
				Mode:     "anonymous",
			},
			want: "ghstats:users/octocat:mode=anonymous",
		},
		{
			name: "endpoint with query params",
			key: Key{
				Endpoint: "/users/octocat/repos",
				Query: url.Values{
					"per_page": []string{"100"},
				},
			},
			want: "ghstats:users/octocat/repos:per_page=100",
		},
		{
			name: "multiple query params (sorted)",
			key: Key{
				Endpoint: "/users/octocat/repos",
				Query: url.Values{
					"since":    []string{"2024-01-01"},
					"max":      []string{"25"},
					"per_page": []string{"100"},
				},
				Mode: "token",
			},
			want: "ghstats:users/octocat/repos:max=25:per_page=100:since=2024-01-01:mode=token",
		},
		{
			name: "different filters never collide",
			key: Key{
				Endpoint: "/orgs/golang/repos",
				Query: url.Values{
					"max": []string{"10"},
				},
				Mode: "anonymous",
			},
			want: "ghstats:orgs/golang/repos:max=10:mode=anonymous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.String()
			if got != tt.want {
				t.Errorf("Key.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestKey_Determinism ensures the same input always produces the same key.
func TestKey_Determinism(t *testing.T) {
	key := Key{
		Endpoint: "/users/octocat/repos",
		Query: url.Values{
			"since":    []string{"2024-01-01"},
			"max":      []string{"25"},
			"per_page": []string{"100"},
		},
		Mode: "token",
	}

	first := key.String()
	for i := 0; i < 50; i++ {
		if got := key.String(); got != first {
			t.Fatalf("Key.String() not deterministic: %q != %q", got, first)
		}
	}
}
