package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/amarzeus/github-stats-cli/internal/testutil"
)

// newPaginationMock serves a repo listing split into perPage-sized pages.
func newPaginationMock(t *testing.T, items []string, perPage int) *testutil.MockGitHub {
	t.Helper()
	mock := testutil.NewMockGitHub()
	mock.SetPaginated("/users/octocat/repos", items, perPage)
	return mock
}

// makeItems builds n JSON objects with sequential ids.
func makeItems(n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":%d}`, i+1)
	}
	return items
}

func itemIDs(t *testing.T, items []json.RawMessage) []int {
	t.Helper()
	ids := make([]int, len(items))
	for i, raw := range items {
		var v struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			t.Fatalf("decode item %d: %v", i, err)
		}
		ids[i] = v.ID
	}
	return ids
}

func TestGetPaginated_CapTruncates(t *testing.T) {
	mock := newPaginationMock(t, makeItems(30), 10)
	defer mock.Close()

	c := newTestClient(t, mock)
	items, err := c.GetPaginated(context.Background(), "/users/octocat/repos", nil, 25)
	if err != nil {
		t.Fatalf("GetPaginated() error: %v", err)
	}

	if len(items) != 25 {
		t.Fatalf("len(items) = %d, want exactly 25", len(items))
	}

	// The first 25 items in API-return order, before any sorting.
	ids := itemIDs(t, items)
	for i, id := range ids {
		if id != i+1 {
			t.Fatalf("items[%d] id = %d, want %d (API order preserved)", i, id, i+1)
		}
	}
}

func TestGetPaginated_ExhaustionWithoutCap(t *testing.T) {
	mock := newPaginationMock(t, makeItems(23), 10)
	defer mock.Close()

	c := newTestClient(t, mock)
	items, err := c.GetPaginated(context.Background(), "/users/octocat/repos", nil, 0)
	if err != nil {
		t.Fatalf("GetPaginated() error: %v", err)
	}
	if len(items) != 23 {
		t.Errorf("len(items) = %d, want 23", len(items))
	}
}

func TestGetPaginated_SinglePage(t *testing.T) {
	mock := newPaginationMock(t, makeItems(5), 10)
	defer mock.Close()

	c := newTestClient(t, mock)
	items, err := c.GetPaginated(context.Background(), "/users/octocat/repos", nil, 100)
	if err != nil {
		t.Fatalf("GetPaginated() error: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("len(items) = %d, want 5", len(items))
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("requests = %d, want 1", mock.GetRequestCount())
	}
}

func TestGetPaginated_EmptyListing(t *testing.T) {
	mock := newPaginationMock(t, nil, 10)
	defer mock.Close()

	c := newTestClient(t, mock)
	items, err := c.GetPaginated(context.Background(), "/users/octocat/repos", nil, 10)
	if err != nil {
		t.Fatalf("GetPaginated() error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len(items) = %d, want 0", len(items))
	}
}

func TestHasNextPage(t *testing.T) {
	tests := []struct {
		name string
		link string
		want bool
	}{
		{
			name: "next present",
			link: `<https://api.github.com/user/repos?page=2>; rel="next", <https://api.github.com/user/repos?page=4>; rel="last"`,
			want: true,
		},
		{
			name: "last page",
			link: `<https://api.github.com/user/repos?page=1>; rel="first", <https://api.github.com/user/repos?page=3>; rel="prev"`,
			want: false,
		},
		{
			name: "no link header",
			link: "",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.link != "" {
				headers.Set("Link", tt.link)
			}
			if got := hasNextPage(headers); got != tt.want {
				t.Errorf("hasNextPage() = %v, want %v", got, tt.want)
			}
		})
	}
}
