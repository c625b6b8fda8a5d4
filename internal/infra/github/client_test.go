package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/ledgerloop/internal/domain"
)

func TestClient_ListOpenRequests(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[
  {"number": 7, "title": "feat: ledgerloop batch 3", "html_url": "https://github.com/acme/api/pull/7", "head": {"ref": "ledgerloop"}}
]`))
	}))
	defer server.Close()

	prs := NewClient(server.URL, nil).ListOpenRequests(context.Background(), "acme", "api", "tok")

	assert.Equal(t, "/repos/acme/api/pulls", gotPath)
	assert.Equal(t, "state=open&per_page=20", gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	require.Len(t, prs, 1)
	assert.Equal(t, domain.PullRequest{
		Number:  7,
		Title:   "feat: ledgerloop batch 3",
		URL:     "https://github.com/acme/api/pull/7",
		HeadRef: "ledgerloop",
	}, prs[0])
}

func TestClient_ListOpenRequests_Anonymous(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	prs := NewClient(server.URL, nil).ListOpenRequests(context.Background(), "acme", "api", "")

	assert.Empty(t, gotAuth)
	assert.NotNil(t, prs)
	assert.Empty(t, prs)
}

func TestClient_ListOpenRequests_FailuresYieldEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"bad json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"message":`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			prs := NewClient(server.URL, nil).ListOpenRequests(context.Background(), "acme", "api", "")
			assert.Empty(t, prs)
		})
	}
}

func TestClient_ListOpenRequests_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	prs := NewClient(url, nil).ListOpenRequests(context.Background(), "acme", "api", "")
	assert.Empty(t, prs)
}
