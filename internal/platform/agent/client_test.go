package agent

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codele_backend/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_PickTheme(t *testing.T) {
	var gotBody map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/pick-theme", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"theme": "  Dynamic Programming  "})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testLogger())
	theme, err := c.PickTheme(context.Background(), []string{"Arrays", "Graphs"})
	require.NoError(t, err)
	assert.Equal(t, "Dynamic Programming", theme)
	assert.Equal(t, []string{"Arrays", "Graphs"}, gotBody["recent_themes"])
}

func TestClient_PickTheme_EmptyTheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"theme": "   "})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testLogger())
	_, err := c.PickTheme(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrGeneratorFailure)
}

func TestClient_GenerateProblems(t *testing.T) {
	drafts := []map[string]interface{}{
		{
			"title":        "  Two Sum  ",
			"description":  "find two numbers",
			"starter_code": "def solve():\n    pass",
			"topics":       []string{"arrays"},
			"test_cases": []map[string]string{
				{"type": "BASIC", "hint": "h", "input": "1", "expected": "1"},
				{"type": "made-up", "hint": "h", "input": "2", "expected": "2"},
			},
		},
		{
			"title":        "Binary Search",
			"description":  "search sorted",
			"starter_code": "def solve():\n    pass",
			"test_cases":   []map[string]string{},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"problems": drafts})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, testLogger())
	got, err := c.GenerateProblems(context.Background(), "Arrays", 2, []string{"Old Title"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Boundary normalization: whitespace trimmed, unknown test case types
	// coerced to basic, nil topics materialized.
	assert.Equal(t, "Two Sum", got[0].Title)
	assert.Equal(t, "basic", got[0].TestCases[0].Type)
	assert.Equal(t, "basic", got[0].TestCases[1].Type)
	assert.NotNil(t, got[1].Topics)
}

func TestClient_GenerateProblems_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "wrong draft count",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{"problems": []interface{}{}})
			},
		},
		{
			name: "missing title",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{"problems": []map[string]string{
					{"description": "d", "starter_code": "s"},
				}})
			},
		},
		{
			name: "upstream error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model overloaded", http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, time.Second, testLogger())
			_, err := c.GenerateProblems(context.Background(), "Arrays", 1, nil)
			assert.ErrorIs(t, err, common.ErrGeneratorFailure)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond, testLogger())
	_, err := c.PickTheme(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrGeneratorFailure)
}
