package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshdurbin/url-mapper/internal/domain"
)

func newTestCommands(t *testing.T, handler http.HandlerFunc) (*Commands, *bytes.Buffer) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var out bytes.Buffer
	return NewCommands(NewClient(server.URL), &out), &out
}

func TestNewCommands(t *testing.T) {
	client := NewClient("http://localhost:3000")
	var out bytes.Buffer
	commands := NewCommands(client, &out)

	assert.NotNil(t, commands)
	assert.Equal(t, client, commands.client)
}

func TestCommands_Create(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, domain.MappingView{
				URL:       "https://example.com",
				ShortCode: "example",
				CreatedAt: "2024-01-01T00:00:00Z",
			})
		})

		require.NoError(t, commands.Create(context.Background(), "https://example.com", "example"))

		output := out.String()
		assert.Contains(t, output, "Short URL created:")
		assert.Contains(t, output, "Short Code: example")
		assert.Contains(t, output, "URL: https://example.com")
		assert.Contains(t, output, "Created At: 2024-01-01T00:00:00Z")
		assert.Contains(t, output, "Updated At: Never")
	})

	t.Run("duplicate code", func(t *testing.T) {
		commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, domain.MessageResponse{Message: "Short code already exists"})
		})

		require.NoError(t, commands.Create(context.Background(), "https://example.com", "taken"))
		assert.Contains(t, out.String(), "Short code 'taken' already exists")
	})

	t.Run("server error", func(t *testing.T) {
		commands, _ := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		err := commands.Create(context.Background(), "https://example.com", "example")
		assert.Error(t, err)
	})
}

func TestCommands_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		updated := "2024-02-01T00:00:00Z"
		commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, domain.MappingView{
				URL:       "https://example.com",
				ShortCode: "example",
				CreatedAt: "2024-01-01T00:00:00Z",
				UpdatedAt: &updated,
			})
		})

		require.NoError(t, commands.Get(context.Background(), "example"))
		assert.Contains(t, out.String(), "URL Information:")
		assert.Contains(t, out.String(), "Updated At: 2024-02-01T00:00:00Z")
	})

	t.Run("not found", func(t *testing.T) {
		commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, domain.MessageResponse{Message: "Url not found"})
		})

		require.NoError(t, commands.Get(context.Background(), "missing"))
		assert.Contains(t, out.String(), "Short code 'missing' not found")
	})
}

func TestCommands_Update(t *testing.T) {
	t.Run("successful update", func(t *testing.T) {
		commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Url updated"})
		})

		require.NoError(t, commands.Update(context.Background(), "example", "https://new.example.com"))
		assert.Contains(t, out.String(), "Short code 'example' now points to https://new.example.com")
	})

	t.Run("not found", func(t *testing.T) {
		commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, domain.MessageResponse{Message: "Url not found"})
		})

		require.NoError(t, commands.Update(context.Background(), "missing", "https://new.example.com"))
		assert.Contains(t, out.String(), "Short code 'missing' not found")
	})

	t.Run("invalid URL is an error", func(t *testing.T) {
		commands, _ := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, domain.MessageResponse{Message: "invalid input: url is required"})
		})

		err := commands.Update(context.Background(), "example", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCommands_Delete(t *testing.T) {
	t.Run("successful deletion", func(t *testing.T) {
		commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Url deleted"})
		})

		require.NoError(t, commands.Delete(context.Background(), "example"))
		assert.Contains(t, out.String(), "Short code 'example' deleted successfully")
	})

	t.Run("not found", func(t *testing.T) {
		commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, domain.MessageResponse{Message: "Url not found"})
		})

		require.NoError(t, commands.Delete(context.Background(), "missing"))
		assert.Contains(t, out.String(), "Short code 'missing' not found")
	})
}

func TestCommands_Stats(t *testing.T) {
	updated := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.MappingRecord{
			ID:          2,
			ShortCode:   "example",
			URL:         "https://example.com",
			CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt:   &updated,
			AccessCount: 42,
		})
	})

	require.NoError(t, commands.Stats(context.Background(), "example"))

	output := out.String()
	assert.Contains(t, output, "ID: 2")
	assert.Contains(t, output, "Created At: 2024-01-01T00:00:00Z")
	assert.Contains(t, output, "Updated At: 2024-03-01T10:00:00Z")
	assert.Contains(t, output, "Access Count: 42")
}

func TestCommands_List(t *testing.T) {
	t.Run("records", func(t *testing.T) {
		longURL := "https://example.com/" + strings.Repeat("a", 80)
		commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []domain.MappingRecord{
				{ID: 1, ShortCode: "short", URL: "https://example.com", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), AccessCount: 7},
				{ID: 2, ShortCode: "long", URL: longURL, CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
			})
		})

		require.NoError(t, commands.List(context.Background()))

		output := out.String()
		assert.Contains(t, output, "Short Code")
		assert.Contains(t, output, "Access Count")
		assert.Contains(t, output, "short")
		assert.Contains(t, output, "2024-01-01 00:00:00")
		assert.Contains(t, output, "Never")
		assert.Contains(t, output, "...")
		assert.NotContains(t, output, longURL)
	})

	t.Run("multi-byte url", func(t *testing.T) {
		wideURL := "https://example.com/" + strings.Repeat("é", 60)
		commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []domain.MappingRecord{
				{ID: 1, ShortCode: "wide", URL: wideURL, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			})
		})

		require.NoError(t, commands.List(context.Background()))

		output := out.String()
		assert.True(t, utf8.ValidString(output))
		assert.Contains(t, output, "https://example.com/"+strings.Repeat("é", 27)+"...")
	})

	t.Run("empty", func(t *testing.T) {
		commands, out := newTestCommands(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []domain.MappingRecord{})
		})

		require.NoError(t, commands.List(context.Background()))
		assert.Equal(t, "No URLs found\n", out.String())
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{name: "short", input: "abc", width: 5, want: "abc"},
		{name: "exact", input: "abcde", width: 5, want: "abcde"},
		{name: "ascii", input: "abcdefgh", width: 5, want: "ab..."},
		{name: "multi-byte", input: "日本語のテキスト", width: 5, want: "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.input, tt.width))
		})
	}
}
