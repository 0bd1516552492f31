package remote

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyderes/posts-client/internal/config"
	"github.com/cyderes/posts-client/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.APIConfig{Endpoint: server.URL + "/posts", Timeout: 5 * time.Second})
}

func TestClient_ListPosts(t *testing.T) {
	testPosts := []models.Post{
		{UserID: 1, ID: 1, Title: "Test Post 1", Body: "Test body 1"},
		{UserID: 1, ID: 2, Title: "Test Post 2", Body: "Test body 2"},
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/posts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(testPosts)
	})

	posts, err := client.ListPosts(t.Context())

	require.NoError(t, err)
	assert.Equal(t, testPosts, posts)
}

func TestClient_ListPosts_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	posts, err := client.ListPosts(t.Context())

	assert.Error(t, err)
	assert.Nil(t, posts)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "API returned status 500")
}

func TestClient_ListPosts_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("invalid json"))
	})

	posts, err := client.ListPosts(t.Context())

	assert.Error(t, err)
	assert.Nil(t, posts)
	assert.Contains(t, err.Error(), "failed to unmarshal response")
}

func TestClient_ListPosts_NotAnArray(t *testing.T) {
	for _, body := range []string{`{"id":1}`, `null`, ``} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		_, err := client.ListPosts(t.Context())

		assert.Error(t, err, "body %q", body)
	}
}

func TestClient_CreatePost(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/posts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, map[string]any{"title": "A", "body": "B"}, in)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 101, "title": in["title"], "body": in["body"]})
	})

	post, err := client.CreatePost(t.Context(), models.PostInput{Title: "A", Body: "B"})

	require.NoError(t, err)
	assert.Equal(t, models.Post{ID: 101, Title: "A", Body: "B"}, post)
}

func TestClient_CreatePost_EmptyResponseKeepsInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	post, err := client.CreatePost(t.Context(), models.PostInput{Title: "A", Body: "B"})

	require.NoError(t, err)
	assert.Equal(t, "A", post.Title)
	assert.Equal(t, "B", post.Body)
}

func TestClient_UpdatePost(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/posts/7", r.URL.Path)

		var in models.PostInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, models.PostInput{ID: 7, Title: "T", Body: "B"}, in)

		json.NewEncoder(w).Encode(in)
	})

	err := client.UpdatePost(t.Context(), 7, models.PostInput{Title: "T", Body: "B"})

	assert.NoError(t, err)
}

func TestClient_UpdatePost_NonJSONSuccessBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	err := client.UpdatePost(t.Context(), 1, models.PostInput{Title: "T", Body: "B"})

	assert.NoError(t, err)
}

func TestClient_UpdatePost_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.UpdatePost(t.Context(), 7, models.PostInput{Title: "T"})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.MethodPut, statusErr.Method)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestClient_DeletePost(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/posts/3", r.URL.Path)
		w.Write([]byte("{}"))
	})

	err := client.DeletePost(t.Context(), 3)

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_NoRetry(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := client.DeletePost(t.Context(), 3)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(config.APIConfig{Endpoint: url + "/posts"})
	_, err := client.ListPosts(t.Context())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to make request")
}
