// Package poststore holds the client-side snapshot of the remote post
// collection and mediates mutations against the remote API.
//
// The snapshot is fetched once, when empty, and every later read is served
// from memory. Mutations are applied to the snapshot only after the remote
// call succeeds; a failed call leaves it untouched.
package poststore

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cyderes/posts-client/internal/models"
)

// Remote is the remote posts API
type Remote interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	CreatePost(ctx context.Context, in models.PostInput) (models.Post, error)
	UpdatePost(ctx context.Context, id int64, in models.PostInput) error
	DeletePost(ctx context.Context, id int64) error
}

// Store owns the snapshot
type Store struct {
	remote Remote
	ids    *IDGenerator

	// opMu serializes operations that go to the network, so two mutations
	// never interleave against the same snapshot.
	opMu sync.Mutex

	mu    sync.RWMutex
	posts []models.Post

	loads singleflight.Group
}

// Option configures a Store
type Option func(*Store)

// WithIDGenerator replaces the id generator used by Create
func WithIDGenerator(g *IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// New creates an empty store backed by the given remote
func New(r Remote, opts ...Option) *Store {
	s := &Store{remote: r}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = NewIDGenerator(nil)
	}
	return s
}

// Load fetches the collection if the snapshot is empty. Concurrent callers
// share a single fetch and its result. The shared fetch is detached from
// the caller that started it; a caller whose ctx ends stops waiting but
// leaves the fetch running for the others.
func (s *Store) Load(ctx context.Context) error {
	ch := s.loads.DoChan("load", func() (any, error) {
		return nil, s.load(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return &NetworkError{Op: "load", Err: ctx.Err()}
	}
}

func (s *Store) load(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.Len() > 0 {
		return nil
	}

	posts, err := s.remote.ListPosts(ctx)
	if err != nil {
		return &NetworkError{Op: "load", Err: err}
	}

	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()
	return nil
}

// Query filters the snapshot by a case-insensitive substring of title or
// body and returns the requested 1-based page with the filtered total.
// Out-of-range pages give an empty slice.
func (s *Store) Query(searchTerm string, page, pageSize int) models.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(searchTerm)
	var filtered []models.Post
	if needle == "" {
		filtered = s.posts
	} else {
		for _, p := range s.posts {
			if matches(p, needle) {
				filtered = append(filtered, p)
			}
		}
	}

	result := models.Page{Posts: []models.Post{}, Total: len(filtered)}
	if page < 1 || pageSize <= 0 {
		return result
	}

	start := (page - 1) * pageSize
	if start >= len(filtered) {
		return result
	}
	end := min(start+pageSize, len(filtered))

	result.Posts = append(result.Posts, filtered[start:end]...)
	return result
}

func matches(p models.Post, needle string) bool {
	return strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Body), needle)
}

// Get returns the snapshot entry with the given id
func (s *Store) Get(id int64) (models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.posts[i], true
	}
	return models.Post{}, false
}

// Snapshot returns a copy of the whole snapshot in display order
func (s *Store) Snapshot() []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Len returns the number of posts in the snapshot
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// Create posts a new entry, gives it a locally generated id and puts it at
// the front of the snapshot.
func (s *Store) Create(ctx context.Context, title, body string) (models.Post, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	post, err := s.remote.CreatePost(ctx, models.PostInput{Title: title, Body: body})
	if err != nil {
		return models.Post{}, newRequestError("create", 0, err)
	}
	// The server-assigned id is not durable; replace it.
	post.ID = s.ids.Next()

	s.mu.Lock()
	posts := make([]models.Post, 0, len(s.posts)+1)
	posts = append(posts, post)
	s.posts = append(posts, s.posts...)
	s.mu.Unlock()

	return post, nil
}

// Update replaces title and body of the entry with the given id, keeping
// its other fields.
func (s *Store) Update(ctx context.Context, id int64, title, body string) (models.Post, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.remote.UpdatePost(ctx, id, models.PostInput{ID: id, Title: title, Body: body}); err != nil {
		return models.Post{}, newRequestError("update", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Post{}, &NotFoundError{ID: id}
	}
	s.posts[i].Title = title
	s.posts[i].Body = body
	return s.posts[i], nil
}

// Delete removes every entry with the given id
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.remote.DeletePost(ctx, id); err != nil {
		return newRequestError("delete", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.posts = kept
	return nil
}

// indexOf must be called with mu held
func (s *Store) indexOf(id int64) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}
