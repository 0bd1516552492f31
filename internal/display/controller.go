// Package display turns user commands into Post Store calls and renders
// the results into view models. It is the boundary where failures become
// notifications.
package display

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cyderes/posts-client/internal/models"
	"github.com/cyderes/posts-client/internal/poststore"
)

// Messages shown to the user
const (
	MsgFetchFailed   = "Failed to fetch posts."
	MsgCreated       = "Post created successfully!"
	MsgCreateFailed  = "Failed to create post."
	MsgUpdated       = "Post updated successfully!"
	MsgUpdateFailed  = "Failed to update post."
	MsgDeleted       = "Post deleted successfully!"
	MsgDeleteFailed  = "Failed to delete post."
	MsgPostNotFound  = "Error: Post not found"
	MsgNoPosts       = "No posts available."
	MsgConfirmUpdate = "Are you sure you want to update this post?"
	MsgConfirmDelete = "Are you sure you want to delete this post?"
)

const (
	defaultPageSize   = 10
	defaultNoticeTime = 3 * time.Second
)

// PostStore is the subset of the Post Store the display layer drives
type PostStore interface {
	Load(ctx context.Context) error
	Query(searchTerm string, page, pageSize int) models.Page
	Get(id int64) (models.Post, bool)
	Create(ctx context.Context, title, body string) (models.Post, error)
	Update(ctx context.Context, id int64, title, body string) (models.Post, error)
	Delete(ctx context.Context, id int64) error
}

// Confirmer asks the user to confirm an action
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(message string) bool

// Confirm calls f(message)
func (f ConfirmFunc) Confirm(message string) bool { return f(message) }

// ViewState is the pagination and search state of the page
type ViewState struct {
	CurrentPage int    `json:"current_page"`
	SearchTerm  string `json:"search_term"`
	PageSize    int    `json:"page_size"`
}

// PageView is everything needed to render the post list
type PageView struct {
	Posts        []models.Post `json:"posts"`
	CurrentPage  int           `json:"current_page"`
	TotalPages   int           `json:"total_pages"`
	Total        int           `json:"total"`
	SearchTerm   string        `json:"search_term"`
	EmptyMessage string        `json:"empty_message,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// Controller owns the view state and dispatches commands
type Controller struct {
	store    PostStore
	notifier *Notifier

	mu    sync.Mutex
	state ViewState
}

// NewController creates a controller on page 1 with no search term
func NewController(store PostStore, pageSize int, notifier *Notifier) *Controller {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if notifier == nil {
		notifier = NewNotifier(defaultNoticeTime, nil)
	}
	return &Controller{
		store:    store,
		notifier: notifier,
		state:    ViewState{CurrentPage: 1, PageSize: pageSize},
	}
}

// State returns the current view state
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnLoad loads the snapshot if needed and renders the current page
func (c *Controller) OnLoad(ctx context.Context) (PageView, error) {
	err := c.load(ctx)
	return c.View(), err
}

func (c *Controller) load(ctx context.Context) error {
	if err := c.store.Load(ctx); err != nil {
		log.Printf("Failed to fetch posts: %v", err)
		c.notifier.Error(MsgFetchFailed)
		return err
	}
	return nil
}

// ensureLoaded fetches the collection before a mutation when the page was
// never loaded, so a new post does not become the only entry of the
// snapshot. A failed fetch does not block the mutation.
func (c *Controller) ensureLoaded(ctx context.Context) {
	_ = c.load(ctx)
}

// refresh re-renders after a successful mutation. A failed reload is only
// reported as a notification; the mutation itself already succeeded.
func (c *Controller) refresh(ctx context.Context) PageView {
	_ = c.load(ctx)
	return c.View()
}

// OnCreate creates a post and re-renders
func (c *Controller) OnCreate(ctx context.Context, title, body string) (PageView, error) {
	c.ensureLoaded(ctx)
	post, err := c.store.Create(ctx, title, body)
	if err != nil {
		log.Printf("Failed to create post: %v", err)
		c.notifier.Error(MsgCreateFailed)
		return c.View(), err
	}
	log.Printf("Created post %d", post.ID)
	c.notifier.Success(MsgCreated)
	return c.refresh(ctx), nil
}

// OnEdit returns the post to prefill the edit form with
func (c *Controller) OnEdit(id int64) (models.Post, error) {
	post, ok := c.store.Get(id)
	if !ok {
		c.notifier.Error(MsgPostNotFound)
		return models.Post{}, &poststore.NotFoundError{ID: id}
	}
	return post, nil
}

// OnUpdate asks for confirmation, then updates the post. A declined
// confirmation does nothing.
func (c *Controller) OnUpdate(ctx context.Context, confirm Confirmer, id int64, title, body string) (PageView, error) {
	if !confirm.Confirm(MsgConfirmUpdate) {
		return c.View(), nil
	}

	c.ensureLoaded(ctx)
	if _, err := c.store.Update(ctx, id, title, body); err != nil {
		var nf *poststore.NotFoundError
		if errors.As(err, &nf) {
			log.Printf("Post %d updated remotely but missing locally", id)
		} else {
			log.Printf("Failed to update post %d: %v", id, err)
		}
		c.notifier.Error(MsgUpdateFailed)
		return c.View(), err
	}
	c.notifier.Success(MsgUpdated)
	return c.refresh(ctx), nil
}

// OnDelete asks for confirmation, then deletes the post
func (c *Controller) OnDelete(ctx context.Context, confirm Confirmer, id int64) (PageView, error) {
	if !confirm.Confirm(MsgConfirmDelete) {
		return c.View(), nil
	}

	c.ensureLoaded(ctx)
	if err := c.store.Delete(ctx, id); err != nil {
		log.Printf("Failed to delete post %d: %v", id, err)
		c.notifier.Error(MsgDeleteFailed)
		return c.View(), err
	}
	c.notifier.Success(MsgDeleted)
	return c.refresh(ctx), nil
}

// OnSearch sets the search term and goes back to the first page
func (c *Controller) OnSearch(term string) PageView {
	c.mu.Lock()
	c.state.SearchTerm = term
	c.state.CurrentPage = 1
	c.mu.Unlock()
	return c.View()
}

// OnPageChange moves to the given page, clamped to the available pages
func (c *Controller) OnPageChange(page int) PageView {
	c.mu.Lock()
	c.state.CurrentPage = page
	c.mu.Unlock()
	return c.View()
}

// View renders the current page from the snapshot
func (c *Controller) View() PageView {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.store.Query(c.state.SearchTerm, 1, c.state.PageSize).Total
	pages := totalPages(total, c.state.PageSize)
	// page changes and deletes can leave the current page out of range
	c.state.CurrentPage = clamp(c.state.CurrentPage, pages)

	result := c.store.Query(c.state.SearchTerm, c.state.CurrentPage, c.state.PageSize)
	view := PageView{
		Posts:        result.Posts,
		CurrentPage:  c.state.CurrentPage,
		TotalPages:   pages,
		Total:        result.Total,
		SearchTerm:   c.state.SearchTerm,
		Notification: c.notifier.Current(),
	}
	if len(view.Posts) == 0 {
		view.EmptyMessage = MsgNoPosts
	}
	return view
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func clamp(page, pages int) int {
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return page
}
