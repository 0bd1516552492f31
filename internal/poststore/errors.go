package poststore

import (
	"errors"
	"fmt"

	"github.com/cyderes/posts-client/internal/remote"
)

// NetworkError means the snapshot could not be loaded: the request failed or
// the response was not a list of posts. Callers treat it as "posts
// unavailable".
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s posts: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RequestError means a mutating call did not succeed remotely. Status is the
// HTTP status when one was received, 0 otherwise.
type RequestError struct {
	Op     string
	ID     int64
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s post %d: request failed: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s post: request failed: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// NotFoundError means the remote accepted a mutation for an id the snapshot
// does not hold.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("post %d not found in local data", e.ID)
}

func newRequestError(op string, id int64, err error) *RequestError {
	re := &RequestError{Op: op, ID: id, Err: err}
	var se *remote.StatusError
	if errors.As(err, &se) {
		re.Status = se.StatusCode
	}
	return re
}
