package models

import "time"

// Post represents a post as served by the remote API
type Post struct {
	UserID int    `json:"userId,omitempty" bson:"user_id"`
	ID     int64  `json:"id" bson:"_id"`
	Title  string `json:"title" bson:"title"`
	Body   string `json:"body" bson:"body"`
}

// PostInput is the payload sent to the remote API on create and update
type PostInput struct {
	ID    int64  `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Page is one page of a filtered view over the snapshot
type Page struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
}

// ArchivedPost represents a snapshot entry after export
type ArchivedPost struct {
	Post       `json:",inline" bson:",inline"`
	ArchivedAt time.Time `json:"archived_at" bson:"archived_at"`
	Source     string    `json:"source" bson:"source"`
}

// ArchiveStatus tracks the status of archive runs
type ArchiveStatus struct {
	LastSuccessfulRun time.Time `json:"last_successful_run" bson:"last_successful_run"`
	LastAttempt       time.Time `json:"last_attempt" bson:"last_attempt"`
	Status            string    `json:"status" bson:"status"` // "never_run", "running", "success", "failure"
	ErrorMessage      string    `json:"error_message,omitempty" bson:"error_message,omitempty"`
	RecordsArchived   int       `json:"records_archived" bson:"records_archived"`
}

// Archive run states
const (
	ArchiveNeverRun = "never_run"
	ArchiveRunning  = "running"
	ArchiveSuccess  = "success"
	ArchiveFailure  = "failure"
)
