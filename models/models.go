// tavle/models/models.go
package models

import (
	"database/sql"
)

// --- Core Data Models ---

// User is a registered account. Timestamps are unix seconds.
type User struct {
	ID           int64  `json:"user_id"`
	Name         string `json:"user_name"`
	PasswordHash string `json:"-"`
	Group        int64  `json:"user_group"`
	Timestamp    int64  `json:"user_timestamp"`
}

// Image is the metadata row for an uploaded file. The file itself lives in
// a StorageService under FileName; the row is written before the file.
type Image struct {
	ID            int64  `json:"image_id"`
	UserID        int64  `json:"user_id"`
	FileName      string `json:"image_file_name"`
	FileExtension string `json:"image_file_extension"`
	Timestamp     int64  `json:"image_timestamp"`
}

// Thread is a discussion topic. PostID points at the opening post and is
// NULL only inside the creation transaction, never in a committed thread.
type Thread struct {
	ID           int64         `json:"thread_id"`
	UserID       int64         `json:"user_id"`
	PostID       sql.NullInt64 `json:"-"`
	Subject      string        `json:"thread_subject"`
	Timestamp    int64         `json:"thread_timestamp"`
	LastModified int64         `json:"thread_last_modified"`
}

// Post is a single message in a thread, optionally referencing one image.
type Post struct {
	ID           int64         `json:"post_id"`
	ThreadID     int64         `json:"thread_id"`
	UserID       int64         `json:"user_id"`
	ImageID      sql.NullInt64 `json:"-"`
	Text         string        `json:"post_text"`
	Timestamp    int64         `json:"post_timestamp"`
	LastModified int64         `json:"post_last_modified"`
}

// --- API Payloads ---

// ThreadView is the JSON shape of a thread; the nullable opening post id is
// flattened to a plain value or null.
type ThreadView struct {
	Thread
	PostID *int64 `json:"post_id"`
}

// PostView is the JSON shape of a post.
type PostView struct {
	Post
	ImageID *int64 `json:"image_id"`
}

// ThreadAndPosts is the GET /api/threads/{id} response body.
type ThreadAndPosts struct {
	Thread ThreadView `json:"thread"`
	Posts  []PostView `json:"posts"`
}

// NewThreadView converts a decoded thread record for JSON output.
func NewThreadView(t Thread) ThreadView {
	v := ThreadView{Thread: t}
	if t.PostID.Valid {
		id := t.PostID.Int64
		v.PostID = &id
	}
	return v
}

// NewPostView converts a decoded post record for JSON output.
func NewPostView(p Post) PostView {
	v := PostView{Post: p}
	if p.ImageID.Valid {
		id := p.ImageID.Int64
		v.ImageID = &id
	}
	return v
}

// NewPostViews converts a slice of post records.
func NewPostViews(posts []Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, NewPostView(p))
	}
	return views
}
