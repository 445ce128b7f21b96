package domain

import "time"

// Post types.
const (
	PostTypeAnnouncement = "announcement"
	PostTypePost         = "post"
)

type Post struct {
	ID        int64     `json:"id" db:"id"`
	CourseID  int64     `json:"course_id" db:"course_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Text      *string   `json:"text" db:"text"` // optional for attachment-only posts
	Type      string    `json:"type" db:"type"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

type Comment struct {
	ID        int64     `json:"id" db:"id"`
	PostID    int64     `json:"post_id" db:"post_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Text      string    `json:"text" db:"text"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Attachment is a stored-file reference hanging off a post, assignment or
// submission. The binary itself lives in the object store under Key.
type Attachment struct {
	ID       int64  `json:"id" db:"id"`
	OwnerID  int64  `json:"owner_id" db:"owner_id"` // post/assignment/submission id
	Kind     string `json:"kind" db:"kind"`         // post | assignment | submission
	Key      string `json:"key" db:"key"`
	Filename string `json:"filename" db:"filename"`
}

type CreatePostRequest struct {
	CourseID int64   `json:"course_id" validate:"required"`
	Text     *string `json:"text"`
	Type     string  `json:"type" validate:"required,oneof=announcement post"`
}

type CreateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}
