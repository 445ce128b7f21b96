package domain

import "time"

// Event types appended to the event log.
const (
	EventAnnouncementCreated = "announcement_created"
	EventPostCreated         = "post_created"
	EventPostDeleted         = "post_deleted"
	EventCommentAdded        = "comment_added"
	EventAssignmentCreated   = "assignment_created"
	EventAssignmentSubmitted = "assignment_submitted"
	EventGradeGiven          = "grade_given"
)

// Event is an immutable audit record. Partitioned by course, clustered by
// time descending, so "most recent N events for course" is a single range
// scan. Write-once; never updated.
type Event struct {
	EventID   string         `json:"event_id" dynamodbav:"event_id"`
	EventType string         `json:"event_type" dynamodbav:"event_type"`
	UserID    int64          `json:"user_id" dynamodbav:"user_id"`
	CourseID  int64          `json:"course_id" dynamodbav:"course_id"`
	Details   map[string]any `json:"details" dynamodbav:"-"`
	EventTime time.Time      `json:"event_time" dynamodbav:"event_time"`
}

// NotificationHistory is the immutable per-user fan-out record, kept
// alongside the event log for analytics over notification volume.
type NotificationHistory struct {
	UserID         int64     `json:"user_id" dynamodbav:"user_id"`
	NotificationID string    `json:"notification_id" dynamodbav:"notification_id"`
	Type           string    `json:"type" dynamodbav:"type"`
	ReferenceID    int64     `json:"reference_id" dynamodbav:"reference_id"`
	Message        string    `json:"message" dynamodbav:"message"`
	IsRead         bool      `json:"is_read" dynamodbav:"is_read"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
}
