package dynamo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/classkit/api/internal/domain"
)

// eventItem is the wire shape of an event-log row. Details travel as a JSON
// string attribute; the composite event_key is the clustering key.
type eventItem struct {
	CourseID  int64     `dynamodbav:"course_id"`
	EventKey  string    `dynamodbav:"event_key"`
	EventID   string    `dynamodbav:"event_id"`
	EventType string    `dynamodbav:"event_type"`
	UserID    int64     `dynamodbav:"user_id"`
	Details   string    `dynamodbav:"details"`
	EventTime time.Time `dynamodbav:"event_time"`
}

// EventRepo appends to and scans the immutable event log.
type EventRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEventRepo(client *dynamodb.Client, tableName string) *EventRepo {
	return &EventRepo{client: client, tableName: tableName}
}

// Append writes the event. Write-once: the composite key embeds a fresh ULID
// so appends never collide and never overwrite.
func (r *EventRepo) Append(ctx context.Context, e *domain.Event) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("marshal event details: %w", err)
	}
	item, err := attributevalue.MarshalMap(eventItem{
		CourseID:  e.CourseID,
		EventKey:  sortKey(e.EventTime, e.EventID),
		EventID:   e.EventID,
		EventType: e.EventType,
		UserID:    e.UserID,
		Details:   string(details),
		EventTime: e.EventTime.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// RecentByCourse scans the course partition newest-first, bounded by the
// time window and the result cap. When eventTypes is non-empty only those
// types are returned; the cap still applies to the filtered result.
func (r *EventRepo) RecentByCourse(ctx context.Context, courseID int64, since time.Time, limit int32, eventTypes ...string) ([]domain.Event, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("course_id = :cid AND event_key >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid":   &types.AttributeValueMemberN{Value: strconv.FormatInt(courseID, 10)},
			":since": &types.AttributeValueMemberS{Value: sortKeyLowerBound(since)},
		},
		ScanIndexForward: aws.Bool(false), // newest first
		Limit:            aws.Int32(limit),
	}

	if len(eventTypes) > 0 {
		names := make([]string, 0, len(eventTypes))
		for i, et := range eventTypes {
			placeholder := fmt.Sprintf(":t%d", i)
			input.ExpressionAttributeValues[placeholder] = &types.AttributeValueMemberS{Value: et}
			names = append(names, placeholder)
		}
		filter := "event_type IN (" + names[0]
		for _, n := range names[1:] {
			filter += ", " + n
		}
		filter += ")"
		input.FilterExpression = aws.String(filter)
	}

	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(out.Items))
	for _, raw := range out.Items {
		var item eventItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, err
		}
		if item.EventID == "" {
			// The clustering key embeds the id; recover it for rows written
			// without the denormalized event_id attribute.
			_, item.EventID = splitSortKey(item.EventKey)
		}
		e := domain.Event{
			EventID:   item.EventID,
			EventType: item.EventType,
			UserID:    item.UserID,
			CourseID:  item.CourseID,
			EventTime: item.EventTime,
		}
		if item.Details != "" {
			if err := json.Unmarshal([]byte(item.Details), &e.Details); err != nil {
				e.Details = map[string]any{"raw": item.Details}
			}
		}
		events = append(events, e)
	}
	return events, nil
}

// historyItem is the wire shape of a notification-history row.
type historyItem struct {
	UserID         int64     `dynamodbav:"user_id"`
	CreatedKey     string    `dynamodbav:"created_key"`
	NotificationID string    `dynamodbav:"notification_id"`
	Type           string    `dynamodbav:"type"`
	ReferenceID    int64     `dynamodbav:"reference_id"`
	Message        string    `dynamodbav:"message"`
	IsRead         bool      `dynamodbav:"is_read"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
}

// HistoryRepo appends immutable per-user notification fan-out records.
type HistoryRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewHistoryRepo(client *dynamodb.Client, tableName string) *HistoryRepo {
	return &HistoryRepo{client: client, tableName: tableName}
}

func (r *HistoryRepo) Append(ctx context.Context, h *domain.NotificationHistory) error {
	item, err := attributevalue.MarshalMap(historyItem{
		UserID:         h.UserID,
		CreatedKey:     sortKey(h.CreatedAt, h.NotificationID),
		NotificationID: h.NotificationID,
		Type:           h.Type,
		ReferenceID:    h.ReferenceID,
		Message:        h.Message,
		IsRead:         h.IsRead,
		CreatedAt:      h.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification history: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// RecentByUser scans a user's fan-out history newest-first.
func (r *HistoryRepo) RecentByUser(ctx context.Context, userID int64, limit int32) ([]domain.NotificationHistory, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberN{Value: strconv.FormatInt(userID, 10)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var history []domain.NotificationHistory
	for _, raw := range out.Items {
		var item historyItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, err
		}
		if item.NotificationID == "" {
			_, item.NotificationID = splitSortKey(item.CreatedKey)
		}
		history = append(history, domain.NotificationHistory{
			UserID:         item.UserID,
			NotificationID: item.NotificationID,
			Type:           item.Type,
			ReferenceID:    item.ReferenceID,
			Message:        item.Message,
			IsRead:         item.IsRead,
			CreatedAt:      item.CreatedAt,
		})
	}
	return history, nil
}
