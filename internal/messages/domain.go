package messages

import (
	"context"
	"database/sql"
	"time"

	response "github.com/kgellert/hodatay-groups/internal/lib/api/response"
)

const topicPrefix = "messages:"

// Topic is the live-query topic published after a message is inserted into groupID.
func Topic(groupID string) string {
	return topicPrefix + groupID
}

// Message.File holds the attachment key as stored, or the resolved URL once
// the message went through ListMessages.
type Message struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	User      string    `json:"user"`
	Content   string    `json:"content"`
	File      *string   `json:"file,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageRow struct {
	ID        string         `db:"id"`
	GroupID   string         `db:"group_id"`
	User      string         `db:"user_name"`
	Content   string         `db:"content"`
	File      sql.NullString `db:"file"`
	CreatedAt int64          `db:"created_at"`
}

func NewMessageFromRow(row MessageRow) Message {
	var file *string
	if row.File.Valid {
		f := row.File.String
		file = &f
	}

	return Message{
		ID:        row.ID,
		GroupID:   row.GroupID,
		User:      row.User,
		Content:   row.Content,
		File:      file,
		CreatedAt: time.Unix(0, row.CreatedAt).UTC(),
	}
}

func NewRowFromMessage(m Message) MessageRow {
	row := MessageRow{
		ID:        m.ID,
		GroupID:   m.GroupID,
		User:      m.User,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UnixNano(),
	}
	if m.File != nil {
		row.File = sql.NullString{String: *m.File, Valid: true}
	}
	return row
}

type SendParams struct {
	GroupID string
	User    string
	Content string
	File    *string
}

// SendMessageRequest mirrors the mutation arguments: content and user must be
// present, file is optional.
type SendMessageRequest struct {
	Content *string `json:"content" validate:"required"`
	User    *string `json:"user" validate:"required"`
	File    *string `json:"file"`
}

type SendMessageResponse struct {
	response.Response
}

type GetMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type Repo interface {
	InsertMessage(ctx context.Context, m Message) error
	ListMessages(ctx context.Context, groupID string) ([]Message, error)
}

type Service interface {
	SendMessage(ctx context.Context, p SendParams) (Message, error)
	ListMessages(ctx context.Context, groupID string) ([]Message, error)
}

// AttachmentResolver turns a stored attachment key into a fetchable URL. An
// empty URL with a nil error means the blob no longer exists.
type AttachmentResolver interface {
	URL(ctx context.Context, key string) (string, error)
}
