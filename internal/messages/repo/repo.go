package messagesrepo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kgellert/hodatay-groups/internal/messages"
	"github.com/samber/lo"
)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

func (s *Repo) InsertMessage(ctx context.Context, m messages.Message) error {
	const op = "storage.messages.InsertMessage"

	_, err := s.db.NamedExecContext(
		ctx,
		`INSERT INTO messages (id, group_id, user_name, content, file, created_at)
		VALUES (:id, :group_id, :user_name, :content, :file, :created_at)`,
		messages.NewRowFromMessage(m),
	)
	if err != nil {
		return fmt.Errorf("%s: insert message: %w", op, err)
	}

	return nil
}

// ListMessages returns the group's messages in insertion order.
func (s *Repo) ListMessages(ctx context.Context, groupID string) ([]messages.Message, error) {
	const op = "storage.messages.ListMessages"

	rows := []messages.MessageRow{}
	err := s.db.SelectContext(
		ctx,
		&rows,
		s.db.Rebind(`SELECT id, group_id, user_name, content, file, created_at
		FROM messages
		WHERE group_id = ?
		ORDER BY created_at, id`),
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	return lo.Map(rows, func(row messages.MessageRow, _ int) messages.Message {
		return messages.NewMessageFromRow(row)
	}), nil
}

// FileReferenced reports whether any message points at the attachment key.
// It is kept off the Repo interface and used for orphan audits of the blob
// store, where ingress can leave a blob behind without a message.
func (s *Repo) FileReferenced(ctx context.Context, key string) (bool, error) {
	const op = "storage.messages.FileReferenced"

	var count int
	err := s.db.GetContext(
		ctx,
		&count,
		s.db.Rebind(`SELECT COUNT(*) FROM messages WHERE file = ?`),
		key,
	)
	if err != nil {
		return false, fmt.Errorf("%s: count: %w", op, err)
	}

	return count > 0, nil
}
