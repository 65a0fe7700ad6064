//go:generate go run go.uber.org/mock/mockgen -source=service.go -destination=../mocks/mock_message_sender.go -package=mocks
package uploadsservice

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/kgellert/hodatay-groups/internal/lib/logger/sl"
	"github.com/kgellert/hodatay-groups/internal/messages"
	uploadsdomain "github.com/kgellert/hodatay-groups/internal/uploads/domain"
)

type MessageSender interface {
	SendMessage(ctx context.Context, p messages.SendParams) (messages.Message, error)
}

type Options struct {
	// CompensateOrphans deletes the stored blob when the message insert fails.
	CompensateOrphans bool
}

type Service struct {
	store  uploadsdomain.BlobStore
	sender MessageSender
	log    *slog.Logger
	opts   Options
}

func New(store uploadsdomain.BlobStore, sender MessageSender, log *slog.Logger, opts Options) *Service {
	return &Service{store: store, sender: sender, log: log, opts: opts}
}

// SendImage stores body as a blob and then inserts a message referencing it.
// The two steps are not atomic: unless CompensateOrphans is set, a failed
// insert leaves the blob stored and unreferenced.
func (s *Service) SendImage(ctx context.Context, p uploadsdomain.SendImageParams, body []byte) (messages.Message, error) {
	const op = "services.uploads.SendImage"

	log := s.log.With(
		slog.String("op", op),
		slog.String("group_id", p.GroupID),
	)

	key, err := s.store.Put(ctx, bytes.NewReader(body), int64(len(body)), p.ContentType)
	if err != nil {
		return messages.Message{}, fmt.Errorf("%s: store blob: %w", op, err)
	}

	log.Debug("blob stored", slog.String("file", key), slog.Int("size", len(body)))

	msg, err := s.sender.SendMessage(ctx, messages.SendParams{
		GroupID: p.GroupID,
		User:    p.User,
		Content: p.Content,
		File:    &key,
	})
	if err != nil {
		s.handleOrphan(ctx, log, key)
		return messages.Message{}, fmt.Errorf("%s: send message: %w", op, err)
	}

	return msg, nil
}

func (s *Service) handleOrphan(ctx context.Context, log *slog.Logger, key string) {
	if !s.opts.CompensateOrphans {
		log.Warn("message insert failed, blob left unreferenced", slog.String("file", key))
		return
	}

	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		log.Error("failed to delete orphaned blob", slog.String("file", key), sl.Err(err))
		return
	}

	log.Info("orphaned blob deleted", slog.String("file", key))
}
