package messagesservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kgellert/hodatay-groups/internal/groups"
	"github.com/kgellert/hodatay-groups/internal/lib/logger/sl"
	"github.com/kgellert/hodatay-groups/internal/messages"
	"github.com/kgellert/hodatay-groups/internal/ws"
	"golang.org/x/sync/errgroup"
)

const defaultResolveConcurrency = 8

type Options struct {
	// Groups, when set, is consulted before every insert and unknown group ids
	// are rejected with groups.ErrGroupNotFound.
	Groups             groups.Service
	ResolveConcurrency int
}

type service struct {
	repo      messages.Repo
	resolver  messages.AttachmentResolver
	publisher ws.Publisher
	log       *slog.Logger
	opts      Options
	now       func() time.Time
}

func New(
	repo messages.Repo,
	resolver messages.AttachmentResolver,
	publisher ws.Publisher,
	log *slog.Logger,
	opts Options,
) messages.Service {
	if opts.ResolveConcurrency <= 0 {
		opts.ResolveConcurrency = defaultResolveConcurrency
	}
	return &service{
		repo:      repo,
		resolver:  resolver,
		publisher: publisher,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

// SendMessage stores the message as given. Content is not validated.
func (s *service) SendMessage(ctx context.Context, p messages.SendParams) (messages.Message, error) {
	const op = "services.messages.SendMessage"

	if s.opts.Groups != nil {
		g, err := s.opts.Groups.GetGroup(ctx, p.GroupID)
		if err != nil {
			return messages.Message{}, fmt.Errorf("%s: check group: %w", op, err)
		}
		if g == nil {
			return messages.Message{}, fmt.Errorf("%s: %s: %w", op, p.GroupID, groups.ErrGroupNotFound)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return messages.Message{}, fmt.Errorf("%s: generate id: %w", op, err)
	}

	msg := messages.Message{
		ID:        id.String(),
		GroupID:   p.GroupID,
		User:      p.User,
		Content:   p.Content,
		File:      p.File,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return messages.Message{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.publisher.Publish(ctx, messages.Topic(p.GroupID)); err != nil {
		s.log.Warn("failed to publish message change",
			slog.String("op", op),
			slog.String("group_id", p.GroupID),
			sl.Err(err),
		)
	}

	return msg, nil
}

// ListMessages returns the group's messages with attachment keys replaced by
// URLs. A key that cannot be resolved is returned unchanged.
func (s *service) ListMessages(ctx context.Context, groupID string) ([]messages.Message, error) {
	const op = "services.messages.ListMessages"

	msgs, err := s.repo.ListMessages(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.ResolveConcurrency)

	for i := range msgs {
		if msgs[i].File == nil {
			continue
		}

		key := *msgs[i].File
		g.Go(func() error {
			url, err := s.resolver.URL(gctx, key)
			if err != nil {
				s.log.Warn("failed to resolve attachment",
					slog.String("op", op),
					slog.String("file", key),
					sl.Err(err),
				)
				return nil
			}
			if url == "" {
				s.log.Debug("attachment no longer stored",
					slog.String("op", op),
					slog.String("file", key),
				)
				return nil
			}
			msgs[i].File = &url
			return nil
		})
	}

	_ = g.Wait()

	return msgs, nil
}
