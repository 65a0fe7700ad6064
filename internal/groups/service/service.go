package groupsservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kgellert/hodatay-groups/internal/groups"
	"github.com/kgellert/hodatay-groups/internal/lib/logger/sl"
	"github.com/kgellert/hodatay-groups/internal/ws"
)

type service struct {
	repo      groups.Repo
	publisher ws.Publisher
	log       *slog.Logger
	now       func() time.Time
}

func New(repo groups.Repo, publisher ws.Publisher, log *slog.Logger) groups.Service {
	return &service{repo: repo, publisher: publisher, log: log, now: time.Now}
}

func (s *service) ListGroups(ctx context.Context) ([]groups.Group, error) {
	return s.repo.ListGroups(ctx)
}

// GetGroup returns nil for unknown, malformed, or duplicated ids.
func (s *service) GetGroup(ctx context.Context, id string) (*groups.Group, error) {
	const op = "services.groups.GetGroup"

	if err := uuid.Validate(id); err != nil {
		return nil, nil
	}

	g, err := s.repo.GetGroup(ctx, id)
	if errors.Is(err, groups.ErrGroupNotUnique) {
		s.log.Warn("duplicate group id, returning empty result",
			slog.String("op", op),
			slog.String("group_id", id),
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return g, nil
}

func (s *service) CreateGroup(ctx context.Context, p groups.CreateGroupParams) (groups.Group, error) {
	const op = "services.groups.CreateGroup"

	id, err := uuid.NewV7()
	if err != nil {
		return groups.Group{}, fmt.Errorf("%s: generate id: %w", op, err)
	}

	g := groups.Group{
		ID:          id.String(),
		Name:        p.Name,
		Description: p.Description,
		IconURL:     p.IconURL,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.CreateGroup(ctx, g); err != nil {
		return groups.Group{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.publisher.Publish(ctx, groups.Topic); err != nil {
		s.log.Warn("failed to publish group change", slog.String("op", op), sl.Err(err))
	}

	return g, nil
}
