package groupsrepo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kgellert/hodatay-groups/internal/groups"
	"github.com/samber/lo"
)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

func (s *Repo) CreateGroup(ctx context.Context, g groups.Group) error {
	const op = "storage.groups.CreateGroup"

	_, err := s.db.NamedExecContext(
		ctx,
		`INSERT INTO "groups" (id, name, description, icon_url, created_at)
		VALUES (:id, :name, :description, :icon_url, :created_at)`,
		groups.NewRowFromGroup(g),
	)
	if err != nil {
		return fmt.Errorf("%s: insert group: %w", op, err)
	}

	return nil
}

func (s *Repo) ListGroups(ctx context.Context) ([]groups.Group, error) {
	const op = "storage.groups.ListGroups"

	rows := []groups.GroupRow{}
	err := s.db.SelectContext(
		ctx,
		&rows,
		`SELECT id, name, description, icon_url, created_at
		FROM "groups"
		ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	return lo.Map(rows, func(row groups.GroupRow, _ int) groups.Group {
		return groups.NewGroupFromRow(row)
	}), nil
}

// GetGroup returns nil when no row matches and groups.ErrGroupNotUnique when
// more than one does.
func (s *Repo) GetGroup(ctx context.Context, id string) (*groups.Group, error) {
	const op = "storage.groups.GetGroup"

	rows := []groups.GroupRow{}
	err := s.db.SelectContext(
		ctx,
		&rows,
		s.db.Rebind(`SELECT id, name, description, icon_url, created_at
		FROM "groups"
		WHERE id = ?
		LIMIT 2`),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		g := groups.NewGroupFromRow(rows[0])
		return &g, nil
	default:
		return nil, fmt.Errorf("%s: %s: %w", op, id, groups.ErrGroupNotUnique)
	}
}
