package groups

import (
	"context"
	"time"

	response "github.com/kgellert/hodatay-groups/internal/lib/api/response"
)

// Topic is the live-query topic published after every committed group insert.
const Topic = "groups"

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IconURL     string    `json:"icon_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type GroupRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	IconURL     string `db:"icon_url"`
	CreatedAt   int64  `db:"created_at"`
}

func NewGroupFromRow(row GroupRow) Group {
	return Group{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		IconURL:     row.IconURL,
		CreatedAt:   time.Unix(0, row.CreatedAt).UTC(),
	}
}

func NewRowFromGroup(g Group) GroupRow {
	return GroupRow{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		IconURL:     g.IconURL,
		CreatedAt:   g.CreatedAt.UnixNano(),
	}
}

// CreateGroupRequest fields must be present but may be empty.
type CreateGroupRequest struct {
	Name        *string `json:"name" validate:"required"`
	Description *string `json:"description" validate:"required"`
	IconURL     *string `json:"icon_url" validate:"required"`
}

type CreateGroupParams struct {
	Name        string
	Description string
	IconURL     string
}

type GetGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type CreateGroupResponse struct {
	response.Response
}

type Repo interface {
	ListGroups(ctx context.Context) ([]Group, error)
	GetGroup(ctx context.Context, id string) (*Group, error)
	CreateGroup(ctx context.Context, g Group) error
}

type Service interface {
	ListGroups(ctx context.Context) ([]Group, error)
	GetGroup(ctx context.Context, id string) (*Group, error)
	CreateGroup(ctx context.Context, p CreateGroupParams) (Group, error)
}
