package groupshandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/kgellert/hodatay-groups/internal/groups"
	response "github.com/kgellert/hodatay-groups/internal/lib/api/response"
	"github.com/kgellert/hodatay-groups/internal/lib/logger/sl"
	"github.com/kgellert/hodatay-groups/internal/transport/httpapi"
)

type Handler struct {
	service groups.Service
	log     *slog.Logger
}

func New(
	service groups.Service,
	log *slog.Logger,
) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) GetGroups() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.groups.GetGroups"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		gs, err := h.service.ListGroups(r.Context())
		if err != nil {
			log.Error("failed to get groups", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		log.Debug("groups fetched", slog.Int("count", len(gs)))

		render.JSON(w, r, groups.GetGroupsResponse{
			Groups: gs,
		})
	}
}

func (h *Handler) GetGroup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.groups.GetGroup"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		groupID := chi.URLParam(r, "groupId")

		g, err := h.service.GetGroup(r.Context(), groupID)
		if err != nil {
			log.Error("failed to get group", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, groups.GetGroupResponse{
			Group: g,
		})
	}
}

func (h *Handler) CreateGroup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.groups.CreateGroup"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req groups.CreateGroupRequest
		if err := httpapi.DecodeJSON(r.Body, &req); err != nil {
			log.Warn("invalid body", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		g, err := h.service.CreateGroup(r.Context(), groups.CreateGroupParams{
			Name:        *req.Name,
			Description: *req.Description,
			IconURL:     *req.IconURL,
		})
		if err != nil {
			log.Error("failed to create group", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		log.Info("group created", slog.String("group_id", g.ID))

		render.JSON(w, r, groups.CreateGroupResponse{
			Response: response.OK(),
		})
	}
}
