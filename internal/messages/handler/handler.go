package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	response "github.com/kgellert/hodatay-groups/internal/lib/api/response"
	"github.com/kgellert/hodatay-groups/internal/lib/logger/sl"
	"github.com/kgellert/hodatay-groups/internal/messages"
	"github.com/kgellert/hodatay-groups/internal/transport/httpapi"
)

type Handler struct {
	service messages.Service
	log     *slog.Logger
}

func New(
	service messages.Service,
	log *slog.Logger,
) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) GetMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.messages.GetMessages"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		groupID := chi.URLParam(r, "groupId")

		msgs, err := h.service.ListMessages(r.Context(), groupID)
		if err != nil {
			log.Error("failed to get messages", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, messages.GetMessagesResponse{
			Messages: msgs,
		})
	}
}

func (h *Handler) SendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.messages.SendMessage"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		groupID := chi.URLParam(r, "groupId")

		var req messages.SendMessageRequest
		if err := httpapi.DecodeJSON(r.Body, &req); err != nil {
			log.Warn("invalid body", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		msg, err := h.service.SendMessage(r.Context(), messages.SendParams{
			GroupID: groupID,
			User:    *req.User,
			Content: *req.Content,
			File:    req.File,
		})
		if err != nil {
			log.Error("failed to send message", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		log.Debug("message sent", slog.String("message_id", msg.ID), slog.String("group_id", groupID))

		render.JSON(w, r, messages.SendMessageResponse{
			Response: response.OK(),
		})
	}
}
