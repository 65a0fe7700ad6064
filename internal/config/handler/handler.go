package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/kgellert/hodatay-groups/internal/config"
	uploadsdomain "github.com/kgellert/hodatay-groups/internal/uploads/domain"
)

func New(config config.Config, logger *slog.Logger) *Handler {
	return &Handler{config, logger}
}

type publicConfig struct {
	Messages          config.MessagesConfig `json:"messages"`
	Uploads           config.UploadsConfig  `json:"uploads"`
	AllowedImageTypes []string              `json:"allowed_image_types"`
}

type appConfigResponse struct {
	Config publicConfig `json:"config"`
}

type Handler struct {
	Config config.Config
	log    *slog.Logger
}

func (h *Handler) GetConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.config.GetConfig"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		log.Debug("config requested")

		render.JSON(w, r, appConfigResponse{
			Config: publicConfig{
				Messages:          h.Config.Messages,
				Uploads:           h.Config.Uploads,
				AllowedImageTypes: uploadsdomain.AllowedContentTypes(),
			},
		})
	}
}
