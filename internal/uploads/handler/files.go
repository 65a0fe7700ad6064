package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kgellert/hodatay-groups/internal/lib/logger/sl"
	"github.com/kgellert/hodatay-groups/internal/transport/httpapi"
)

// GetFile streams a stored blob. Mounted on /files/*.
func (h *UploadsHandler) GetFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.uploads.GetFile"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		key := chi.URLParam(r, "*")

		body, contentType, err := h.store.Open(r.Context(), key)
		if err != nil {
			log.Warn("failed to open file", slog.String("file", key), sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, body); err != nil {
			log.Warn("failed to stream file", slog.String("file", key), sl.Err(err))
		}
	}
}
