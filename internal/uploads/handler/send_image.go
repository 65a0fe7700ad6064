package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	response "github.com/kgellert/hodatay-groups/internal/lib/api/response"
	"github.com/kgellert/hodatay-groups/internal/lib/logger/sl"
	"github.com/kgellert/hodatay-groups/internal/transport/httpapi"
	"github.com/kgellert/hodatay-groups/internal/uploads"
	uploadsdomain "github.com/kgellert/hodatay-groups/internal/uploads/domain"
	uploadsservice "github.com/kgellert/hodatay-groups/internal/uploads/service"
)

type UploadsHandler struct {
	service      *uploadsservice.Service
	store        uploadsdomain.BlobStore
	maxImageSize int64
	log          *slog.Logger
}

func New(
	service *uploadsservice.Service,
	store uploadsdomain.BlobStore,
	maxImageSize int64,
	log *slog.Logger,
) *UploadsHandler {
	return &UploadsHandler{
		service:      service,
		store:        store,
		maxImageSize: maxImageSize,
		log:          log,
	}
}

func (h *UploadsHandler) SendImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.uploads.SendImage"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q := r.URL.Query()
		req := uploadsdomain.SendImageRequest{
			User:    queryParam(q, "user"),
			GroupID: queryParam(q, "group_id"),
			Content: queryParam(q, "content"),
		}
		if err := httpapi.Validate(req); err != nil {
			log.Warn("invalid query", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		body, err := h.readBody(w, r)
		if err != nil {
			log.Warn("failed to read body", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		contentType, err := uploadsdomain.DetectContentType(r.Header.Get("Content-Type"), body)
		if err != nil {
			log.Warn("invalid content type", slog.String("content_type", r.Header.Get("Content-Type")))
			httpapi.WriteError(w, r, err)
			return
		}

		msg, err := h.service.SendImage(r.Context(), uploadsdomain.SendImageParams{
			User:        *req.User,
			GroupID:     *req.GroupID,
			Content:     *req.Content,
			ContentType: contentType,
			Size:        int64(len(body)),
		}, body)
		if err != nil {
			log.Error("failed to send image", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		log.Info("image message sent", slog.String("message_id", msg.ID))

		render.JSON(w, r, uploadsdomain.SendImageResponse{
			Response: response.OK(),
		})
	}
}

func (h *UploadsHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	reader := io.Reader(r.Body)
	if h.maxImageSize > 0 {
		reader = http.MaxBytesReader(w, r.Body, h.maxImageSize)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: limit %d bytes", uploads.ErrPayloadTooLarge, maxErr.Limit)
		}
		return nil, err
	}

	if len(body) == 0 {
		return nil, uploads.ErrEmptyBody
	}

	return body, nil
}

func queryParam(q url.Values, name string) *string {
	if !q.Has(name) {
		return nil
	}
	v := q.Get(name)
	return &v
}
