package topics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "curve_service/internal/lib/api/response"
	sl "curve_service/internal/lib/logger"
	"curve_service/internal/http_server/middleware/authn"
	"curve_service/internal/models"
	"curve_service/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CreateRequest struct {
	Name      string    `json:"name" validate:"required,max=150"`
	StartDate time.Time `json:"start_date" validate:"required"`
	Notes     *string   `json:"notes,omitempty"`
}

type UpdateRequest struct {
	Name  string  `json:"name" validate:"required,max=150"`
	Notes *string `json:"notes,omitempty"`
}

type MasteredRequest struct {
	IsMastered bool `json:"is_mastered"`
}

type Response struct {
	resp.Response
	Topic *models.Topic `json:"topic,omitempty"`
}

type ListResponse struct {
	resp.Response
	Topics []models.Topic `json:"topics"`
}

type TopicStorage interface {
	SaveTopic(ctx context.Context, topic models.Topic) error
	TopicsByScope(ctx context.Context, scopeID uuid.UUID) ([]models.Topic, error)
	Topic(ctx context.Context, id uuid.UUID) (models.Topic, error)
	UpdateTopic(ctx context.Context, id uuid.UUID, name string, notes *string) error
	SetTopicMastered(ctx context.Context, id uuid.UUID, mastered bool) error
	DeleteTopic(ctx context.Context, id uuid.UUID) error
}

func NewList(log *slog.Logger, topicStorage TopicStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.topics.NewList"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		scopeID, err := uuid.Parse(chi.URLParam(r, "scopeID"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("malformed resource id"))

			return
		}

		topics, err := topicStorage.TopicsByScope(r.Context(), scopeID)
		if err != nil {
			log.Error("failed to list topics", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Topics:   topics,
		})
	}
}

func NewCreate(log *slog.Logger, validate *validator.Validate, topicStorage TopicStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.topics.NewCreate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		accountID, ok := authn.AccountID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("missing credentials"))

			return
		}

		scopeID, err := uuid.Parse(chi.URLParam(r, "scopeID"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("malformed resource id"))

			return
		}

		var req CreateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		topic := models.Topic{
			ID:        uuid.New(),
			ScopeID:   scopeID,
			OwnerID:   accountID,
			Name:      req.Name,
			StartDate: req.StartDate,
			Notes:     req.Notes,
			CreatedAt: time.Now(),
		}

		if err := topicStorage.SaveTopic(r.Context(), topic); err != nil {
			log.Error("failed to save topic", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("topic created", slog.String("topic_id", topic.ID.String()))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK(),
			Topic:    &topic,
		})
	}
}

func NewGet(log *slog.Logger, topicStorage TopicStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.topics.NewGet"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		topicID, err := uuid.Parse(chi.URLParam(r, "topicID"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("malformed resource id"))

			return
		}

		topic, err := topicStorage.Topic(r.Context(), topicID)
		if err != nil {
			if errors.Is(err, storage.ErrTopicNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("not found"))

				return
			}

			log.Error("failed to get topic", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Topic:    &topic,
		})
	}
}

func NewUpdate(log *slog.Logger, validate *validator.Validate, topicStorage TopicStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.topics.NewUpdate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		topicID, err := uuid.Parse(chi.URLParam(r, "topicID"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("malformed resource id"))

			return
		}

		var req UpdateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		if err := topicStorage.UpdateTopic(r.Context(), topicID, req.Name, req.Notes); err != nil {
			if errors.Is(err, storage.ErrTopicNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("not found"))

				return
			}

			log.Error("failed to update topic", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, resp.OK())
	}
}

func NewMastered(log *slog.Logger, topicStorage TopicStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.topics.NewMastered"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		topicID, err := uuid.Parse(chi.URLParam(r, "topicID"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("malformed resource id"))

			return
		}

		var req MasteredRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		if err := topicStorage.SetTopicMastered(r.Context(), topicID, req.IsMastered); err != nil {
			if errors.Is(err, storage.ErrTopicNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("not found"))

				return
			}

			log.Error("failed to update topic mastered flag", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, resp.OK())
	}
}

func NewDelete(log *slog.Logger, topicStorage TopicStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.topics.NewDelete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		topicID, err := uuid.Parse(chi.URLParam(r, "topicID"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("malformed resource id"))

			return
		}

		if err := topicStorage.DeleteTopic(r.Context(), topicID); err != nil {
			if errors.Is(err, storage.ErrTopicNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("not found"))

				return
			}

			log.Error("failed to delete topic", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("topic deleted", slog.String("topic_id", topicID.String()))

		render.JSON(w, r, resp.OK())
	}
}
