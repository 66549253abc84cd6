package repetitions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "curve_service/internal/lib/api/response"
	sl "curve_service/internal/lib/logger"
	"curve_service/internal/models"
	"curve_service/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Scheduled dates come from the caller; no schedule is computed here.
type CreateRequest struct {
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	IntervalDays  *int32    `json:"interval_days,omitempty" validate:"omitempty,min=1"`
}

type UpdateRequest struct {
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	IntervalDays  *int32    `json:"interval_days,omitempty" validate:"omitempty,min=1"`
}

type CompleteRequest struct {
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}

type Response struct {
	resp.Response
	Repetition *models.Repetition `json:"repetition,omitempty"`
}

type ListResponse struct {
	resp.Response
	Repetitions []models.Repetition `json:"repetitions"`
}

type RepetitionStorage interface {
	SaveRepetition(ctx context.Context, rep models.Repetition) error
	RepetitionsByTopic(ctx context.Context, topicID uuid.UUID) ([]models.Repetition, error)
	UpdateRepetition(ctx context.Context, id uuid.UUID, scheduledDate time.Time, intervalDays *int32) error
	CompleteRepetition(ctx context.Context, id uuid.UUID, completedDate time.Time) error
	DeleteRepetition(ctx context.Context, id uuid.UUID) error
}

func NewList(log *slog.Logger, repStorage RepetitionStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.repetitions.NewList"

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

		reps, err := repStorage.RepetitionsByTopic(r.Context(), topicID)
		if err != nil {
			log.Error("failed to list repetitions", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response:    resp.OK(),
			Repetitions: reps,
		})
	}
}

func NewCreate(log *slog.Logger, validate *validator.Validate, repStorage RepetitionStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.repetitions.NewCreate"

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

		rep := models.Repetition{
			ID:            uuid.New(),
			TopicID:       topicID,
			ScheduledDate: req.ScheduledDate,
			IntervalDays:  req.IntervalDays,
		}

		if err := repStorage.SaveRepetition(r.Context(), rep); err != nil {
			log.Error("failed to save repetition", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("repetition created", slog.String("repetition_id", rep.ID.String()))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response:   resp.OK(),
			Repetition: &rep,
		})
	}
}

func NewUpdate(log *slog.Logger, validate *validator.Validate, repStorage RepetitionStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.repetitions.NewUpdate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		repetitionID, err := uuid.Parse(chi.URLParam(r, "repetitionID"))
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

		err = repStorage.UpdateRepetition(r.Context(), repetitionID, req.ScheduledDate, req.IntervalDays)
		if err != nil {
			if errors.Is(err, storage.ErrRepetitionNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("not found"))

				return
			}

			log.Error("failed to update repetition", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, resp.OK())
	}
}

func NewComplete(log *slog.Logger, repStorage RepetitionStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.repetitions.NewComplete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		repetitionID, err := uuid.Parse(chi.URLParam(r, "repetitionID"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("malformed resource id"))

			return
		}

		var req CompleteRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		completedDate := time.Now()
		if req.CompletedDate != nil {
			completedDate = *req.CompletedDate
		}

		if err := repStorage.CompleteRepetition(r.Context(), repetitionID, completedDate); err != nil {
			if errors.Is(err, storage.ErrRepetitionNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("not found"))

				return
			}

			log.Error("failed to complete repetition", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, resp.OK())
	}
}

func NewDelete(log *slog.Logger, repStorage RepetitionStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.repetitions.NewDelete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		repetitionID, err := uuid.Parse(chi.URLParam(r, "repetitionID"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("malformed resource id"))

			return
		}

		if err := repStorage.DeleteRepetition(r.Context(), repetitionID); err != nil {
			if errors.Is(err, storage.ErrRepetitionNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("not found"))

				return
			}

			log.Error("failed to delete repetition", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("repetition deleted", slog.String("repetition_id", repetitionID.String()))

		render.JSON(w, r, resp.OK())
	}
}
