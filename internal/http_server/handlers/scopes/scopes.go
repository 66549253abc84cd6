package scopes

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

type Request struct {
	Name string `json:"name" validate:"required,max=150"`
}

type Response struct {
	resp.Response
	Scope *models.Scope `json:"scope,omitempty"`
}

type ListResponse struct {
	resp.Response
	Scopes []models.Scope `json:"scopes"`
}

type ScopeStorage interface {
	SaveScope(ctx context.Context, scope models.Scope) error
	ScopesByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Scope, error)
	Scope(ctx context.Context, id uuid.UUID) (models.Scope, error)
	UpdateScopeName(ctx context.Context, id uuid.UUID, name string) error
	DeleteScope(ctx context.Context, id uuid.UUID) error
}

func NewList(log *slog.Logger, scopeStorage ScopeStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scopes.NewList"

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

		scopes, err := scopeStorage.ScopesByOwner(r.Context(), accountID)
		if err != nil {
			log.Error("failed to list scopes", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Scopes:   scopes,
		})
	}
}

func NewCreate(log *slog.Logger, validate *validator.Validate, scopeStorage ScopeStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scopes.NewCreate"

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

		var req Request

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

		scope := models.Scope{
			ID:        uuid.New(),
			OwnerID:   accountID,
			Name:      req.Name,
			CreatedAt: time.Now(),
		}

		if err := scopeStorage.SaveScope(r.Context(), scope); err != nil {
			log.Error("failed to save scope", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("scope created", slog.String("scope_id", scope.ID.String()))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK(),
			Scope:    &scope,
		})
	}
}

func NewGet(log *slog.Logger, scopeStorage ScopeStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scopes.NewGet"

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

		scope, err := scopeStorage.Scope(r.Context(), scopeID)
		if err != nil {
			if errors.Is(err, storage.ErrScopeNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("not found"))

				return
			}

			log.Error("failed to get scope", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Scope:    &scope,
		})
	}
}

func NewUpdate(log *slog.Logger, validate *validator.Validate, scopeStorage ScopeStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scopes.NewUpdate"

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

		var req Request

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

		if err := scopeStorage.UpdateScopeName(r.Context(), scopeID, req.Name); err != nil {
			if errors.Is(err, storage.ErrScopeNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("not found"))

				return
			}

			log.Error("failed to update scope", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, resp.OK())
	}
}

func NewDelete(log *slog.Logger, scopeStorage ScopeStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.scopes.NewDelete"

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

		if err := scopeStorage.DeleteScope(r.Context(), scopeID); err != nil {
			if errors.Is(err, storage.ErrScopeNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("not found"))

				return
			}

			log.Error("failed to delete scope", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("scope deleted", slog.String("scope_id", scopeID.String()))

		render.JSON(w, r, resp.OK())
	}
}
