package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"curve_service/internal/auth"
	resp "curve_service/internal/lib/api/response"
	sl "curve_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	AccountID   uuid.UUID  `json:"account_id,omitempty"`
	Token       string     `json:"token,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

type AccountAuthenticator interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authenticator AccountAuthenticator,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Warn("invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := authenticator.Login(ctx, req.Email, req.Password)
		if err != nil {
			// Unknown account and wrong password answer identically.
			if errors.Is(err, auth.ErrInvalidCredentials) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("invalid email or password"))

				return
			}

			var lockedErr *auth.LockedError
			if errors.As(err, &lockedErr) {
				render.Status(r, http.StatusLocked)
				render.JSON(w, r, Response{
					Response:    resp.Error("account is temporarily locked due to too many failed login attempts"),
					LockedUntil: &lockedErr.Until,
				})

				return
			}

			if errors.Is(err, auth.ErrAccountNotVerified) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("account is not verified"))

				return
			}

			log.Error("failed to login", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("login successful")

		render.JSON(w, r, Response{
			Response:  resp.OK(),
			AccountID: result.AccountID,
			Token:     result.Token,
			ExpiresAt: &result.ExpiresAt,
		})
	}
}
