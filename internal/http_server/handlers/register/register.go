package register

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
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type Response struct {
	resp.Response
	AccountID uuid.UUID `json:"account_id"`
}

type AccountRegistrar interface {
	Register(ctx context.Context, email, password string) (uuid.UUID, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	registrar AccountRegistrar,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

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

		accountID, err := registrar.Register(ctx, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrAccountExists) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("account with this email already exists"))

				return
			}

			// The account is persisted; only delivery failed and the
			// caller may ask for the notification again.
			if errors.Is(err, auth.ErrNotificationFailed) {
				log.Error("failed to dispatch verification notification", sl.Err(err))

				render.Status(r, http.StatusBadGateway)
				render.JSON(w, r, resp.Error("failed to send verification email, please retry"))

				return
			}

			log.Error("failed to register account", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("account registered", slog.String("account_id", accountID.String()))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response:  resp.OK(),
			AccountID: accountID,
		})
	}
}
