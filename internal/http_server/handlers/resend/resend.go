package resend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"curve_service/internal/auth"
	resp "curve_service/internal/lib/api/response"
	sl "curve_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type Response struct {
	resp.Response
}

type VerificationResender interface {
	ResendVerification(ctx context.Context, email string) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	resender VerificationResender,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resend.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Warn("invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		if err := resender.ResendVerification(r.Context(), req.Email); err != nil {
			if errors.Is(err, auth.ErrAccountNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("account not found"))

				return
			}

			if errors.Is(err, auth.ErrAlreadyVerified) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("account already verified"))

				return
			}

			if errors.Is(err, auth.ErrNotificationFailed) {
				log.Error("failed to send verification email", sl.Err(err))

				render.Status(r, http.StatusBadGateway)
				render.JSON(w, r, resp.Error("failed to send verification email, please retry"))

				return
			}

			log.Error("failed to resend verification", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("verification email resent")

		render.JSON(w, r, Response{
			Response: resp.OK(),
		})
	}
}
