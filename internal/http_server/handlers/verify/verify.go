package verify

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
)

type Response struct {
	resp.Response
}

type AccountVerifier interface {
	VerifyEmail(ctx context.Context, email, token string) error
}

func New(
	log *slog.Logger,
	verifier AccountVerifier,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		email := r.URL.Query().Get("email")
		token := r.URL.Query().Get("token")

		if email == "" || token == "" {
			log.Warn("missing email or token")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("missing email or token"))

			return
		}

		if err := verifier.VerifyEmail(r.Context(), email, token); err != nil {
			if errors.Is(err, auth.ErrAccountNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("account not found"))

				return
			}

			if errors.Is(err, auth.ErrInvalidToken) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("invalid or expired token"))

				return
			}

			log.Error("failed to verify email", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("email verified successfully")

		render.JSON(w, r, Response{
			Response: resp.OK(),
		})
	}
}
