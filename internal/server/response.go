package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"raffle-sync-go/internal/api"
	"raffle-sync-go/internal/store"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Response struct {
	Status int    `json:"status"`
	Error  string `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, payload any) {
	render.Status(r, status)
	render.JSON(w, r, payload)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respond(w, r, status, Response{Status: status, Error: msg})
}

// respondErr maps service errors onto HTTP statuses
func respondErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("op", op),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	respondError(w, r, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrRoundNotFound), errors.Is(err, store.ErrWalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateWager), errors.Is(err, store.ErrWalletLinked):
		return http.StatusConflict
	case errors.Is(err, api.ErrInvalidRoundId):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}

	var msgs []string
	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", e.Field()))
		case "eth_addr":
			msgs = append(msgs, fmt.Sprintf("field %s must be a hex address", e.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}
