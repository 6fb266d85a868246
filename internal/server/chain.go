package server

import (
	"net/http"

	"raffle-sync-go/internal/chain"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"
)

type classifyRequest struct {
	Message string `json:"message" validate:"required_without=Data"`
	Data    string `json:"data" validate:"omitempty,hexadecimal"`
}

func (s *Server) preflight(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	address := query.Get("address")
	if err := s.validate.Var(address, "required,eth_addr"); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid wallet address")
		return
	}

	amount := decimal.Zero
	if raw := query.Get("amount"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			respondError(w, r, http.StatusBadRequest, "invalid amount")
			return
		}
		amount = parsed
	}

	result, err := s.raffle.Preflight(r.Context(), address, amount)
	if err != nil {
		respondErr(w, r, "preflight", err)
		return
	}
	respond(w, r, http.StatusOK, result)
}

func (s *Server) classifyTxError(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "failed to decode request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	respond(w, r, http.StatusOK, chain.ClassifyRevert(req.Message, req.Data))
}
