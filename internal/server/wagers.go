package server

import (
	"net/http"

	"raffle-sync-go/internal/models"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"
)

type wagerRequest struct {
	Address string          `json:"address" validate:"required,eth_addr"`
	RoundId *uint64         `json:"round_id" validate:"required"`
	Amount  decimal.Decimal `json:"amount"`
	TxHash  string          `json:"tx_hash" validate:"omitempty,startswith=0x,len=66,hexadecimal"`
}

type entryRequest struct {
	wagerRequest
	PrizeAmount decimal.Decimal `json:"prize_amount"`
}

func (s *Server) recordWager(w http.ResponseWriter, r *http.Request) {
	var req wagerRequest
	if !s.decodeWager(w, r, &req, &req) {
		return
	}

	wager, err := s.raffle.RecordWager(r.Context(), req.Address, *req.RoundId, req.Amount, req.TxHash)
	if err != nil {
		respondErr(w, r, "record_wager", err)
		return
	}
	s.invalidate()
	respond(w, r, http.StatusCreated, wager)
}

func (s *Server) recordEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if !s.decodeWager(w, r, &req, &req.wagerRequest) {
		return
	}

	result, err := s.raffle.RecordConfirmedEntry(r.Context(), models.EntryConfirmation{
		WalletAddress: req.Address,
		RoundId:       *req.RoundId,
		Amount:        req.Amount,
		PrizeAmount:   req.PrizeAmount,
		TxHash:        req.TxHash,
	})
	if err != nil {
		respondErr(w, r, "record_entry", err)
		return
	}

	switch {
	case result.Success:
		s.invalidate()
		respond(w, r, http.StatusCreated, result)
	case result.Duplicate:
		respond(w, r, http.StatusConflict, result)
	default:
		respond(w, r, http.StatusUnprocessableEntity, result)
	}
}

// decodeWager decodes body into dst and validates the embedded wager fields
func (s *Server) decodeWager(w http.ResponseWriter, r *http.Request, dst any, wager *wagerRequest) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "failed to decode request body")
		return false
	}
	if err := s.validate.Struct(wager); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return false
	}
	if !wager.Amount.IsPositive() {
		respondError(w, r, http.StatusBadRequest, "field Amount must be positive")
		return false
	}
	return true
}
