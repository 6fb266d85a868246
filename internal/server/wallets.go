package server

import (
	"net/http"
	"strings"

	"raffle-sync-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type registerWalletRequest struct {
	Address string `json:"address" validate:"required,eth_addr"`
}

type linkWalletRequest struct {
	UserId string `json:"user_id" validate:"required"`
}

type walletHistoryResponse struct {
	Wallet  *models.Wallet             `json:"wallet"`
	History []models.WagerHistoryEntry `json:"history"`
}

func (s *Server) registerWallet(w http.ResponseWriter, r *http.Request) {
	var req registerWalletRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "failed to decode request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	wallet, err := s.raffle.RegisterWallet(r.Context(), req.Address)
	if err != nil {
		respondErr(w, r, "register_wallet", err)
		return
	}
	respond(w, r, http.StatusCreated, wallet)
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	address, ok := s.addressParam(w, r)
	if !ok {
		return
	}

	wallet, err := s.raffle.GetWallet(r.Context(), address)
	if err != nil {
		respondErr(w, r, "get_wallet", err)
		return
	}
	respond(w, r, http.StatusOK, wallet)
}

func (s *Server) linkWallet(w http.ResponseWriter, r *http.Request) {
	address, ok := s.addressParam(w, r)
	if !ok {
		return
	}

	var req linkWalletRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "failed to decode request body")
		return
	}
	req.UserId = strings.TrimSpace(req.UserId)
	if err := s.validate.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	wallet, err := s.raffle.LinkWallet(r.Context(), address, req.UserId)
	if err != nil {
		respondErr(w, r, "link_wallet", err)
		return
	}
	s.invalidate()
	respond(w, r, http.StatusOK, wallet)
}

func (s *Server) getWalletHistory(w http.ResponseWriter, r *http.Request) {
	address, ok := s.addressParam(w, r)
	if !ok {
		return
	}

	value, err := s.cached("history:"+strings.ToLower(address), func() (any, error) {
		wallet, history, err := s.raffle.GetWalletHistory(r.Context(), address)
		if err != nil {
			return nil, err
		}
		if history == nil {
			history = []models.WagerHistoryEntry{}
		}
		return walletHistoryResponse{Wallet: wallet, History: history}, nil
	})
	if err != nil {
		respondErr(w, r, "wallet_history", err)
		return
	}
	respond(w, r, http.StatusOK, value)
}

func (s *Server) addressParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	address := chi.URLParam(r, "address")
	if err := s.validate.Var(address, "required,eth_addr"); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid wallet address")
		return "", false
	}
	return address, true
}
