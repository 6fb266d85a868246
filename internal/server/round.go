package server

import (
	"net/http"

	"github.com/go-chi/render"
)

type sessionWalletRequest struct {
	Address string `json:"address" validate:"omitempty,eth_addr"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.raffle.HealthCheck(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getRoundView(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		respondError(w, r, http.StatusServiceUnavailable, "round reconciler is not running")
		return
	}
	respond(w, r, http.StatusOK, s.session.View())
}

func (s *Server) setSessionWallet(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		respondError(w, r, http.StatusServiceUnavailable, "round reconciler is not running")
		return
	}

	var req sessionWalletRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "failed to decode request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	view, err := s.session.SetWallet(r.Context(), req.Address)
	if err != nil {
		respondErr(w, r, "set_session_wallet", err)
		return
	}
	respond(w, r, http.StatusOK, view)
}

func (s *Server) dismissWinner(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		respondError(w, r, http.StatusServiceUnavailable, "round reconciler is not running")
		return
	}

	view, err := s.session.DismissWinner(r.Context())
	if err != nil {
		respondErr(w, r, "dismiss_winner", err)
		return
	}
	respond(w, r, http.StatusOK, view)
}
