package server

import (
	"net/http"
	"strconv"

	"raffle-sync-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"
)

type createRoundRequest struct {
	RoundId     *uint64         `json:"round_id" validate:"required"`
	PrizeAmount decimal.Decimal `json:"prize_amount"`
}

type topWagersResponse struct {
	RoundId uint64            `json:"round_id"`
	Wagers  []models.TopWager `json:"wagers"`
}

func (s *Server) listRounds(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rounds, err := s.raffle.ListRounds(r.Context(), limit, offset)
	if err != nil {
		respondErr(w, r, "list_rounds", err)
		return
	}
	if rounds == nil {
		rounds = []models.RaffleRound{}
	}
	respond(w, r, http.StatusOK, rounds)
}

func (s *Server) getRound(w http.ResponseWriter, r *http.Request) {
	roundId, err := s.raffle.ResolveRoundId(r.Context(), chi.URLParam(r, "roundId"))
	if err != nil {
		respondErr(w, r, "get_round", err)
		return
	}

	round, err := s.raffle.GetRound(r.Context(), roundId)
	if err != nil {
		respondErr(w, r, "get_round", err)
		return
	}
	respond(w, r, http.StatusOK, round)
}

func (s *Server) getTopWagers(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "roundId")

	value, err := s.cached("top:"+ref, func() (any, error) {
		roundId, top, err := s.raffle.GetTopWagers(r.Context(), ref)
		if err != nil {
			return nil, err
		}
		if top == nil {
			top = []models.TopWager{}
		}
		return topWagersResponse{RoundId: roundId, Wagers: top}, nil
	})
	if err != nil {
		respondErr(w, r, "top_wagers", err)
		return
	}
	respond(w, r, http.StatusOK, value)
}

func (s *Server) createRound(w http.ResponseWriter, r *http.Request) {
	var req createRoundRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "failed to decode request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}
	if req.PrizeAmount.IsNegative() {
		respondError(w, r, http.StatusBadRequest, "field PrizeAmount cannot be negative")
		return
	}

	round, err := s.raffle.CreateRound(r.Context(), *req.RoundId, req.PrizeAmount)
	if err != nil {
		respondErr(w, r, "create_round", err)
		return
	}
	s.invalidate()
	respond(w, r, http.StatusCreated, round)
}

func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, &queryError{key: key, value: raw}
	}
	return value, nil
}

type queryError struct {
	key   string
	value string
}

func (e *queryError) Error() string {
	return "invalid " + e.key + " " + strconv.Quote(e.value)
}
