package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/yourusername/squares-ev/internal/models"
	"github.com/yourusername/squares-ev/internal/probability"
	"github.com/yourusername/squares-ev/internal/service"
	"github.com/yourusername/squares-ev/internal/view"
)

const maxBodyBytes = 1 << 20

type boardTextRequest struct {
	Text string `json:"text" validate:"required"`
}

type analysisRequest struct {
	Text           string             `json:"text" validate:"required_without=Board"`
	Board          *models.Board      `json:"board"`
	MarketA        *models.OddsMatrix `json:"market_a"`
	MarketB        *models.OddsMatrix `json:"market_b"`
	PricePerSquare *float64           `json:"price_per_square" validate:"omitempty,gte=0"`
	WeightA        *float64           `json:"weight_a" validate:"omitempty,gte=0"`
	WeightB        *float64           `json:"weight_b" validate:"omitempty,gte=0"`
	Top            int                `json:"top" validate:"gte=0,lte=100"`
}

type analysisResponse struct {
	*service.Analysis
	Dashboard view.Dashboard `json:"dashboard"`
}

type currentAnalysisResponse struct {
	ID             string         `json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	PricePerSquare float64        `json:"price_per_square"`
	Weights        models.Weights `json:"weights"`
	EventID        string         `json:"event_id,omitempty"`
	OddsUpdatedAt  *time.Time     `json:"odds_fetched_at,omitempty"`
	Dashboard      view.Dashboard `json:"dashboard"`
}

type marketSummary struct {
	EventID   string            `json:"event_id"`
	Market    string            `json:"market"`
	HomeTeam  string            `json:"home_team"`
	AwayTeam  string            `json:"away_team"`
	UpdatedAt time.Time         `json:"updated_at"`
	Missing   int               `json:"missing_pairs"`
	Overround *float64          `json:"overround,omitempty"`
	Matrix    models.OddsMatrix `json:"matrix"`
}

type oddsResponse struct {
	FetchedAt time.Time     `json:"fetched_at"`
	MarketA   marketSummary `json:"market_a"`
	MarketB   marketSummary `json:"market_b"`
}

type refreshResponse struct {
	Odds     oddsResponse             `json:"odds"`
	Analysis *currentAnalysisResponse `json:"analysis,omitempty"`
}

// decode reads a JSON body and validates it. Failures are written to w.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err)
		return false
	}
	return true
}

func (s *Server) parseBoard(w http.ResponseWriter, r *http.Request) {
	var req boardTextRequest
	if !s.decode(w, r, &req) {
		return
	}

	board, err := s.svc.ParseBoard(req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) putCurrentBoard(w http.ResponseWriter, r *http.Request) {
	var req boardTextRequest
	if !s.decode(w, r, &req) {
		return
	}

	board, err := s.svc.SetBoard(req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) getCurrentBoard(w http.ResponseWriter, r *http.Request) {
	board, ok := s.svc.CurrentBoard()
	if !ok {
		writeServiceError(w, service.ErrNoBoard)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if !s.decode(w, r, &req) {
		return
	}

	in := service.AnalysisRequest{
		Text:           req.Text,
		Board:          req.Board,
		MarketA:        req.MarketA,
		MarketB:        req.MarketB,
		PricePerSquare: req.PricePerSquare,
	}
	if req.WeightA != nil || req.WeightB != nil {
		weights := s.svc.Settings().Weights
		if req.WeightA != nil {
			weights.A = *req.WeightA
		}
		if req.WeightB != nil {
			weights.B = *req.WeightB
		}
		in.Weights = &weights
	}

	analysis, err := s.svc.Analyze(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	top := req.Top
	if top == 0 {
		top = 10
	}
	writeJSON(w, http.StatusOK, analysisResponse{
		Analysis:  analysis,
		Dashboard: view.BuildDashboard(analysis.Board, analysis.Result, view.LeaderboardOptions{}, top),
	})
}

// leaderboardOptions reads sort, order, filter and top from the query string.
func (s *Server) leaderboardOptions(r *http.Request) (view.LeaderboardOptions, error) {
	q := r.URL.Query()
	opts := view.LeaderboardOptions{
		SortBy: view.SortKey(q.Get("sort")),
		Order:  q.Get("order"),
		Filter: q.Get("filter"),
	}
	if raw := q.Get("top"); raw != "" {
		top, err := strconv.Atoi(raw)
		if err != nil {
			return opts, fmt.Errorf("top must be an integer: %w", err)
		}
		opts.Top = top
	}
	if err := s.validate.Struct(opts); err != nil {
		return opts, err
	}
	return opts, nil
}

func (s *Server) currentAnalysis(w http.ResponseWriter, r *http.Request) {
	opts, err := s.leaderboardOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	analysis, err := s.svc.Current()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, currentResponse(analysis, opts))
}

func currentResponse(a *service.Analysis, opts view.LeaderboardOptions) *currentAnalysisResponse {
	top := opts.Top
	if top == 0 {
		top = 10
	}
	resp := &currentAnalysisResponse{
		ID:             a.ID,
		CreatedAt:      a.CreatedAt,
		PricePerSquare: a.PricePerSquare,
		Weights:        a.Weights,
		Dashboard:      view.BuildDashboard(a.Board, a.Result, opts, top),
	}
	if a.Odds != nil {
		resp.EventID = a.Odds.A.EventID
		fetched := a.Odds.FetchedAt
		resp.OddsUpdatedAt = &fetched
	}
	return resp
}

func (s *Server) currentOdds(w http.ResponseWriter, r *http.Request) {
	pair, ok := s.svc.CurrentOdds()
	if !ok {
		writeServiceError(w, service.ErrNoOdds)
		return
	}
	writeJSON(w, http.StatusOK, summarizeOdds(pair))
}

func (s *Server) refreshOdds(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.svc.Refresh(r.Context(), true)
	if err != nil && !errors.Is(err, service.ErrNoBoard) && !errors.Is(err, service.ErrAnalysisPending) {
		writeServiceError(w, err)
		return
	}

	pair, _ := s.svc.CurrentOdds()
	resp := refreshResponse{Odds: summarizeOdds(pair)}
	if analysis != nil {
		resp.Analysis = currentResponse(analysis, view.LeaderboardOptions{})
	}
	writeJSON(w, http.StatusOK, resp)
}

func summarizeOdds(pair *models.OddsPair) oddsResponse {
	return oddsResponse{
		FetchedAt: pair.FetchedAt,
		MarketA:   summarizeMarket(&pair.A),
		MarketB:   summarizeMarket(&pair.B),
	}
}

func summarizeMarket(m *models.MarketOdds) marketSummary {
	out := marketSummary{
		EventID:   m.EventID,
		Market:    m.Market,
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		UpdatedAt: m.UpdatedAt,
		Missing:   len(m.Matrix.Missing()),
		Matrix:    m.Matrix,
	}
	if o, err := probability.Overround(&m.Matrix); err == nil {
		out.Overround = &o
	}
	return out
}
