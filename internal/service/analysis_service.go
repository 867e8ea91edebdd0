package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/squares-ev/internal/logger"
	"github.com/yourusername/squares-ev/internal/metrics"
	"github.com/yourusername/squares-ev/internal/models"
	"github.com/yourusername/squares-ev/internal/report"
)

var (
	// ErrNoBoard is returned when the live view has no board yet.
	ErrNoBoard = errors.New("no current board")
	// ErrNoOdds is returned when the live view has no odds yet.
	ErrNoOdds = errors.New("no current odds")
	// ErrOddsFeedDisabled is returned by Refresh without an odds source.
	ErrOddsFeedDisabled = errors.New("odds feed is not configured")
	// ErrAnalysisPending is returned while the live board and odds have not
	// yet been analyzed together.
	ErrAnalysisPending = errors.New("analysis pending for current board and odds")
)

// OddsSource supplies market pairs for the live view.
type OddsSource interface {
	FetchPair(ctx context.Context, eventID string) (*models.OddsPair, error)
	RefreshPair(ctx context.Context, eventID string) (*models.OddsPair, error)
}

// Settings are the pool defaults applied when a request leaves them out.
type Settings struct {
	PricePerSquare float64
	Weights        models.Weights
	EventID        string
}

// AnalysisRequest is one ad-hoc analysis. Nil price or weights fall back
// to the service settings.
type AnalysisRequest struct {
	Text           string
	Board          *models.Board
	MarketA        *models.OddsMatrix
	MarketB        *models.OddsMatrix
	PricePerSquare *float64
	Weights        *models.Weights
}

// Analysis is an immutable, identified analysis snapshot.
type Analysis struct {
	ID             string                 `json:"id"`
	CreatedAt      time.Time              `json:"created_at"`
	PricePerSquare float64                `json:"price_per_square"`
	Weights        models.Weights         `json:"weights"`
	Board          *models.Board          `json:"board"`
	Odds           *models.OddsPair       `json:"odds,omitempty"`
	Result         *models.AnalysisResult `json:"result"`
}

// AnalysisService owns the live board and odds and produces analyses.
type AnalysisService struct {
	builder  *report.Builder
	odds     OddsSource
	settings Settings
	log      *logger.AnalysisLogger

	mu          sync.RWMutex
	board       *models.Board
	pair        *models.OddsPair
	current     *Analysis
	currentErr  error
	subscribers []func(*Analysis)
}

// NewAnalysisService creates a new analysis service. odds may be nil when
// no feed is configured.
func NewAnalysisService(builder *report.Builder, odds OddsSource, settings Settings, log *logrus.Logger) *AnalysisService {
	if builder == nil {
		builder = report.NewBuilder(nil)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &AnalysisService{
		builder:  builder,
		odds:     odds,
		settings: settings,
		log:      logger.NewAnalysisLogger(log),
	}
}

// Settings returns the pool defaults.
func (s *AnalysisService) Settings() Settings {
	return s.settings
}

// ParseBoard extracts a board from pasted text.
func (s *AnalysisService) ParseBoard(text string) (*models.Board, error) {
	return s.extract(uuid.NewString(), text)
}

func (s *AnalysisService) extract(requestID, text string) (*models.Board, error) {
	start := time.Now()
	board, err := s.builder.Extract(text)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordAnalysis(models.ErrorCode(err), 0)
		s.log.LogAnalysisRejected(requestID, err)
		return nil, err
	}

	metrics.RecordExtraction(elapsed.Seconds())
	s.log.LogBoardExtracted(requestID, board, durationMs(elapsed))
	return board, nil
}

// Analyze runs a one-off analysis without touching the live state.
func (s *AnalysisService) Analyze(req AnalysisRequest) (*Analysis, error) {
	id := uuid.NewString()

	board := req.Board
	if board == nil {
		if req.Text == "" {
			err := fmt.Errorf("%w: no board text supplied", models.ErrUnderfilledPastedInput)
			s.log.LogAnalysisRejected(id, err)
			return nil, err
		}
		var err error
		if board, err = s.extract(id, req.Text); err != nil {
			return nil, fmt.Errorf("extract board: %w", err)
		}
	}

	price := s.settings.PricePerSquare
	if req.PricePerSquare != nil {
		price = *req.PricePerSquare
	}
	weights := s.settings.Weights
	if req.Weights != nil {
		weights = *req.Weights
	}

	return s.compute(id, board, req.MarketA, req.MarketB, nil, price, weights)
}

func (s *AnalysisService) compute(id string, board *models.Board, a, b *models.OddsMatrix, pair *models.OddsPair, price float64, weights models.Weights) (*Analysis, error) {
	start := time.Now()
	result, _, err := s.builder.Build(report.Input{
		Board:          board,
		MarketA:        a,
		MarketB:        b,
		PricePerSquare: price,
		Weights:        weights,
	})
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordAnalysis(models.ErrorCode(err), 0)
		s.log.LogAnalysisRejected(id, err)
		return nil, err
	}

	metrics.RecordAnalysis("ok", elapsed.Seconds())
	s.log.LogAnalysisComputed(id, result, durationMs(elapsed))

	return &Analysis{
		ID:             id,
		CreatedAt:      time.Now().UTC(),
		PricePerSquare: price,
		Weights:        weights,
		Board:          board,
		Odds:           pair,
		Result:         result,
	}, nil
}

// SetBoard replaces the live board and recomputes when odds are present.
func (s *AnalysisService) SetBoard(text string) (*models.Board, error) {
	board, err := s.ParseBoard(text)
	if err != nil {
		return nil, err
	}
	metrics.UpdateBoardParticipants(len(board.Participants()))

	s.mu.Lock()
	s.board = board
	s.mu.Unlock()

	s.recompute()
	return board, nil
}

// SetOdds replaces the live odds pair and recomputes when a board is present.
func (s *AnalysisService) SetOdds(pair *models.OddsPair) {
	s.mu.Lock()
	s.pair = pair
	s.mu.Unlock()

	s.recompute()
}

// Refresh pulls the configured event's odds into the live view. force skips
// the feed cache.
func (s *AnalysisService) Refresh(ctx context.Context, force bool) (*Analysis, error) {
	if s.odds == nil || s.settings.EventID == "" {
		return nil, ErrOddsFeedDisabled
	}

	fetch := s.odds.FetchPair
	if force {
		fetch = s.odds.RefreshPair
	}
	pair, err := fetch(ctx, s.settings.EventID)
	if err != nil {
		return nil, fmt.Errorf("refresh odds: %w", err)
	}

	s.SetOdds(pair)
	return s.Current()
}

// FetchOdds retrieves a pair for an arbitrary event through the feed cache.
func (s *AnalysisService) FetchOdds(ctx context.Context, eventID string) (*models.OddsPair, error) {
	if s.odds == nil {
		return nil, ErrOddsFeedDisabled
	}
	if eventID == "" {
		eventID = s.settings.EventID
	}
	return s.odds.FetchPair(ctx, eventID)
}

// Current returns the latest live analysis.
func (s *AnalysisService) Current() (*Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.board == nil:
		return nil, ErrNoBoard
	case s.pair == nil:
		return nil, ErrNoOdds
	case s.currentErr != nil:
		return nil, s.currentErr
	case s.current == nil || s.current.Board != s.board || s.current.Odds != s.pair:
		return nil, ErrAnalysisPending
	}
	return s.current, nil
}

// CurrentBoard returns the live board, if any.
func (s *AnalysisService) CurrentBoard() (*models.Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board, s.board != nil
}

// CurrentOdds returns the live odds pair, if any.
func (s *AnalysisService) CurrentOdds() (*models.OddsPair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, s.pair != nil
}

// Subscribe registers fn to receive every new live analysis.
func (s *AnalysisService) Subscribe(fn func(*Analysis)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *AnalysisService) recompute() {
	s.mu.RLock()
	board, pair := s.board, s.pair
	s.mu.RUnlock()
	if board == nil || pair == nil {
		return
	}

	analysis, err := s.compute(uuid.NewString(), board, &pair.A.Matrix, &pair.B.Matrix, pair, s.settings.PricePerSquare, s.settings.Weights)

	s.mu.Lock()
	// A newer board or pair may have landed while computing.
	if s.board != board || s.pair != pair {
		s.mu.Unlock()
		return
	}
	s.current, s.currentErr = analysis, err
	subscribers := append([]func(*Analysis){}, s.subscribers...)
	s.mu.Unlock()

	if err != nil {
		return
	}
	for _, fn := range subscribers {
		fn(analysis)
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
