package logger

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/squares-ev/internal/models"
)

// AnalysisLogger provides dedicated logging for board extraction and EV analysis.
type AnalysisLogger struct {
	*logrus.Entry
}

// NewAnalysisLogger creates a new analysis logger.
func NewAnalysisLogger(baseLogger *logrus.Logger) *AnalysisLogger {
	return &AnalysisLogger{
		Entry: baseLogger.WithField("component", "analysis"),
	}
}

// LogBoardExtracted logs a successfully parsed board and how it was recovered.
func (al *AnalysisLogger) LogBoardExtracted(requestID string, board *models.Board, durationMs float64) {
	al.WithFields(logrus.Fields{
		"request_id":           requestID,
		"home_label":           board.HomeLabel,
		"away_label":           board.AwayLabel,
		"delimiter":            board.Meta.Delimiter,
		"header_row":           board.Meta.HeaderRow,
		"start_col":            board.Meta.StartCol,
		"home_axis_defaulted":  board.Meta.HomeAxisDefaulted,
		"away_axis_defaulted":  board.Meta.AwayAxisDefaulted,
		"reassembled_rows":     board.Meta.ReassembledRows,
		"normalized_names":     board.Meta.NormalizedNames,
		"extraction_duration_ms": durationMs,
	}).Info("Board extracted")

	if board.Meta.HomeAxisDefaulted || board.Meta.AwayAxisDefaulted {
		al.WithField("request_id", requestID).Warn("Board digit axis fell back to natural order")
	}
}

// LogAnalysisComputed logs a completed analysis.
func (al *AnalysisLogger) LogAnalysisComputed(requestID string, result *models.AnalysisResult, durationMs float64) {
	fields := logrus.Fields{
		"request_id":           requestID,
		"total_pool":           result.TotalPool,
		"sum_ev":               result.SumEV,
		"participants":         len(result.Rollups),
		"occupied_cells":       len(result.RankedCells),
		"analysis_duration_ms": durationMs,
	}
	if len(result.Rollups) > 0 {
		fields["leader"] = result.Rollups[0].Name
		fields["leader_total_ev"] = result.Rollups[0].TotalEV
	}
	al.WithFields(fields).Info("Analysis computed")
}

// LogAnalysisRejected logs an input validation failure.
func (al *AnalysisLogger) LogAnalysisRejected(requestID string, err error) {
	al.WithFields(logrus.Fields{
		"request_id": requestID,
		"error_code": models.ErrorCode(err),
	}).WithError(err).Warn("Analysis input rejected")
}
