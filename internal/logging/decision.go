package logging

import "go.uber.org/zap"

// #region decision-entry
// DecisionEntry is one allow/reject outcome of a guarded action.
type DecisionEntry struct {
	Scenario string
	Action   string // record | export_csv | export_xlsx | export_chart
	Decision string // allow, rejected, busy or error
	Reason   string
	Filename string
}

// #endregion decision-entry

// #region log-decision
// LogDecision writes a decision at info level when it was allowed and at warn
// level otherwise. A nil logger is a no-op.
func LogDecision(logger *zap.Logger, entry DecisionEntry) {
	if logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("scenario", entry.Scenario),
		zap.String("action", entry.Action),
		zap.String("decision", entry.Decision),
	}
	if entry.Reason != "" {
		fields = append(fields, zap.String("reason", entry.Reason))
	}
	if entry.Filename != "" {
		fields = append(fields, zap.String("filename", entry.Filename))
	}
	if entry.Decision == "allow" {
		logger.Info("guarded action", fields...)
		return
	}
	logger.Warn("guarded action", fields...)
}

// #endregion log-decision
