package notify

import "github.com/rs/zerolog"

// LoggingNotifier writes every Summary as a structured log line. It is
// always wired in, independent of any external notifier, so a run's outcome
// is never lost even if no one is watching the dashboard.
type LoggingNotifier struct {
	log zerolog.Logger
}

// NewLoggingNotifier builds a LoggingNotifier.
func NewLoggingNotifier(log zerolog.Logger) *LoggingNotifier {
	return &LoggingNotifier{log: log.With().Str("component", "notify").Logger()}
}

// Notify implements Notifier.
func (n *LoggingNotifier) Notify(s Summary) {
	event := n.log.Info()
	if s.ErrorCount > 0 {
		event = n.log.Warn()
	}
	event.
		Str("execution_id", s.ExecutionID).
		Str("engine", s.Engine).
		Str("mode", s.Mode).
		Bool("dry_run", s.DryRun).
		Int("total_records", s.TotalRecords).
		Interface("action_counts", s.ActionCounts).
		Int("error_count", s.ErrorCount).
		Dur("duration", s.Duration).
		Msg("execution summary")
}
