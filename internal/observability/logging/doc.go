// Package logging provides structured logging utilities built on log/slog.
//
// Every bot run gets a run identifier that is attached to the logger and
// carried through the context, so that all log lines emitted during one
// fetch-check-post cycle can be correlated:
//
//	logger := logging.NewLogger(os.Stderr)
//	runID := logging.NewRunID()
//	ctx = logging.WithLogger(ctx, logging.WithRunID(logger, runID))
//	logging.FromContext(ctx).Info("run started")
package logging
