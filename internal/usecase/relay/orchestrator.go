package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"osrs-bluesky-bot/internal/config"
	"osrs-bluesky-bot/internal/observability/logging"
	"osrs-bluesky-bot/internal/observability/tracing"
)

// Stage is a state of the run's state machine.
type Stage int

// Stages in the order a successful run passes through them.
const (
	StageInit Stage = iota
	StageConfigLoaded
	StageAuthenticated
	StageMarkerFetched
	StageChangeDetected
	StagePublished
	StageSuccess
)

var stageNames = [...]string{"init", "config_loaded", "authenticated", "marker_fetched", "change_detected", "published", "success"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Outcome is the terminal result of a run.
type Outcome int

const (
	// OutcomeFailed means a precondition was not met or a collaborator failed.
	OutcomeFailed Outcome = iota
	// OutcomeIdle means the newest feed entry has already been posted.
	OutcomeIdle
	// OutcomeSuccess means a new post was published.
	OutcomeSuccess
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeIdle:
		return "idle"
	default:
		return "failed"
	}
}

// Process exit codes.
const (
	ExitSuccess = 0
	ExitFailed  = 1
	ExitIdle    = 2
)

// Result describes how a run ended.
type Result struct {
	Outcome Outcome
	// Stage is the last state reached.
	Stage   Stage
	Err     error
	PostURI string
}

// Succeeded is the two-way view of the result: Idle counts as failure.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// ExitCode maps the outcome to a process exit code for the given exit mode.
func (r Result) ExitCode(exitMode string) int {
	switch {
	case r.Outcome == OutcomeSuccess:
		return ExitSuccess
	case r.Outcome == OutcomeIdle && exitMode != config.ExitModeLegacy:
		return ExitIdle
	default:
		return ExitFailed
	}
}

// FinalMessage is the last status line for the given exit mode.
func (r Result) FinalMessage(exitMode string) string {
	switch {
	case r.Outcome == OutcomeSuccess:
		return msgSucceeded
	case r.Outcome == OutcomeIdle && exitMode != config.ExitModeLegacy:
		return msgIdle
	default:
		return msgFailed
	}
}

// ConfigLoader returns the run's configuration.
type ConfigLoader func() (*config.Config, error)

const sessionCloseTimeout = 10 * time.Second

// Orchestrator sequences one fetch-check-post cycle.
type Orchestrator struct {
	loadConfig ConfigLoader
	auth       Authenticator
	detector   *Detector
	publisher  *Publisher
	status     *Status
	recorder   Recorder
}

// NewOrchestrator wires the pipeline. status and recorder may be nil.
func NewOrchestrator(loadConfig ConfigLoader, auth Authenticator, detector *Detector, publisher *Publisher, status *Status, recorder Recorder) *Orchestrator {
	if status == nil {
		status = NewStatus(nil)
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Orchestrator{
		loadConfig: loadConfig,
		auth:       auth,
		detector:   detector,
		publisher:  publisher,
		status:     status,
		recorder:   recorder,
	}
}

// Run executes the pipeline and never panics on collaborator errors. The
// session acquired at login is closed on every path.
func (o *Orchestrator) Run(ctx context.Context) Result {
	logger := logging.FromContext(ctx)
	ctx, span := tracing.StartStage(ctx, "run")

	result := o.run(ctx, logger)

	var spanErr error
	if result.Outcome == OutcomeFailed {
		spanErr = result.Err
	}
	tracing.EndStage(span, spanErr)

	o.recorder.RecordRun(result.Outcome.String())
	attrs := []any{
		slog.String("outcome", result.Outcome.String()),
		slog.String("stage", result.Stage.String()),
	}
	if result.Err != nil {
		attrs = append(attrs, slog.String("error", logging.SanitizeError(result.Err)))
	}
	if result.PostURI != "" {
		attrs = append(attrs, slog.String("post_uri", result.PostURI))
	}
	logger.Info("run finished", attrs...)

	return result
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger) Result {
	o.status.Line(msgStarting)

	// Init -> ConfigLoaded
	o.status.Line(msgConfigLoading)
	_, done := o.track(ctx, "config")
	cfg, err := o.loadConfig()
	done(err)
	if err != nil {
		var missing *config.MissingKeyError
		if errors.As(err, &missing) {
			o.status.Linef(msgConfigMissingKey, missing.Key)
		}
		o.status.Line(msgConfigFailed)
		return Result{Outcome: OutcomeFailed, Stage: StageInit, Err: err}
	}
	o.status.Line(msgConfigLoaded)

	// ConfigLoaded -> Authenticated
	loginCtx, done := o.track(ctx, "login")
	session, err := o.auth.Login(loginCtx, cfg.AccountID, cfg.AccountSecret)
	if err == nil && session == nil {
		err = errors.New("login returned no session")
	}
	done(err)
	if err != nil {
		logger.Error("login failed",
			slog.String("account", cfg.AccountID),
			slog.String("error", logging.SanitizeError(err, cfg.AccountSecret)))
		o.status.Line(msgLoginFailed)
		return Result{Outcome: OutcomeFailed, Stage: StageConfigLoaded, Err: fmt.Errorf("%w: %w", ErrAuth, err)}
	}
	defer o.closeSession(ctx, logger, session)
	o.status.Line(msgLoggedIn)

	// Authenticated -> MarkerFetched, never fails.
	markerCtx, done := o.track(ctx, "marker")
	marker := FetchMarker(markerCtx, session)
	done(nil)
	// An embed-only last post has no text and reports as unavailable.
	if marker.Text != "" {
		o.status.Line(msgMarkerFetched)
	} else {
		o.status.Line(msgMarkerUnavailable)
	}

	// MarkerFetched -> ChangeDetected
	detectCtx, done := o.track(ctx, "detect")
	entry, err := o.detector.Detect(detectCtx, cfg.FeedURL, marker)
	if errors.Is(err, ErrNoNewItem) {
		done(nil)
		o.status.Line(msgNoNewItem)
		return Result{Outcome: OutcomeIdle, Stage: StageMarkerFetched, Err: err}
	}
	done(err)
	if err != nil {
		o.status.Line(msgFeedNoContent)
		o.status.Line(msgNoNewItem)
		return Result{Outcome: OutcomeFailed, Stage: StageMarkerFetched, Err: err}
	}
	o.status.Line(msgFoundNewItem)

	// ChangeDetected -> Published
	publishCtx, done := o.track(ctx, "publish")
	uri, err := o.publisher.Publish(publishCtx, session, entry)
	done(err)
	if err != nil {
		o.status.Line(msgPostFailed)
		return Result{Outcome: OutcomeFailed, Stage: StageChangeDetected, Err: err}
	}
	o.status.Line(msgPosted)

	return Result{Outcome: OutcomeSuccess, Stage: StageSuccess, PostURI: uri}
}

// track starts a span and timer for stage and returns a function ending both.
func (o *Orchestrator) track(ctx context.Context, stage string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracing.StartStage(ctx, stage)
	return ctx, func(err error) {
		o.recorder.ObserveStage(stage, time.Since(start))
		tracing.EndStage(span, err)
	}
}

// closeSession releases the session even when the run context is done.
func (o *Orchestrator) closeSession(ctx context.Context, logger *slog.Logger, session Session) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionCloseTimeout)
	defer cancel()

	if err := session.Close(closeCtx); err != nil {
		logger.Warn("failed to close session", slog.String("error", logging.SanitizeError(err)))
		return
	}
	logger.Debug("session closed")
}
