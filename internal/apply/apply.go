// Package apply is the idempotent ad-platform apply sink (§6 "Apply sink").
// It exposes exactly the three operations the core writes through and
// nothing else — no generic "do arbitrary mutation" escape hatch.
package apply

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mbicorp/adbid-engine/internal/engineerr"
)

// Platform is the ad-platform boundary the sink writes through. A concrete
// adapter lives outside this module (marketplace SDK credentials, rate
// limits); this package only defines the contract and the idempotency layer
// in front of it.
type Platform interface {
	SetBid(ctx context.Context, keywordID string, newBid int64) error
	SetBudget(ctx context.Context, campaignID string, newBudget int64) error
	AddNegative(ctx context.Context, scopeID, expression, matchType string) error
}

// Result reports whether an apply call is safe to retry.
type Result struct {
	Applied   bool
	Retryable bool
	Err       error
}

// dedupeStore is the subset of warehouse.DB this package needs, kept narrow
// so apply doesn't import warehouse directly (the dependency points the
// other way: orchestrator wires both together).
type dedupeStore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Sink wraps a Platform with the (execution_id, entity_id) idempotency
// table required by §5's "idempotent by (execution_id, entity_id)" rule.
type Sink struct {
	platform Platform
	store    dedupeStore
	log      zerolog.Logger
	timeout  time.Duration
}

// New builds a Sink. timeout bounds every underlying platform call (§5
// "Timeouts").
func New(platform Platform, store dedupeStore, log zerolog.Logger, timeout time.Duration) *Sink {
	return &Sink{platform: platform, store: store, log: log.With().Str("component", "apply").Logger(), timeout: timeout}
}

// alreadyApplied reports whether (executionID, entityID) was already
// recorded as applied; a retry of the same pair is then a no-op success.
func (s *Sink) alreadyApplied(ctx context.Context, executionID, entityID string) (bool, error) {
	var count int
	row := s.store.QueryRowContext(ctx, `SELECT COUNT(1) FROM apply_dedupe WHERE execution_id = ? AND entity_id = ?`, executionID, entityID)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Sink) markApplied(ctx context.Context, executionID, entityID string, now time.Time) error {
	_, err := s.store.ExecContext(ctx, `
		INSERT INTO apply_dedupe (execution_id, entity_id, applied_at)
		VALUES (?, ?, ?)
		ON CONFLICT(execution_id, entity_id) DO NOTHING
	`, executionID, entityID, now)
	return err
}

// SetBid applies a bid change for one keyword, deduplicated by
// (executionID, keywordID).
func (s *Sink) SetBid(ctx context.Context, executionID, keywordID string, newBid int64, now time.Time) Result {
	return s.do(ctx, executionID, keywordID, now, func(ctx context.Context) error {
		return s.platform.SetBid(ctx, keywordID, newBid)
	})
}

// SetBudget applies a budget change for one campaign, deduplicated by
// (executionID, campaignID).
func (s *Sink) SetBudget(ctx context.Context, executionID, campaignID string, newBudget int64, now time.Time) Result {
	return s.do(ctx, executionID, campaignID, now, func(ctx context.Context) error {
		return s.platform.SetBudget(ctx, campaignID, newBudget)
	})
}

// AddNegative applies one negative-keyword addition, deduplicated by
// (executionID, scopeID+expression+matchType).
func (s *Sink) AddNegative(ctx context.Context, executionID, scopeID, expression, matchType string, now time.Time) Result {
	entityID := scopeID + "|" + expression + "|" + matchType
	return s.do(ctx, executionID, entityID, now, func(ctx context.Context) error {
		return s.platform.AddNegative(ctx, scopeID, expression, matchType)
	})
}

func (s *Sink) do(ctx context.Context, executionID, entityID string, now time.Time, call func(context.Context) error) Result {
	done, err := s.alreadyApplied(ctx, executionID, entityID)
	if err != nil {
		return Result{Applied: false, Retryable: true, Err: &engineerr.SinkError{Kind: engineerr.SinkApply, Table: "apply_dedupe", Cause: err}}
	}
	if done {
		s.log.Debug().Str("execution_id", executionID).Str("entity_id", entityID).Msg("apply already recorded, skipping")
		return Result{Applied: true, Retryable: false}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := call(callCtx); err != nil {
		retryable := isRetryable(err)
		s.log.Warn().Err(err).Str("entity_id", entityID).Bool("retryable", retryable).Msg("apply call failed")
		return Result{Applied: false, Retryable: retryable, Err: err}
	}

	if err := s.markApplied(ctx, executionID, entityID, now); err != nil {
		s.log.Error().Err(err).Str("entity_id", entityID).Msg("apply succeeded but dedupe marker write failed")
		return Result{Applied: true, Retryable: false, Err: &engineerr.SinkError{Kind: engineerr.SinkApply, Table: "apply_dedupe", Cause: err}}
	}
	return Result{Applied: true, Retryable: false}
}

// RetryableError marks a Platform failure as safe to retry (rate limit,
// timeout, transient network fault). Anything else is treated as terminal.
type RetryableError struct{ Cause error }

func (e *RetryableError) Error() string { return "retryable apply failure: " + e.Cause.Error() }
func (e *RetryableError) Unwrap() error { return e.Cause }

func isRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re) || errors.Is(err, context.DeadlineExceeded)
}
