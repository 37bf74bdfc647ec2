// Package orchestrator is C12: the only place that wires engines, the
// warehouse, the apply sink, and the notifier together. It assigns a fresh
// execution id to every run, fans out independent warehouse reads
// concurrently, hands the joined snapshot to a pure engine, persists the
// output in one append, optionally streams APPROVED records through the
// apply sink, and emits a notify.Summary.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mbicorp/adbid-engine/internal/apply"
	"github.com/mbicorp/adbid-engine/internal/bid"
	"github.com/mbicorp/adbid-engine/internal/budget"
	"github.com/mbicorp/adbid-engine/internal/config"
	"github.com/mbicorp/adbid-engine/internal/lifecycle"
	"github.com/mbicorp/adbid-engine/internal/negative"
	"github.com/mbicorp/adbid-engine/internal/notify"
	"github.com/mbicorp/adbid-engine/internal/seo"
	"github.com/mbicorp/adbid-engine/internal/warehouse"
)

// Orchestrator holds every collaborator a run needs. It carries no
// per-request state; every method takes a context. RunBidEngine,
// RunBudgetEngine, RunNegativeJudger and RunLifecycleUpdate return a
// notify.Summary describing what happened; RunBacktest returns the
// BacktestExecution, and the Apply* methods return applied/failed counts.
type Orchestrator struct {
	cfg config.Config
	log zerolog.Logger

	inputs    *warehouse.InputRepository
	searchTerms *warehouse.SearchTermRepository
	recs      *warehouse.RecommendationRepository
	backtests *warehouse.BacktestRepository

	bidEngine *bid.Engine
	budgetCfg budget.Config
	negCfg    negative.Config
	autoExactCfg negative.AutoExactConfig
	seoEvalCfg seo.EvaluatorConfig
	launchExitCfg seo.LaunchExitConfig
	lifecycleCfg lifecycle.Config

	applySink *apply.Sink // nil when no platform adapter is wired (shadow-only deployments)
	notifier  notify.Notifier

	clock    func() time.Time
	snapshots *snapshotCache
}

// Deps bundles every collaborator New needs. Clock defaults to time.Now
// when nil; tests override it for determinism.
type Deps struct {
	Config config.Config
	Log    zerolog.Logger

	Inputs      *warehouse.InputRepository
	SearchTerms *warehouse.SearchTermRepository
	Recs        *warehouse.RecommendationRepository
	Backtests   *warehouse.BacktestRepository

	BidEngine     *bid.Engine
	BudgetConfig  budget.Config
	NegativeConfig negative.Config
	AutoExactConfig negative.AutoExactConfig
	SeoEvaluatorConfig seo.EvaluatorConfig
	LaunchExitConfig   seo.LaunchExitConfig
	LifecycleConfig    lifecycle.Config

	ApplySink *apply.Sink
	Notifier  notify.Notifier
	Clock     func() time.Time
}

// New builds an Orchestrator.
func New(d Deps) *Orchestrator {
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		cfg:           d.Config,
		log:           d.Log.With().Str("component", "orchestrator").Logger(),
		inputs:        d.Inputs,
		searchTerms:   d.SearchTerms,
		recs:          d.Recs,
		backtests:     d.Backtests,
		bidEngine:     d.BidEngine,
		budgetCfg:     d.BudgetConfig,
		negCfg:        d.NegativeConfig,
		autoExactCfg:  d.AutoExactConfig,
		seoEvalCfg:    d.SeoEvaluatorConfig,
		launchExitCfg: d.LaunchExitConfig,
		lifecycleCfg:  d.LifecycleConfig,
		applySink:     d.ApplySink,
		notifier:      d.Notifier,
		clock:         clock,
		snapshots:     newSnapshotCache(),
	}
}

// newExecutionID assigns a fresh execution id (§5 "newer execution_ids
// carry newer timestamps").
func newExecutionID() string {
	return uuid.NewString()
}

// RunOptions is the common per-invocation parameter every cron/HTTP handler
// passes through: dryRun skips persistence and apply entirely, scope
// narrows the run to a product id subset.
type RunOptions struct {
	DryRun bool
	ScopeProductIDs []string
}

// snapshotCache remembers, per (engine, scope) key, the digest of the most
// recently run joined input snapshot together with the execution id that
// was assigned to it. A run whose freshly-loaded snapshot msgpack-encodes
// to the same digest as the prior run reuses that prior execution id
// instead of persisting under a brand new one: since the apply sink is
// already idempotent by (execution_id, entity_id) (§5), reusing the id is
// what makes an unchanged-input re-run idempotent end to end, and the
// run's persistence step is skipped rather than writing duplicate rows
// under an id that was already fully persisted and (possibly) applied.
type snapshotCache struct {
	mu      sync.Mutex
	entries map[string]snapshotEntry
}

type snapshotEntry struct {
	digest      [sha256.Size]byte
	executionID string
}

func newSnapshotCache() *snapshotCache {
	return &snapshotCache{entries: make(map[string]snapshotEntry)}
}

// lookup msgpack-encodes payload, hashes the encoding, and reports whether
// it matches the digest remembered under key. On a hit it returns the
// execution id from that earlier run so the caller can reuse it.
func (c *snapshotCache) lookup(key string, payload any) (executionID string, hit bool, err error) {
	digest, err := snapshotDigest(payload)
	if err != nil {
		return "", false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || entry.digest != digest {
		return "", false, nil
	}
	return entry.executionID, true, nil
}

// remember stores payload's digest and the execution id it was run under,
// replacing whatever was previously remembered for key.
func (c *snapshotCache) remember(key string, payload any, executionID string) error {
	digest, err := snapshotDigest(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = snapshotEntry{digest: digest, executionID: executionID}
	return nil
}

func snapshotDigest(payload any) ([sha256.Size]byte, error) {
	encoded, err := msgpack.Marshal(payload)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(encoded), nil
}

func (o *Orchestrator) notify(s notify.Summary) {
	if o.notifier == nil {
		return
	}
	o.notifier.Notify(s)
}

func summaryErrors(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

// loadErrGroup runs a small fixed set of independent warehouse loads
// concurrently, matching §5's "fans out independent I/O... concurrently and
// joins before running the engine". It is deliberately minimal (no external
// errgroup dependency) since the fan-out width here is always small and
// fixed per engine.
type loadErrGroup struct {
	ctx  context.Context
	errs chan error
	n    int
}

func newLoadGroup(ctx context.Context, n int) *loadErrGroup {
	return &loadErrGroup{ctx: ctx, errs: make(chan error, n), n: n}
}

func (g *loadErrGroup) Go(fn func(context.Context) error) {
	go func() {
		g.errs <- fn(g.ctx)
	}()
}

func (g *loadErrGroup) Wait() error {
	var first error
	for i := 0; i < g.n; i++ {
		if err := <-g.errs; err != nil && first == nil {
			first = err
		}
	}
	return first
}
