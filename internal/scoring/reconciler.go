// Package scoring keeps stored pick scores in line with match results.
package scoring

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/pickem"
)

// Repository is the data the reconciler reads and writes
type Repository interface {
	ListRounds(ctx context.Context) ([]models.Round, error)
	GetRound(ctx context.Context, id string) (*models.Round, error)
	GetMatches(ctx context.Context, ids []string) ([]models.Match, []string, error)
	ListPicksForRound(ctx context.Context, roundID string) ([]models.Pick, error)
	UpdatePickScore(ctx context.Context, id string, score int) error
}

// writeTimeout bounds a single score write
const writeTimeout = 10 * time.Second

// Notifier is told about rounds whose scores changed
type Notifier interface {
	ScoresUpdated(roundID string, written int)
}

// Options tune a Reconciler
type Options struct {
	// Concurrency above 1 writes that many scores in parallel
	Concurrency int
	Metrics     *Metrics
	Notifier    Notifier
}

// Result summarizes one pass
type Result struct {
	Considered int  `json:"considered"`
	Written    int  `json:"written"`
	Skipped    int  `json:"skipped"`
	Failed     int  `json:"failed"`
	Cancelled  bool `json:"cancelled"`
}

// Add accumulates another pass into r
func (r *Result) Add(o Result) {
	r.Considered += o.Considered
	r.Written += o.Written
	r.Skipped += o.Skipped
	r.Failed += o.Failed
	r.Cancelled = r.Cancelled || o.Cancelled
}

// Reconciler recomputes pick scores and persists the ones that changed.
// Passes are idempotent: a second pass over the same data writes nothing.
type Reconciler struct {
	log      logger.Logger
	repo     Repository
	workers  int
	metrics  *Metrics
	notifier Notifier
}

// NewReconciler creates a reconciler writing through repo
func NewReconciler(log logger.Logger, repo Repository, opts Options) *Reconciler {
	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}
	m := opts.Metrics
	if m == nil {
		m = NewMetrics(nil)
	}
	return &Reconciler{
		log:      log.With("component", "scoring"),
		repo:     repo,
		workers:  workers,
		metrics:  m,
		notifier: opts.Notifier,
	}
}

// Reconcile scores every pick of round against matches and writes the
// scores that differ from the stored ones. Nothing happens unless at least
// one match has a result. Write failures are logged and counted without
// stopping the pass. Once ctx is cancelled no further writes are issued.
func (r *Reconciler) Reconcile(ctx context.Context, round *models.Round, matches []models.Match, picks []models.Pick) Result {
	var res Result
	if round == nil || len(matches) == 0 || len(picks) == 0 || !pickem.AnyResolved(matches) {
		return res
	}

	start := time.Now()
	if r.workers > 1 {
		res = r.reconcileConcurrent(ctx, round, matches, picks)
	} else {
		res = r.reconcileSequential(ctx, round, matches, picks)
	}

	r.metrics.Passes.Inc()
	r.metrics.PassDuration.Observe(time.Since(start).Seconds())
	if res.Cancelled {
		r.metrics.CancelledPasses.Inc()
	}

	if res.Written > 0 || res.Failed > 0 {
		r.log.Info("Scores reconciled", "round_id", round.ID, "written", res.Written, "failed", res.Failed, "skipped", res.Skipped, "cancelled", res.Cancelled)
	} else {
		r.log.Debug("Scores already current", "round_id", round.ID, "considered", res.Considered, "cancelled", res.Cancelled)
	}

	if res.Written > 0 && r.notifier != nil {
		r.notifier.ScoresUpdated(round.ID, res.Written)
	}
	return res
}

// needsWrite returns the new score when it differs from the stored one
func needsWrite(matches []models.Match, pick *models.Pick) (int, bool) {
	sr := pickem.Score(matches, pick)
	if sr.TotalEvaluated == 0 || sr.Score == pick.Score {
		return 0, false
	}
	return sr.Score, true
}

func (r *Reconciler) reconcileSequential(ctx context.Context, round *models.Round, matches []models.Match, picks []models.Pick) Result {
	var res Result
	for i := range picks {
		pick := &picks[i]
		res.Considered++

		score, ok := needsWrite(matches, pick)
		if !ok {
			res.Skipped++
			continue
		}
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		if r.write(ctx, round.ID, pick, score) {
			res.Written++
		} else {
			res.Failed++
		}
	}
	return res
}

func (r *Reconciler) reconcileConcurrent(ctx context.Context, round *models.Round, matches []models.Match, picks []models.Pick) Result {
	var (
		res                        Result
		written, failed, cancelled atomic.Int64
		g                          errgroup.Group
	)
	g.SetLimit(r.workers)

	for i := range picks {
		pick := &picks[i]
		res.Considered++

		score, ok := needsWrite(matches, pick)
		if !ok {
			res.Skipped++
			continue
		}
		if ctx.Err() != nil {
			cancelled.Add(1)
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				cancelled.Add(1)
				return nil
			}
			if r.write(ctx, round.ID, pick, score) {
				written.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	res.Written = int(written.Load())
	res.Failed = int(failed.Load())
	res.Cancelled = cancelled.Load() > 0
	return res
}

// write runs to completion once issued, even if the pass is cancelled meanwhile
func (r *Reconciler) write(ctx context.Context, roundID string, pick *models.Pick, score int) bool {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := r.repo.UpdatePickScore(wctx, pick.ID, score); err != nil {
		r.metrics.WriteFailures.Inc()
		r.log.Warn("Failed to write pick score", "round_id", roundID, "pick_id", pick.ID, "score", score, "error", err)
		return false
	}
	r.metrics.Writes.Inc()
	r.log.Debug("Pick score updated", "round_id", roundID, "pick_id", pick.ID, "from", pick.Score, "to", score)
	return true
}

// ReconcileRound loads a round's current matches and picks and reconciles them
func (r *Reconciler) ReconcileRound(ctx context.Context, roundID string) (Result, error) {
	round, err := r.repo.GetRound(ctx, roundID)
	if err != nil {
		return Result{}, err
	}
	return r.reconcileLoaded(ctx, round)
}

// ReconcileAll reconciles every round, stopping early if ctx is cancelled
func (r *Reconciler) ReconcileAll(ctx context.Context) (Result, error) {
	rounds, err := r.repo.ListRounds(ctx)
	if err != nil {
		return Result{}, err
	}

	var total Result
	for i := range rounds {
		if ctx.Err() != nil {
			total.Cancelled = true
			break
		}
		res, err := r.reconcileLoaded(ctx, &rounds[i])
		if err != nil {
			return total, err
		}
		total.Add(res)
	}
	return total, nil
}

func (r *Reconciler) reconcileLoaded(ctx context.Context, round *models.Round) (Result, error) {
	matches, missing, err := r.repo.GetMatches(ctx, round.MatchIDs)
	if err != nil {
		return Result{}, err
	}
	if len(missing) > 0 {
		r.log.Debug("Round references unknown matches", "round_id", round.ID, "missing", missing)
	}
	picks, err := r.repo.ListPicksForRound(ctx, round.ID)
	if err != nil {
		return Result{}, err
	}
	return r.Reconcile(ctx, round, matches, picks), nil
}
