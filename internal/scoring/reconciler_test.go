package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/repository"
	"github.com/abrezinsky/pickem/internal/repository/mock"
	"github.com/abrezinsky/pickem/internal/testutil"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) ScoresUpdated(roundID string, written int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, fmt.Sprintf("%s:%d", roundID, written))
}

func (n *recordingNotifier) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

// setup seeds week one plus a pick with the given stored score
func setup(t *testing.T, storedScore int) (*mock.Repository, *models.Round, []models.Match, []models.Pick) {
	t.Helper()
	ctx := context.Background()
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	testutil.SeedWeekOne(t, repo)

	_, err := repo.CreatePick(ctx, models.Pick{UserID: testutil.UserID, RoundID: testutil.RoundID, Selections: testutil.P1Selections(), Score: storedScore})
	require.NoError(t, err)

	round, err := repo.GetRound(ctx, testutil.RoundID)
	require.NoError(t, err)
	matches, _, err := repo.GetMatches(ctx, round.MatchIDs)
	require.NoError(t, err)
	picks, err := repo.ListPicksForRound(ctx, round.ID)
	require.NoError(t, err)
	return repo, round, matches, picks
}

func TestReconcile_WritesChangedScoreOnce(t *testing.T) {
	repo, round, matches, picks := setup(t, 0)
	rec := NewReconciler(logger.NewNop(), repo, Options{})

	res := rec.Reconcile(context.Background(), round, matches, picks)
	assert.Equal(t, Result{Considered: 1, Written: 1}, res)
	assert.Equal(t, []mock.ScoreWrite{{PickID: "R1_u1", Score: 1}}, repo.ScoreWrites())

	stored, err := repo.GetPick(context.Background(), "R1_u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Score)
}

func TestReconcile_Idempotent(t *testing.T) {
	repo, round, matches, _ := setup(t, 0)
	rec := NewReconciler(logger.NewNop(), repo, Options{})
	ctx := context.Background()

	picks, _ := repo.ListPicksForRound(ctx, round.ID)
	rec.Reconcile(ctx, round, matches, picks)

	picks, _ = repo.ListPicksForRound(ctx, round.ID)
	res := rec.Reconcile(ctx, round, matches, picks)
	assert.Equal(t, 0, res.Written)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, repo.ScoreWrites(), 1)
}

func TestReconcile_ScoreAlreadyCurrent(t *testing.T) {
	repo, round, matches, picks := setup(t, 1)
	rec := NewReconciler(logger.NewNop(), repo, Options{})

	res := rec.Reconcile(context.Background(), round, matches, picks)
	assert.Equal(t, Result{Considered: 1, Skipped: 1}, res)
	assert.Empty(t, repo.ScoreWrites())
}

func TestReconcile_NoResultsNoWrites(t *testing.T) {
	repo, round, matches, picks := setup(t, 5)
	rec := NewReconciler(logger.NewNop(), repo, Options{})

	unresolved := []models.Match{matches[1], matches[2]}
	res := rec.Reconcile(context.Background(), round, unresolved, picks)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, repo.ScoreWrites())
}

func TestReconcile_NothingToDo(t *testing.T) {
	repo, round, matches, picks := setup(t, 0)
	rec := NewReconciler(logger.NewNop(), repo, Options{})
	ctx := context.Background()

	assert.Equal(t, Result{}, rec.Reconcile(ctx, nil, matches, picks))
	assert.Equal(t, Result{}, rec.Reconcile(ctx, round, nil, picks))
	assert.Equal(t, Result{}, rec.Reconcile(ctx, round, matches, nil))
	assert.Empty(t, repo.ScoreWrites())
}

func TestReconcile_EmptySelectionsSkipped(t *testing.T) {
	repo, round, matches, _ := setup(t, 0)
	rec := NewReconciler(logger.NewNop(), repo, Options{})

	p2 := []models.Pick{{ID: "P2", UserID: "u2", RoundID: round.ID, Score: 3}}
	res := rec.Reconcile(context.Background(), round, matches, p2)
	assert.Equal(t, Result{Considered: 1, Skipped: 1}, res)
}

func TestReconcile_CancelledBeforeStart(t *testing.T) {
	repo, round, matches, picks := setup(t, 0)
	rec := NewReconciler(logger.NewNop(), repo, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := rec.Reconcile(ctx, round, matches, picks)
	assert.True(t, res.Cancelled)
	assert.Zero(t, res.Written)
	assert.Empty(t, repo.ScoreWrites())
}

// cancellingRepo cancels the pass after its first successful write
type cancellingRepo struct {
	Repository
	cancel context.CancelFunc
	writes int
}

func (c *cancellingRepo) UpdatePickScore(ctx context.Context, id string, score int) error {
	c.writes++
	c.cancel()
	return nil
}

func TestReconcile_CancelledMidPass(t *testing.T) {
	_, round, matches, _ := setup(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	picks := make([]models.Pick, 5)
	for i := range picks {
		picks[i] = models.Pick{ID: fmt.Sprintf("p%d", i), RoundID: round.ID, Selections: []models.Selection{{MatchID: "M1", PredictedWinnerTeamID: "A1"}}}
	}

	repo := &cancellingRepo{cancel: cancel}
	rec := NewReconciler(logger.NewNop(), repo, Options{})

	res := rec.Reconcile(ctx, round, matches, picks)
	assert.Equal(t, 1, repo.writes)
	assert.Equal(t, 1, res.Written)
	assert.True(t, res.Cancelled)
}

// cancelOnWriteRepo cancels the pass as a write is issued, then writes
// through the real store, which honours ctx
type cancelOnWriteRepo struct {
	Repository
	cancel context.CancelFunc
}

func (c *cancelOnWriteRepo) UpdatePickScore(ctx context.Context, id string, score int) error {
	c.cancel()
	return c.Repository.UpdatePickScore(ctx, id, score)
}

func TestReconcile_IssuedWriteSurvivesCancel(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	testutil.SeedWeekOne(t, repo)
	for _, uid := range []string{"u1", "u2", "u3"} {
		_, err := repo.CreatePick(ctx, models.Pick{UserID: uid, RoundID: testutil.RoundID, Selections: testutil.P1Selections()})
		require.NoError(t, err)
	}
	round, err := repo.GetRound(ctx, testutil.RoundID)
	require.NoError(t, err)
	matches, _, err := repo.GetMatches(ctx, round.MatchIDs)
	require.NoError(t, err)
	picks, err := repo.ListPicksForRound(ctx, round.ID)
	require.NoError(t, err)

	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	metrics := NewMetrics(prometheus.NewRegistry())
	rec := NewReconciler(logger.NewNop(), &cancelOnWriteRepo{Repository: repo, cancel: cancel}, Options{Metrics: metrics})

	res := rec.Reconcile(passCtx, round, matches, picks)
	assert.Equal(t, Result{Considered: 2, Written: 1, Cancelled: true}, res)
	assert.Equal(t, float64(0), promtest.ToFloat64(metrics.WriteFailures))
	assert.Equal(t, float64(1), promtest.ToFloat64(metrics.Writes))

	// the store still holds every pick and the issued write landed
	stored, err := repo.ListPicksForRound(ctx, round.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	scored := 0
	for _, p := range stored {
		if p.Score == 1 {
			scored++
		}
	}
	assert.Equal(t, 1, scored)
}

func TestReconcile_ConcurrentIssuedWritesSurviveCancel(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	testutil.SeedWeekOne(t, repo)
	for i := 0; i < 10; i++ {
		_, err := repo.CreatePick(ctx, models.Pick{UserID: fmt.Sprintf("user%02d", i), RoundID: testutil.RoundID, Selections: testutil.P1Selections()})
		require.NoError(t, err)
	}
	round, err := repo.GetRound(ctx, testutil.RoundID)
	require.NoError(t, err)
	matches, _, err := repo.GetMatches(ctx, round.MatchIDs)
	require.NoError(t, err)
	picks, err := repo.ListPicksForRound(ctx, round.ID)
	require.NoError(t, err)

	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	rec := NewReconciler(logger.NewNop(), &cancelOnWriteRepo{Repository: repo, cancel: cancel}, Options{Concurrency: 4})

	res := rec.Reconcile(passCtx, round, matches, picks)
	assert.True(t, res.Cancelled)
	assert.Zero(t, res.Failed)
	assert.GreaterOrEqual(t, res.Written, 1)

	stored, err := repo.ListPicksForRound(ctx, round.ID)
	require.NoError(t, err)
	require.Len(t, stored, 10)
	scored := 0
	for _, p := range stored {
		if p.Score == 1 {
			scored++
		}
	}
	assert.Equal(t, res.Written, scored)
}

func TestReconcile_WriteFailureContinues(t *testing.T) {
	repo, round, matches, _ := setup(t, 0)
	ctx := context.Background()

	_, err := repo.CreatePick(ctx, models.Pick{UserID: "u2", RoundID: round.ID, Selections: testutil.P1Selections()})
	require.NoError(t, err)
	picks, _ := repo.ListPicksForRound(ctx, round.ID)

	repo.UpdatePickScoreError = errors.New("permission denied")
	repo.FailScoreFor = map[string]bool{"R1_u1": true}

	rec := NewReconciler(logger.NewNop(), repo, Options{})
	res := rec.Reconcile(ctx, round, matches, picks)

	assert.Equal(t, 1, res.Written)
	assert.Equal(t, 1, res.Failed)
	assert.False(t, res.Cancelled)
	assert.Equal(t, []mock.ScoreWrite{{PickID: "R1_u2", Score: 1}}, repo.ScoreWrites())
}

func TestReconcile_Concurrent(t *testing.T) {
	repo, round, matches, _ := setup(t, 0)
	ctx := context.Background()

	for i := 0; i < 40; i++ {
		_, err := repo.CreatePick(ctx, models.Pick{UserID: fmt.Sprintf("user%02d", i), RoundID: round.ID, Selections: testutil.P1Selections()})
		require.NoError(t, err)
	}
	picks, _ := repo.ListPicksForRound(ctx, round.ID)

	rec := NewReconciler(logger.NewNop(), repo, Options{Concurrency: 8})
	res := rec.Reconcile(ctx, round, matches, picks)
	assert.Equal(t, 41, res.Written)
	assert.Equal(t, 41, res.Considered)

	picks, _ = repo.ListPicksForRound(ctx, round.ID)
	res = rec.Reconcile(ctx, round, matches, picks)
	assert.Zero(t, res.Written)
	for _, p := range picks {
		assert.Equal(t, 1, p.Score, "pick %s", p.ID)
	}
}

func TestReconcile_ConcurrentCancelled(t *testing.T) {
	repo, round, matches, picks := setup(t, 0)
	rec := NewReconciler(logger.NewNop(), repo, Options{Concurrency: 4})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := rec.Reconcile(ctx, round, matches, picks)
	assert.True(t, res.Cancelled)
	assert.Empty(t, repo.ScoreWrites())
}

func TestReconcile_NotifiesAndRecordsMetrics(t *testing.T) {
	repo, round, matches, picks := setup(t, 0)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	notifier := &recordingNotifier{}

	rec := NewReconciler(logger.NewNop(), repo, Options{Metrics: metrics, Notifier: notifier})
	rec.Reconcile(context.Background(), round, matches, picks)

	assert.Equal(t, []string{"R1:1"}, notifier.Calls())
	assert.Equal(t, float64(1), promtest.ToFloat64(metrics.Passes))
	assert.Equal(t, float64(1), promtest.ToFloat64(metrics.Writes))
	assert.Equal(t, float64(0), promtest.ToFloat64(metrics.WriteFailures))

	// nothing changed, nobody is told
	picks, _ = repo.ListPicksForRound(context.Background(), round.ID)
	rec.Reconcile(context.Background(), round, matches, picks)
	assert.Len(t, notifier.Calls(), 1)
}

func TestReconcileRound(t *testing.T) {
	repo, _, _, _ := setup(t, 0)
	rec := NewReconciler(logger.NewNop(), repo, Options{})

	res, err := rec.ReconcileRound(context.Background(), testutil.RoundID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)

	_, err = rec.ReconcileRound(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReconcileRound_DanglingMatchIgnored(t *testing.T) {
	repo, round, _, _ := setup(t, 0)
	ctx := context.Background()

	round.MatchIDs = append(round.MatchIDs, "deleted-match")
	require.NoError(t, repo.UpdateRound(ctx, *round))

	res, err := NewReconciler(logger.NewNop(), repo, Options{}).ReconcileRound(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)
}

func TestReconcileRound_RepositoryErrors(t *testing.T) {
	repo, _, _, _ := setup(t, 0)
	rec := NewReconciler(logger.NewNop(), repo, Options{})
	boom := errors.New("store unavailable")

	repo.GetMatchesError = boom
	_, err := rec.ReconcileRound(context.Background(), testutil.RoundID)
	assert.ErrorIs(t, err, boom)

	repo.GetMatchesError = nil
	repo.ListPicksForRoundError = boom
	_, err = rec.ReconcileRound(context.Background(), testutil.RoundID)
	assert.ErrorIs(t, err, boom)
}

func TestReconcileAll(t *testing.T) {
	repo, _, _, _ := setup(t, 0)
	rec := NewReconciler(logger.NewNop(), repo, Options{})
	ctx := context.Background()

	_, err := repo.CreateRound(ctx, models.Round{ID: "R2", Name: "Empty", Active: true})
	require.NoError(t, err)

	res, err := rec.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)

	repo.ListRoundsError = errors.New("boom")
	_, err = rec.ReconcileAll(ctx)
	assert.Error(t, err)
}

func TestResult_Add(t *testing.T) {
	r := Result{Considered: 1, Written: 1}
	r.Add(Result{Considered: 2, Skipped: 1, Failed: 1, Cancelled: true})
	assert.Equal(t, Result{Considered: 3, Written: 1, Skipped: 1, Failed: 1, Cancelled: true}, r)
}
