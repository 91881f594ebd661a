package scoring

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/pickem"
)

// Feed streams the latest rounds, matches and picks
type Feed interface {
	WatchRounds(ctx context.Context) (<-chan []models.Round, error)
	WatchMatches(ctx context.Context) (<-chan []models.Match, error)
	WatchPicks(ctx context.Context) (<-chan []models.Pick, error)
}

// ErrFeedClosed is returned by Run when a change stream ends before the
// watcher is stopped
var ErrFeedClosed = errors.New("change feed closed")

// Watcher reruns reconciliation whenever rounds, matches or picks change.
// A change cancels the pass in flight and starts a new one over the latest
// data, so at most one pass runs at a time. Pick snapshots that differ only
// in stored scores, such as the echo of the watcher's own writes, never
// cancel a running pass; they are checked once it finishes.
type Watcher struct {
	log      logger.Logger
	feed     Feed
	rec      *Reconciler
	debounce time.Duration

	// onPass is called after every completed or cancelled pass
	onPass func(Result)
}

// NewWatcher creates a watcher. A positive debounce coalesces bursts of
// changes into one pass.
func NewWatcher(log logger.Logger, feed Feed, rec *Reconciler, debounce time.Duration) *Watcher {
	return &Watcher{
		log:      log.With("component", "scoring-watcher"),
		feed:     feed,
		rec:      rec,
		debounce: debounce,
	}
}

type snapshot struct {
	rounds  []models.Round
	matches []models.Match
	picks   []models.Pick
}

// Run watches until ctx is cancelled or a feed closes
func (w *Watcher) Run(ctx context.Context) error {
	ctx, unsubscribe := context.WithCancel(ctx)
	defer unsubscribe()

	rounds, err := w.feed.WatchRounds(ctx)
	if err != nil {
		return err
	}
	matches, err := w.feed.WatchMatches(ctx)
	if err != nil {
		return err
	}
	picks, err := w.feed.WatchPicks(ctx)
	if err != nil {
		return err
	}

	var (
		snap                               snapshot
		haveRounds, haveMatches, havePicks bool
		passCancel                         context.CancelFunc
		passDone                           chan struct{}
		stale                              bool
		timer                              *time.Timer
		timerC                             <-chan time.Time
	)

	stopPass := func() {
		if passCancel != nil {
			passCancel()
			<-passDone
			passCancel, passDone = nil, nil
		}
	}
	defer stopPass()

	startPass := func() {
		stopPass()
		stale = false
		passCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		passCancel, passDone = cancel, done
		data := snap
		go func() {
			defer close(done)
			res := w.pass(passCtx, data)
			if w.onPass != nil {
				w.onPass(res)
			}
		}()
	}

	changed := func() {
		if !haveRounds || !haveMatches || !havePicks {
			return
		}
		if w.debounce <= 0 {
			startPass()
			return
		}
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		timerC = timer.C
	}

	w.log.Info("Watching for result changes")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Stopped watching for result changes")
			return nil
		case r, ok := <-rounds:
			if !ok {
				return w.closed(ctx)
			}
			snap.rounds, haveRounds = r, true
			changed()
		case m, ok := <-matches:
			if !ok {
				return w.closed(ctx)
			}
			snap.matches, haveMatches = m, true
			changed()
		case p, ok := <-picks:
			if !ok {
				return w.closed(ctx)
			}
			prev := snap.picks
			snap.picks = p
			switch {
			case !havePicks || !sameSelections(prev, p):
				havePicks = true
				changed()
			case passCancel != nil:
				stale = true
			case w.pending(snap):
				changed()
			}
		case <-passDone:
			passCancel()
			passCancel, passDone = nil, nil
			if stale && w.pending(snap) {
				changed()
			}
			stale = false
		case <-timerC:
			timerC = nil
			startPass()
		}
	}
}

func (w *Watcher) closed(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	return ErrFeedClosed
}

// Supervise runs the watcher until ctx is cancelled, subscribing again
// whenever a run ends early. The delay between runs doubles from minDelay
// up to maxDelay and starts over after a run that lasted longer than maxDelay.
func (w *Watcher) Supervise(ctx context.Context, minDelay, maxDelay time.Duration) {
	delay := minDelay
	for {
		started := time.Now()
		err := w.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > maxDelay {
			delay = minDelay
		}
		w.log.Warn("Scoring watcher stopped, restarting", "error", err, "retry_in", delay)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
		delay = min(delay*2, maxDelay)
	}
}

// sameSelections reports whether two pick snapshots hold the same picks
// with the same selections, ignoring stored scores and timestamps
func sameSelections(a, b []models.Pick) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]*models.Pick, len(a))
	for i := range a {
		byID[a[i].ID] = &a[i]
	}
	for i := range b {
		p, ok := byID[b[i].ID]
		if !ok || p.RoundID != b[i].RoundID || !slices.Equal(p.Selections, b[i].Selections) {
			return false
		}
	}
	return true
}

type roundWork struct {
	round   *models.Round
	matches []models.Match
	picks   []models.Pick
}

// split resolves each round's matches and picks within the snapshot.
// Dangling match ids are dropped.
func split(snap snapshot) []roundWork {
	byID := make(map[string]models.Match, len(snap.matches))
	for _, m := range snap.matches {
		byID[m.ID] = m
	}
	byRound := make(map[string][]models.Pick)
	for _, p := range snap.picks {
		byRound[p.RoundID] = append(byRound[p.RoundID], p)
	}

	work := make([]roundWork, 0, len(snap.rounds))
	for i := range snap.rounds {
		round := &snap.rounds[i]
		roundMatches := make([]models.Match, 0, len(round.MatchIDs))
		for _, id := range round.MatchIDs {
			if m, ok := byID[id]; ok {
				roundMatches = append(roundMatches, m)
			}
		}
		work = append(work, roundWork{round: round, matches: roundMatches, picks: byRound[round.ID]})
	}
	return work
}

// pending reports whether a pass over snap would write anything
func (w *Watcher) pending(snap snapshot) bool {
	for _, rw := range split(snap) {
		if !pickem.AnyResolved(rw.matches) {
			continue
		}
		for i := range rw.picks {
			if _, ok := needsWrite(rw.matches, &rw.picks[i]); ok {
				return true
			}
		}
	}
	return false
}

// pass reconciles every round in the snapshot
func (w *Watcher) pass(ctx context.Context, snap snapshot) Result {
	var total Result
	for _, rw := range split(snap) {
		if ctx.Err() != nil {
			total.Cancelled = true
			break
		}
		total.Add(w.rec.Reconcile(ctx, rw.round, rw.matches, rw.picks))
	}
	return total
}
