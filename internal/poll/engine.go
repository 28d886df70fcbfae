// Package poll implements the watermark-based update delivery used by the
// client polling endpoints. Each call is an independent pull: the server
// holds no subscription state, and replaying a call with the same watermark
// before new events arrive yields an empty result and an unchanged
// watermark.
package poll

import (
	"context"
	"errors"
	"time"

	"github.com/ecomstack/ecommerce-api/internal/config"
	"github.com/ecomstack/ecommerce-api/internal/model"
)

// ErrBadTypeFilter is returned when a requested type filter contains a
// value outside the known notification types. This is a caller error, not
// a retryable condition.
var ErrBadTypeFilter = errors.New("unknown notification type in filter")

// Source is the storage the engine reads from. *repository.NotificationRepo
// satisfies it in production; tests supply an in-memory fake.
type Source interface {
	ListSince(ctx context.Context, userID uint64, since *time.Time, types []string, orderID *uint64, limit int) ([]model.Notification, error)
	HasRecentActivity(ctx context.Context, userID uint64, lookback time.Duration) (bool, error)
	NewestEventTime(ctx context.Context, userID uint64) (*time.Time, error)
}

// Result is the outcome of one poll. Watermark is nil only when the caller
// supplied no cursor and no events exist yet; it otherwise never moves
// backward relative to the supplied cursor.
type Result struct {
	Events          []model.Notification
	Watermark       *time.Time
	HasUpdates      bool
	IntervalSeconds int
}

// Engine answers update polls against a Source using the configured window
// and interval settings.
type Engine struct {
	src Source
	cfg config.PollConfig
}

func New(src Source, cfg config.PollConfig) *Engine {
	return &Engine{src: src, cfg: cfg}
}

// GetUpdates returns the user's events strictly newer than since, oldest
// first, plus the new watermark and a suggested next-poll interval. A nil
// since returns the most recent bounded window instead of the full history.
func (e *Engine) GetUpdates(ctx context.Context, userID uint64, since *time.Time, types []string) (Result, error) {
	return e.query(ctx, userID, since, types, nil)
}

// GetOrderUpdates is GetUpdates narrowed to events referencing one order.
// Ownership of the order is the caller's responsibility; the engine only
// filters.
func (e *Engine) GetOrderUpdates(ctx context.Context, userID, orderID uint64, since *time.Time) (Result, error) {
	return e.query(ctx, userID, since, nil, &orderID)
}

func (e *Engine) query(ctx context.Context, userID uint64, since *time.Time, types []string, orderID *uint64) (Result, error) {
	types, err := normalizeTypes(types)
	if err != nil {
		return Result{}, err
	}

	limit := 0
	if since == nil {
		limit = e.cfg.FirstPollLimit
	}
	events, err := e.src.ListSince(ctx, userID, since, types, orderID, limit)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Events:     events,
		Watermark:  advance(since, events),
		HasUpdates: len(events) > 0,
	}
	res.IntervalSeconds, err = e.recommend(ctx, userID)
	if err != nil {
		// The hint is advisory; a failed heuristic query must not fail
		// an otherwise successful poll.
		res.IntervalSeconds = e.cfg.NormalInterval
	}
	return res, nil
}

// advance computes the new watermark: the creation time of the newest event
// returned, or the supplied cursor when nothing matched. It never regresses
// even if a stored event somehow predates the cursor.
func advance(since *time.Time, events []model.Notification) *time.Time {
	wm := since
	for _, ev := range events {
		t := ev.CreatedAt
		if wm == nil || t.After(*wm) {
			wm = &t
		}
	}
	return wm
}

// recommend picks the next-poll interval hint: fast while order/payment
// activity is inside the lookback window, slow once the user's newest event
// is older than the idle threshold, normal otherwise.
func (e *Engine) recommend(ctx context.Context, userID uint64) (int, error) {
	active, err := e.src.HasRecentActivity(ctx, userID, e.cfg.FastLookback)
	if err != nil {
		return 0, err
	}
	if active {
		return e.cfg.FastInterval, nil
	}
	newest, err := e.src.NewestEventTime(ctx, userID)
	if err != nil {
		return 0, err
	}
	if newest == nil || time.Since(*newest) > e.cfg.IdleAfter {
		return e.cfg.SlowInterval, nil
	}
	return e.cfg.NormalInterval, nil
}

// normalizeTypes validates and dedupes a requested type filter. An empty
// filter means "all types".
func normalizeTypes(types []string) ([]string, error) {
	if len(types) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool, len(types))
	out := make([]string, 0, len(types))
	for _, t := range types {
		if !model.ValidNotificationType(t) {
			return nil, ErrBadTypeFilter
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}
