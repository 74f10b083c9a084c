package workflow

import (
	"context"
	"time"

	"github.com/bsm/redislock"

	"bitbucket.org/mmdatafocus/proposals_backend/config"
	"bitbucket.org/mmdatafocus/proposals_backend/models"
	"bitbucket.org/mmdatafocus/proposals_backend/utils"
)

// RejectReason enumerates why an alert candidate was not approved.
type RejectReason string

const (
	RejectNone            RejectReason = ""
	RejectNonBusinessDay  RejectReason = "non_business_day"
	RejectOutsideWindow   RejectReason = "outside_window"
	RejectExcludedProduct RejectReason = "excluded_product"
	RejectAlreadySent     RejectReason = "already_sent"
	RejectStoreError      RejectReason = "store_error"
)

// AlertCandidate is one client whose proposals may warrant a notification.
type AlertCandidate struct {
	ClientID string
	Products []string
}

// AlertDecision is the gate's verdict. Approval does NOT mark the alert as
// sent: the caller sends first and then calls MarkSent on the store, so a
// transport failure never burns the day's slot.
type AlertDecision struct {
	Approved bool
	AlertID  string
	Window   string
	// Date is the day the decision was evaluated for. MarkSent records the
	// marker under this date, so a midnight rollover between decide and
	// send cannot move the marker onto the wrong day.
	Date   time.Time
	Reason RejectReason
}

// AlertGate holds the gating collaborators. No current state lives here;
// every decision is evaluated fresh against the clock, the calendar and the
// durable dedup store.
type AlertGate struct {
	Calendar         models.BusinessCalendar
	Dedup            models.AlertDedupStore
	Windows          []config.AlertWindow
	ExcludedProducts []string
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (g *AlertGate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Decide runs the four checks in order: business day, clock window,
// product exclusion, durable dedup.
func (g *AlertGate) Decide(cand AlertCandidate) AlertDecision {
	now := g.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if !g.Calendar.IsBusinessDay(today) {
		return AlertDecision{Date: today, Reason: RejectNonBusinessDay}
	}

	window := ""
	for _, w := range g.Windows {
		if w.Contains(now) {
			window = w.Label
			break
		}
	}
	if window == "" {
		return AlertDecision{Date: today, Reason: RejectOutsideWindow}
	}

	if g.productExcluded(cand.Products) {
		return AlertDecision{Window: window, Date: today, Reason: RejectExcludedProduct}
	}

	alertID := models.AlertID(cand.ClientID, window)
	sent, err := g.Dedup.WasSent(alertID, today)
	if err != nil {
		// A broken dedup store must not fan out duplicate alerts; refuse.
		return AlertDecision{AlertID: alertID, Window: window, Date: today, Reason: RejectStoreError}
	}
	if sent {
		return AlertDecision{AlertID: alertID, Window: window, Date: today, Reason: RejectAlreadySent}
	}

	return AlertDecision{Approved: true, AlertID: alertID, Window: window, Date: today}
}

// MarkSent records the dispatched alert under the day the decision was
// made, not the current clock. Callers invoke it only after the transport
// reported success.
func (g *AlertGate) MarkSent(d AlertDecision) error {
	return g.Dedup.MarkSent(d.AlertID, d.Date)
}

func (g *AlertGate) productExcluded(products []string) bool {
	if len(g.ExcludedProducts) == 0 {
		return false
	}
	excluded := map[string]struct{}{}
	for _, p := range g.ExcludedProducts {
		excluded[utils.NormalizeName(p)] = struct{}{}
	}
	for _, p := range products {
		if _, ok := excluded[utils.NormalizeName(p)]; ok {
			return true
		}
	}
	return false
}

// WithAlertLock wraps the decide -> transport -> mark sequence in a redis
// lock keyed by alert_id, closing the check-then-act race between
// concurrent dispatchers. When redis is unavailable the sequence runs
// unguarded: the durable dedup row still bounds duplicates to the race
// window.
func WithAlertLock(ctx context.Context, alertID string, fn func() error) error {
	locker := config.GetRedisLock()
	if locker == nil {
		return fn()
	}
	lock, err := locker.Obtain(ctx, "alert:"+alertID, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(200*time.Millisecond), 10),
	})
	if err != nil {
		return err
	}
	defer lock.Release(ctx)
	return fn()
}
