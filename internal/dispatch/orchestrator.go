// Package dispatch runs the reminder batch: every active snapshot ×
// resolvable item × normalized lead day is evaluated against the current
// dispatch window, checked against the delivery ledger, and delivered
// over whichever channels are configured.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/subwatch/reminder-dispatch/internal/channel"
	"github.com/subwatch/reminder-dispatch/internal/domain"
	"github.com/subwatch/reminder-dispatch/internal/ledger"
	"github.com/subwatch/reminder-dispatch/internal/normalize"
	"github.com/subwatch/reminder-dispatch/internal/ratelimiter"
	"github.com/subwatch/reminder-dispatch/internal/repository"
	"github.com/subwatch/reminder-dispatch/internal/schedule"
	"github.com/subwatch/reminder-dispatch/internal/tz"
)

// Hooks carries the metric callbacks injected by main. Using a struct
// keeps the orchestrator constructor signature clean; nil fields are
// replaced with no-ops.
type Hooks struct {
	OnDelivered func(domain.Channel)
	OnFailed    func(domain.Channel)
	OnRun       func(time.Duration)
}

// Options tunes one orchestrator. Zero values get sane defaults.
type Options struct {
	// Window is how long after its scheduled instant a reminder stays
	// eligible. Defaults to schedule.DefaultWindow (30m).
	Window time.Duration

	// AppBaseURL prefixes the deep links embedded in notifications.
	AppBaseURL string

	// Concurrency bounds the number of snapshots processed in parallel.
	// Different snapshots never share ledger keys, so parallelism is
	// safe; within a snapshot (item, lead) pairs run in order.
	Concurrency int

	// Now overrides the clock in tests.
	Now func() time.Time

	Hooks Hooks
}

// Orchestrator coordinates one batch run end to end. It holds no mutable
// state between runs; everything per-run lives on the stack.
type Orchestrator struct {
	repo    repository.ReminderRepository
	ledger  ledger.Ledger
	zones   *tz.Resolver
	push    channel.PushSender
	email   channel.EmailSender
	limiter *ratelimiter.ChannelLimiters
	logger  *zap.Logger

	window      time.Duration
	appBaseURL  string
	concurrency int
	now         func() time.Time
	hooks       Hooks
}

func NewOrchestrator(
	repo repository.ReminderRepository,
	led ledger.Ledger,
	zones *tz.Resolver,
	push channel.PushSender,
	email channel.EmailSender,
	limiter *ratelimiter.ChannelLimiters,
	logger *zap.Logger,
	opts Options,
) *Orchestrator {
	if opts.Window <= 0 {
		opts.Window = schedule.DefaultWindow
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Hooks.OnDelivered == nil {
		opts.Hooks.OnDelivered = func(domain.Channel) {}
	}
	if opts.Hooks.OnFailed == nil {
		opts.Hooks.OnFailed = func(domain.Channel) {}
	}
	if opts.Hooks.OnRun == nil {
		opts.Hooks.OnRun = func(time.Duration) {}
	}

	return &Orchestrator{
		repo:        repo,
		ledger:      led,
		zones:       zones,
		push:        push,
		email:       email,
		limiter:     limiter,
		logger:      logger,
		window:      opts.Window,
		appBaseURL:  opts.AppBaseURL,
		concurrency: opts.Concurrency,
		now:         opts.Now,
		hooks:       opts.Hooks,
	}
}

// Run executes one batch pass. Per-item failures are collected into the
// result and never abort the pass; the only error returned is a
// top-level one (snapshots could not be loaded at all).
func (o *Orchestrator) Run(ctx context.Context) (domain.DispatchResult, error) {
	start := time.Now()
	defer func() { o.hooks.OnRun(time.Since(start)) }()

	result := domain.DispatchResult{Errors: []string{}, Warnings: []string{}}

	// Valid operating mode, not an error: nothing to send with, so the
	// whole batch short-circuits before touching storage.
	if !o.push.Configured() && !o.email.Configured() {
		result.Warnings = append(result.Warnings, domain.ErrNoChannels.Error()+"; skipping dispatch")
		o.logger.Warn("dispatch skipped: no channels configured")
		return result, nil
	}

	snapshots, err := o.repo.ListActiveSnapshots(ctx)
	if err != nil {
		return result, fmt.Errorf("load active snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return result, nil
	}

	now := o.now().UTC()

	// Fan snapshots out to a bounded pool. Ledger keys are partitioned
	// by snapshot, so concurrent snapshots cannot interfere.
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, o.concurrency)
	)
	for _, snap := range snapshots {
		wg.Add(1)
		sem <- struct{}{}
		go func(snap *domain.ReminderSnapshot) {
			defer wg.Done()
			defer func() { <-sem }()

			partial := o.processSnapshot(ctx, now, snap)

			mu.Lock()
			result.Merge(partial)
			mu.Unlock()
		}(snap)
	}
	wg.Wait()

	o.logger.Info("dispatch run complete",
		zap.Int("snapshots", len(snapshots)),
		zap.Int("dispatched", result.ReminderDispatches),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// processSnapshot walks one snapshot's items × lead days. All failures
// are captured in the returned partial result.
func (o *Orchestrator) processSnapshot(ctx context.Context, now time.Time, snap *domain.ReminderSnapshot) domain.DispatchResult {
	var res domain.DispatchResult

	settings := normalize.Settings(snap.Settings)
	if !settings.Enabled {
		return res
	}

	items := normalize.Items(snap.Items)
	if len(items) == 0 {
		return res
	}

	leads := domain.NormalizeLeadDays(settings.LeadDays)
	zone := o.zones.Resolve(ctx, settings, snap.UserID)

	for _, item := range items {
		billing, ok := schedule.BillingDate(item.NextBillingDate, item.NextBillingAt)
		if !ok {
			continue // no resolvable billing date: skipped, not an error
		}

		for _, lead := range leads {
			instant := schedule.Instant(billing, lead, settings.TimeOfDay, zone, snap.TZOffsetMinutes)
			if !schedule.Due(now, instant, o.window) {
				continue
			}

			billingDate := billing.String()

			sent, err := o.ledger.WasSent(ctx, snap.ID, billingDate, lead)
			if err != nil {
				res.Errors = append(res.Errors,
					fmt.Sprintf("ledger check %s/%s/%d: %v", snap.ID, billingDate, lead, err))
				continue
			}
			if sent {
				continue
			}

			if !o.deliver(ctx, snap, item, lead, billingDate, &res) {
				continue // all channels failed: leave unledgered, eligible next run
			}

			if err := o.ledger.MarkSent(ctx, snap.ID, billingDate, lead); err != nil {
				res.Errors = append(res.Errors,
					fmt.Sprintf("ledger write %s/%s/%d: %v", snap.ID, billingDate, lead, err))
			}
			res.ReminderDispatches++
		}
	}
	return res
}

// deliver attempts every configured channel independently and reports
// whether at least one succeeded. A push failure never suppresses the
// email attempt and vice versa.
func (o *Orchestrator) deliver(
	ctx context.Context,
	snap *domain.ReminderSnapshot,
	item domain.ReminderItem,
	lead int,
	billingDate string,
	res *domain.DispatchResult,
) bool {
	url := o.appBaseURL + "/subscriptions/" + item.ID
	pushOK := o.deliverPush(ctx, snap, item, lead, url, res)
	emailOK := o.deliverEmail(ctx, snap, item, lead, billingDate, url, res)
	return pushOK || emailOK
}

func (o *Orchestrator) deliverPush(
	ctx context.Context,
	snap *domain.ReminderSnapshot,
	item domain.ReminderItem,
	lead int,
	url string,
	res *domain.DispatchResult,
) bool {
	if !o.push.Configured() {
		return false
	}

	sub, err := o.repo.PushSubscription(ctx, snap.UserID)
	if err != nil {
		res.Errors = append(res.Errors,
			fmt.Sprintf("push %s/%s: %v", snap.UserID, item.ID, err))
		return false
	}

	if err := o.limiter.Wait(ctx, domain.ChannelPush); err != nil {
		return false // ctx cancelled while waiting; run is shutting down
	}

	payload := channel.PushPayload{
		Title: "Subscription reminder",
		Body:  fmt.Sprintf("%s %s", item.Name, domain.RenewalPhrase(lead)),
		Icon:  "/icons/icon-192.png",
		Badge: "/icons/badge-72.png",
		Tag:   channel.ReminderTag,
		Data: channel.PushData{
			SubscriptionID: item.ID,
			LeadDays:       lead,
			URL:            url,
		},
	}

	if err := o.push.Send(ctx, sub, payload); err != nil {
		res.Errors = append(res.Errors,
			fmt.Sprintf("push %s/%s: %v", snap.UserID, item.ID, err))
		o.hooks.OnFailed(domain.ChannelPush)
		return false
	}

	o.hooks.OnDelivered(domain.ChannelPush)
	return true
}

func (o *Orchestrator) deliverEmail(
	ctx context.Context,
	snap *domain.ReminderSnapshot,
	item domain.ReminderItem,
	lead int,
	billingDate, url string,
	res *domain.DispatchResult,
) bool {
	if !o.email.Configured() {
		return false
	}

	// Email is gated on the user's own notification preferences, a
	// record separate from the snapshot. Absence or opt-out is a skip,
	// not an error.
	ns, err := o.repo.NotificationSettings(ctx, snap.UserID)
	if err != nil || !ns.Enabled || !ns.HasChannel(domain.ChannelEmail) {
		return false
	}

	addr, err := o.repo.UserEmail(ctx, snap.UserID)
	if err != nil {
		res.Errors = append(res.Errors,
			fmt.Sprintf("email %s/%s: %v", snap.UserID, item.ID, err))
		return false
	}
	if addr == "" {
		return false // no address on file: skip silently
	}

	if err := o.limiter.Wait(ctx, domain.ChannelEmail); err != nil {
		return false
	}

	msg := channel.RenderReminderEmail(addr, item.Name, lead, billingDate, url)
	if err := o.email.Send(ctx, msg); err != nil {
		res.Errors = append(res.Errors,
			fmt.Sprintf("email %s/%s: %v", snap.UserID, item.ID, err))
		o.hooks.OnFailed(domain.ChannelEmail)
		return false
	}

	o.hooks.OnDelivered(domain.ChannelEmail)
	return true
}
