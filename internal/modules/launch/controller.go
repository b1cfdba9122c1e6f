package launch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mx-space/landing/internal/models"
	"github.com/mx-space/landing/internal/modules/subscriber"
	"github.com/mx-space/landing/internal/pkg/metrics"
	"github.com/mx-space/landing/internal/pkg/schedule"
	"go.uber.org/zap"
)

// Mode selects when broadcast passes run.
type Mode string

const (
	// ModeFixed runs a single pass a fixed delay after Start.
	ModeFixed Mode = "fixed"
	// ModePerSignup schedules a pass after every signup.
	ModePerSignup Mode = "per_signup"
)

// Broadcast triggers, used as task names and metric labels.
const (
	TriggerTimer      = "launch_broadcast"
	TriggerSignup     = "launch_followup"
	TriggerLateSignup = "launch_late_signup"
	TriggerManual     = "manual"
)

type Options struct {
	Mode   Mode
	Delay  time.Duration
	Window time.Duration
	// NotifyLateSignups makes fixed mode run another pass for signups that
	// arrive after the one-shot timer, once the site is live.
	NotifyLateSignups bool
}

// Store is the part of the subscriber store the controller needs.
type Store interface {
	FindAwaitingLaunch(ctx context.Context) ([]models.Subscriber, error)
	MarkActive(ctx context.Context, email string) error
	CountActive(ctx context.Context) (int64, error)
}

// Notifier delivers the live notice.
type Notifier interface {
	SendLaunchNotice(to string) error
}

// Result summarizes one broadcast pass.
type Result struct {
	Trigger    string `json:"trigger"`
	Candidates int    `json:"candidates"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
}

// Controller moves subscribers from awaiting launch to active by sending the
// live notice on a schedule.
type Controller struct {
	store    Store
	notifier Notifier
	guard    SendGuard
	sched    *schedule.Scheduler
	opts     Options
	log      *zap.Logger
	now      func() time.Time

	started atomic.Bool
	fired   atomic.Bool

	mu        sync.Mutex
	followUps map[string]string // email -> pending follow-up task id
}

func New(store Store, notifier Notifier, guard SendGuard, sched *schedule.Scheduler, opts Options, log *zap.Logger) *Controller {
	if guard == nil {
		guard = NewMemoryGuard()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = ModePerSignup
	}
	return &Controller{
		store:     store,
		notifier:  notifier,
		guard:     guard,
		sched:     sched,
		opts:      opts,
		log:       log.Named("LaunchController"),
		now:       time.Now,
		followUps: make(map[string]string),
	}
}

// Start arms the one-shot timer in fixed mode. It is a no-op in per-signup
// mode and on repeated calls.
func (c *Controller) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return nil
	}
	switch c.opts.Mode {
	case ModeFixed:
		h, err := c.sched.Schedule(schedule.Task{
			Name:  TriggerTimer,
			Delay: c.opts.Delay,
			Fn: func(ctx context.Context, _ schedule.Handle) error {
				c.fired.Store(true)
				_, err := c.Broadcast(ctx, TriggerTimer)
				return err
			},
		})
		if err != nil {
			return fmt.Errorf("schedule launch broadcast: %w", err)
		}
		c.log.Info("launch broadcast scheduled", zap.String("id", h.ID), zap.Time("runAt", h.RunAt))
	case ModePerSignup:
		c.log.Info("per-signup follow-ups enabled",
			zap.Duration("delay", c.opts.Delay),
			zap.Duration("window", c.opts.Window),
		)
	default:
		return fmt.Errorf("unknown launch mode %q", c.opts.Mode)
	}
	return nil
}

// OnSubscribe reacts to a new signup. It only schedules work and never blocks
// on the store or mail transport.
func (c *Controller) OnSubscribe(_ context.Context, email string) {
	switch c.opts.Mode {
	case ModePerSignup:
		email = models.NormalizeEmail(email)
		// Held across Schedule so an immediate run cannot forget the id before it is stored.
		c.mu.Lock()
		defer c.mu.Unlock()
		h, ok := c.schedule(schedule.Task{
			Name:  TriggerSignup,
			Delay: c.opts.Delay,
			Fn: func(ctx context.Context, h schedule.Handle) error {
				c.forgetFollowUp(email, h.ID)
				return c.followUp(ctx, h)
			},
		}, email)
		if ok {
			c.followUps[email] = h.ID
		}
	case ModeFixed:
		if !c.opts.NotifyLateSignups || !c.fired.Load() {
			return
		}
		c.schedule(schedule.Task{
			Name: TriggerLateSignup,
			Fn:   c.lateSignup,
		}, email)
	}
}

// OnUnsubscribe cancels the follow-up the address scheduled, if it has not run yet.
func (c *Controller) OnUnsubscribe(_ context.Context, email string) {
	email = models.NormalizeEmail(email)
	c.mu.Lock()
	id, ok := c.followUps[email]
	delete(c.followUps, email)
	c.mu.Unlock()
	if ok && c.sched.Cancel(id) {
		c.log.Debug("follow-up cancelled", zap.String("id", id), zap.String("email", email))
	}
}

func (c *Controller) forgetFollowUp(email, id string) {
	c.mu.Lock()
	if c.followUps[email] == id {
		delete(c.followUps, email)
	}
	c.mu.Unlock()
}

func (c *Controller) schedule(task schedule.Task, email string) (schedule.Handle, bool) {
	h, err := c.sched.Schedule(task)
	if err != nil {
		c.log.Warn("could not schedule broadcast", zap.String("task", task.Name), zap.String("email", email), zap.Error(err))
		return schedule.Handle{}, false
	}
	c.log.Debug("broadcast scheduled", zap.String("task", task.Name), zap.String("id", h.ID), zap.String("email", email))
	return h, true
}

// followUp runs a per-signup pass unless the attempt fired outside the window.
func (c *Controller) followUp(ctx context.Context, h schedule.Handle) error {
	elapsed := c.now().Sub(h.ScheduledAt)
	if c.opts.Window > 0 && elapsed > c.opts.Window {
		metrics.BroadcastPasses.WithLabelValues(TriggerSignup, "abandoned").Inc()
		c.log.Info("follow-up outside window, abandoned",
			zap.String("id", h.ID),
			zap.Duration("elapsed", elapsed),
			zap.Duration("window", c.opts.Window),
		)
		return nil
	}
	_, err := c.Broadcast(ctx, TriggerSignup)
	return err
}

// lateSignup runs a fixed-mode pass for signups after the timer, if the site is live.
func (c *Controller) lateSignup(ctx context.Context, _ schedule.Handle) error {
	active, err := c.store.CountActive(ctx)
	if err != nil {
		return fmt.Errorf("check site live: %w", err)
	}
	if active == 0 {
		metrics.BroadcastPasses.WithLabelValues(TriggerLateSignup, "abandoned").Inc()
		return nil
	}
	_, err = c.Broadcast(ctx, TriggerLateSignup)
	return err
}

// Broadcast runs one pass over every subscriber still awaiting launch.
// A failed send is logged and the pass continues with the next subscriber;
// only a failed store read aborts it.
func (c *Controller) Broadcast(ctx context.Context, trigger string) (Result, error) {
	res := Result{Trigger: trigger}

	pending, err := c.store.FindAwaitingLaunch(ctx)
	if err != nil {
		metrics.BroadcastPasses.WithLabelValues(trigger, "failed").Inc()
		c.log.Error("load pending subscribers failed", zap.String("trigger", trigger), zap.Error(err))
		return res, fmt.Errorf("load pending subscribers: %w", err)
	}
	res.Candidates = len(pending)

	for _, sub := range pending {
		if err := ctx.Err(); err != nil {
			metrics.BroadcastPasses.WithLabelValues(trigger, "failed").Inc()
			c.log.Warn("broadcast interrupted", zap.String("trigger", trigger), zap.Int("sent", res.Sent), zap.Error(err))
			return res, err
		}
		if sub.FollowUpSent {
			res.Skipped++
			continue
		}
		c.deliver(ctx, sub, &res)
	}

	metrics.BroadcastPasses.WithLabelValues(trigger, "completed").Inc()
	c.log.Info("broadcast pass finished",
		zap.String("trigger", trigger),
		zap.Int("candidates", res.Candidates),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// claimKey identifies one subscriber record, so an address that unsubscribes
// and signs up again gets a fresh claim.
func claimKey(sub models.Subscriber) string {
	return models.NormalizeEmail(sub.Email) + "#" + strconv.FormatInt(sub.CreatedAt.UnixNano(), 10)
}

func (c *Controller) deliver(ctx context.Context, sub models.Subscriber, res *Result) {
	email := sub.Email
	key := claimKey(sub)
	claimed, err := c.guard.Claim(ctx, key)
	if err != nil {
		res.Failed++
		c.log.Warn("claim failed", zap.String("email", email), zap.Error(err))
		return
	}
	if !claimed {
		res.Skipped++
		return
	}

	if err := c.notifier.SendLaunchNotice(email); err != nil {
		res.Failed++
		c.log.Error("live notice failed", zap.String("email", email), zap.Error(err))
		if err := c.guard.Release(ctx, key); err != nil {
			c.log.Warn("release claim failed", zap.String("email", email), zap.Error(err))
		}
		return
	}
	res.Sent++

	// The claim on this record stays taken; passes that loaded it before
	// MarkActive landed must not send again.
	if err := c.store.MarkActive(ctx, email); err != nil {
		if errors.Is(err, subscriber.ErrNotFound) {
			c.log.Info("subscriber left during broadcast", zap.String("email", email))
			return
		}
		c.log.Error("mark active failed", zap.String("email", email), zap.Error(err))
		return
	}
	metrics.SubscribersActivated.Inc()
}
