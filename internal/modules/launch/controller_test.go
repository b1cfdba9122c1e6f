package launch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mx-space/landing/internal/models"
	"github.com/mx-space/landing/internal/modules/subscriber"
	"github.com/mx-space/landing/internal/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu     sync.Mutex
	counts map[string]int
	fail   map[string]bool
	delay  time.Duration
	onSend func(email string)
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{counts: map[string]int{}, fail: map[string]bool{}}
}

func (n *fakeNotifier) SendLaunchNotice(to string) error {
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	if n.onSend != nil {
		n.onSend(to)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail[to] {
		return errors.New("mailbox unavailable")
	}
	n.counts[to]++
	return nil
}

func (n *fakeNotifier) count(email string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.counts[email]
}

func (n *fakeNotifier) setFail(email string, fail bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail[email] = fail
}

func seed(t *testing.T, store *subscriber.MemoryStore, emails ...string) {
	t.Helper()
	for _, e := range emails {
		_, err := store.Create(context.Background(), e)
		require.NoError(t, err)
	}
}

func awaiting(t *testing.T, store *subscriber.MemoryStore, email string) bool {
	t.Helper()
	sub, err := store.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return sub.IsAwaitingLaunch
}

func newController(t *testing.T, store Store, n Notifier, opts Options) (*Controller, *schedule.Scheduler) {
	t.Helper()
	sched := schedule.New()
	t.Cleanup(func() { _ = sched.Stop(context.Background()) })
	return New(store, n, NewMemoryGuard(), sched, opts, nil), sched
}

func TestBroadcastActivatesPending(t *testing.T) {
	store := subscriber.NewMemoryStore()
	seed(t, store, "a@example.com", "b@example.com")
	n := newFakeNotifier()
	c, _ := newController(t, store, n, Options{Mode: ModePerSignup})

	res, err := c.Broadcast(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, Result{Trigger: TriggerManual, Candidates: 2, Sent: 2}, res)
	assert.False(t, awaiting(t, store, "a@example.com"))
	assert.False(t, awaiting(t, store, "b@example.com"))

	res, err = c.Broadcast(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Zero(t, res.Candidates)
	assert.Equal(t, 1, n.count("a@example.com"))
}

func TestBroadcastContinuesAfterSendFailure(t *testing.T) {
	store := subscriber.NewMemoryStore()
	seed(t, store, "a@example.com", "bad@example.com", "c@example.com")
	n := newFakeNotifier()
	n.setFail("bad@example.com", true)
	c, _ := newController(t, store, n, Options{Mode: ModePerSignup})

	res, err := c.Broadcast(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, awaiting(t, store, "bad@example.com"))
	assert.False(t, awaiting(t, store, "c@example.com"))

	// The failed claim was released, so a later pass retries.
	n.setFail("bad@example.com", false)
	res, err = c.Broadcast(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.False(t, awaiting(t, store, "bad@example.com"))
	assert.Equal(t, 1, n.count("bad@example.com"))
}

func TestConcurrentBroadcastsSendOncePerSubscriber(t *testing.T) {
	store := subscriber.NewMemoryStore()
	emails := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"}
	seed(t, store, emails...)
	n := newFakeNotifier()
	n.delay = 5 * time.Millisecond
	c, _ := newController(t, store, n, Options{Mode: ModePerSignup})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Broadcast(context.Background(), TriggerSignup)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for _, e := range emails {
		assert.Equal(t, 1, n.count(e), e)
		assert.False(t, awaiting(t, store, e))
	}
}

type failingStore struct{ subscriber.MemoryStore }

func (*failingStore) FindAwaitingLaunch(context.Context) ([]models.Subscriber, error) {
	return nil, errors.New("connection reset")
}

func TestBroadcastStoreReadFailure(t *testing.T) {
	c, _ := newController(t, &failingStore{}, newFakeNotifier(), Options{Mode: ModeFixed})
	_, err := c.Broadcast(context.Background(), TriggerTimer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestBroadcastStopsOnCancelledContext(t *testing.T) {
	store := subscriber.NewMemoryStore()
	seed(t, store, "a@example.com")
	n := newFakeNotifier()
	c, _ := newController(t, store, n, Options{Mode: ModePerSignup})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Broadcast(ctx, TriggerManual)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n.count("a@example.com"))
}

func TestBroadcastSubscriberLeavesMidPass(t *testing.T) {
	store := subscriber.NewMemoryStore()
	seed(t, store, "leaver@example.com", "stayer@example.com")
	n := newFakeNotifier()
	n.onSend = func(email string) {
		if email == "leaver@example.com" {
			_, _ = store.Delete(context.Background(), email)
		}
	}
	c, _ := newController(t, store, n, Options{Mode: ModePerSignup})

	res, err := c.Broadcast(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, store.Len())
	assert.False(t, awaiting(t, store, "stayer@example.com"))
}

func TestFixedModeBroadcastsOnceAfterDelay(t *testing.T) {
	store := subscriber.NewMemoryStore()
	seed(t, store, "early@example.com")
	n := newFakeNotifier()
	c, sched := newController(t, store, n, Options{Mode: ModeFixed, Delay: 20 * time.Millisecond})

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()), "second start is a no-op")
	assert.Equal(t, 1, sched.Pending())

	require.Eventually(t, func() bool { return n.count("early@example.com") == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !awaiting(t, store, "early@example.com") }, time.Second, 5*time.Millisecond)
}

func TestFixedModeNotifiesLateSignups(t *testing.T) {
	store := subscriber.NewMemoryStore()
	seed(t, store, "early@example.com")
	n := newFakeNotifier()
	c, _ := newController(t, store, n, Options{Mode: ModeFixed, NotifyLateSignups: true})

	c.OnSubscribe(context.Background(), "early@example.com")
	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return !awaiting(t, store, "early@example.com") }, 2*time.Second, 5*time.Millisecond)

	seed(t, store, "late@example.com")
	c.OnSubscribe(context.Background(), "late@example.com")
	require.Eventually(t, func() bool { return !awaiting(t, store, "late@example.com") }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, n.count("early@example.com"))
}

func TestFixedModeStrandsLateSignupsWhenDisabled(t *testing.T) {
	store := subscriber.NewMemoryStore()
	seed(t, store, "early@example.com")
	n := newFakeNotifier()
	c, sched := newController(t, store, n, Options{Mode: ModeFixed, NotifyLateSignups: false})

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return !awaiting(t, store, "early@example.com") }, 2*time.Second, 5*time.Millisecond)

	seed(t, store, "late@example.com")
	c.OnSubscribe(context.Background(), "late@example.com")
	assert.Zero(t, sched.Pending())
	time.Sleep(50 * time.Millisecond)
	assert.True(t, awaiting(t, store, "late@example.com"))
}

func TestPerSignupFollowUp(t *testing.T) {
	store := subscriber.NewMemoryStore()
	n := newFakeNotifier()
	c, sched := newController(t, store, n, Options{Mode: ModePerSignup, Delay: 10 * time.Millisecond, Window: time.Minute})

	require.NoError(t, c.Start(context.Background()))
	assert.Zero(t, sched.Pending(), "per-signup mode arms nothing at start")

	seed(t, store, "a@example.com", "b@example.com")
	c.OnSubscribe(context.Background(), "a@example.com")
	c.OnSubscribe(context.Background(), "b@example.com")

	require.Eventually(t, func() bool {
		return !awaiting(t, store, "a@example.com") && !awaiting(t, store, "b@example.com")
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(sched.History()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, n.count("a@example.com"))
	assert.Equal(t, 1, n.count("b@example.com"))
}

func TestPerSignupOutsideWindowSendsNothing(t *testing.T) {
	store := subscriber.NewMemoryStore()
	seed(t, store, "a@example.com")
	n := newFakeNotifier()
	c, sched := newController(t, store, n, Options{Mode: ModePerSignup, Window: time.Minute})
	c.now = func() time.Time { return time.Now().Add(time.Hour) }

	c.OnSubscribe(context.Background(), "a@example.com")
	require.Eventually(t, func() bool { return len(sched.History()) == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, schedule.StatusFulfill, sched.History()[0].Status)
	assert.Zero(t, n.count("a@example.com"))
	assert.True(t, awaiting(t, store, "a@example.com"))
}

func TestStartRejectsUnknownMode(t *testing.T) {
	c, _ := newController(t, subscriber.NewMemoryStore(), newFakeNotifier(), Options{Mode: "weekly"})
	assert.Error(t, c.Start(context.Background()))
}

func TestClaimKeyTracksRecord(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	first := models.Subscriber{Email: "A@example.com", CreatedAt: created}
	again := models.Subscriber{Email: "a@example.com", CreatedAt: created.Add(time.Millisecond)}

	assert.Equal(t, claimKey(first), claimKey(models.Subscriber{Email: "a@example.com", CreatedAt: created}))
	assert.NotEqual(t, claimKey(first), claimKey(again))
}

func TestResubscribedAddressIsNotifiedAgain(t *testing.T) {
	ctx := context.Background()
	store := subscriber.NewMemoryStore()
	seed(t, store, "a@example.com")
	n := newFakeNotifier()
	c, _ := newController(t, store, n, Options{Mode: ModePerSignup})

	_, err := c.Broadcast(ctx, TriggerManual)
	require.NoError(t, err)
	require.False(t, awaiting(t, store, "a@example.com"))

	removed, err := store.Delete(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, removed)
	seed(t, store, "a@example.com")
	require.True(t, awaiting(t, store, "a@example.com"))

	res, err := c.Broadcast(ctx, TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, Result{Trigger: TriggerManual, Candidates: 1, Sent: 1}, res)
	assert.False(t, awaiting(t, store, "a@example.com"))
	assert.Equal(t, 2, n.count("a@example.com"))
}

func TestUnsubscribeCancelsPendingFollowUp(t *testing.T) {
	ctx := context.Background()
	store := subscriber.NewMemoryStore()
	n := newFakeNotifier()
	c, sched := newController(t, store, n, Options{Mode: ModePerSignup, Delay: time.Hour, Window: 2 * time.Hour})

	seed(t, store, "a@example.com", "b@example.com")
	c.OnSubscribe(ctx, "a@example.com")
	c.OnSubscribe(ctx, "b@example.com")
	require.Equal(t, 2, sched.Pending())

	c.OnUnsubscribe(ctx, "A@example.com")
	assert.Equal(t, 1, sched.Pending())
	require.Len(t, sched.History(), 1)
	assert.Equal(t, schedule.StatusCancelled, sched.History()[0].Status)

	c.OnUnsubscribe(ctx, "a@example.com")
	c.OnUnsubscribe(ctx, "stranger@example.com")
	assert.Equal(t, 1, sched.Pending(), "unknown or already cancelled addresses are ignored")
}

func TestFollowUpForgetsItselfAfterRunning(t *testing.T) {
	ctx := context.Background()
	store := subscriber.NewMemoryStore()
	c, sched := newController(t, store, newFakeNotifier(), Options{Mode: ModePerSignup, Window: time.Minute})

	seed(t, store, "a@example.com")
	c.OnSubscribe(ctx, "a@example.com")
	require.Eventually(t, func() bool { return len(sched.History()) == 1 }, time.Second, 5*time.Millisecond)

	c.mu.Lock()
	assert.Empty(t, c.followUps)
	c.mu.Unlock()
}
