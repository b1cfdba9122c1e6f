package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mx-space/landing/internal/pkg/metrics"
)

// TaskStatus represents the last known state of a task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusFulfill   TaskStatus = "fulfill"
	StatusReject    TaskStatus = "reject"
	StatusCancelled TaskStatus = "cancelled"
)

const historySize = 32

var (
	ErrStopped = errors.New("scheduler stopped")
	ErrNoFunc  = errors.New("task has no function")
)

// Task is a one-shot unit of delayed work.
type Task struct {
	Name  string
	Delay time.Duration
	Fn    func(ctx context.Context, h Handle) error
}

// Handle identifies a scheduled task and the instant it was scheduled.
type Handle struct {
	ID          string
	Name        string
	ScheduledAt time.Time
	RunAt       time.Time
}

// ListItem is the serializable view of a task.
type ListItem struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      TaskStatus `json:"status"`
	Message     string     `json:"message,omitempty"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	RunAt       time.Time  `json:"runAt"`
}

type taskState struct {
	Task
	handle  Handle
	status  TaskStatus
	message string
	timer   *time.Timer
}

func (ts *taskState) item() ListItem {
	return ListItem{
		ID:          ts.handle.ID,
		Name:        ts.handle.Name,
		Status:      ts.status,
		Message:     ts.message,
		ScheduledAt: ts.handle.ScheduledAt,
		RunAt:       ts.handle.RunAt,
	}
}

// Scheduler owns delayed one-shot tasks. Every task gets a handle that can be
// cancelled until it starts running.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*taskState
	history []ListItem
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	now     func() time.Time
}

// New creates an empty Scheduler.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make(map[string]*taskState),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
}

// Schedule arms a task to run once after task.Delay. Negative delays run immediately.
func (s *Scheduler) Schedule(task Task) (Handle, error) {
	if task.Fn == nil {
		return Handle{}, ErrNoFunc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return Handle{}, ErrStopped
	}

	delay := task.Delay
	if delay < 0 {
		delay = 0
	}
	now := s.now()
	ts := &taskState{
		Task: task,
		handle: Handle{
			ID:          uuid.NewString(),
			Name:        task.Name,
			ScheduledAt: now,
			RunAt:       now.Add(delay),
		},
		status: StatusPending,
	}
	s.tasks[ts.handle.ID] = ts
	s.wg.Add(1)
	metrics.ScheduledTasks.Inc()
	// fire blocks on s.mu, so the timer field is set before it can be observed.
	ts.timer = time.AfterFunc(delay, func() { s.fire(ts) })
	return ts.handle, nil
}

func (s *Scheduler) fire(ts *taskState) {
	defer s.wg.Done()

	s.mu.Lock()
	if ts.status != StatusPending {
		s.mu.Unlock()
		return
	}
	ts.status = StatusRunning
	ctx := s.ctx
	s.mu.Unlock()
	metrics.ScheduledTasks.Dec()

	err := ts.Fn(ctx, ts.handle)

	s.mu.Lock()
	if err != nil {
		ts.status = StatusReject
		ts.message = err.Error()
	} else {
		ts.status = StatusFulfill
	}
	delete(s.tasks, ts.handle.ID)
	s.remember(ts)
	s.mu.Unlock()
}

// Cancel stops a pending task. It reports false when the task is unknown,
// already running or finished.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.tasks[id]
	if !ok || ts.status != StatusPending {
		return false
	}
	s.cancelLocked(ts)
	return true
}

func (s *Scheduler) cancelLocked(ts *taskState) {
	ts.status = StatusCancelled
	delete(s.tasks, ts.handle.ID)
	s.remember(ts)
	metrics.ScheduledTasks.Dec()
	if ts.timer.Stop() {
		s.wg.Done()
	}
}

func (s *Scheduler) remember(ts *taskState) {
	s.history = append(s.history, ts.item())
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
}

// Pending returns the number of tasks waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ts := range s.tasks {
		if ts.status == StatusPending {
			n++
		}
	}
	return n
}

// List returns pending and running tasks.
func (s *Scheduler) List() []ListItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]ListItem, 0, len(s.tasks))
	for _, ts := range s.tasks {
		items = append(items, ts.item())
	}
	return items
}

// History returns the most recently finished or cancelled tasks, oldest first.
func (s *Scheduler) History() []ListItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ListItem, len(s.history))
	copy(out, s.history)
	return out
}

// Stop cancels every pending task, cancels the context handed to running
// tasks and waits for them to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		for _, ts := range s.tasks {
			if ts.status == StatusPending {
				s.cancelLocked(ts)
			}
		}
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
