// Package scheduler runs named background jobs on fixed intervals.
//
// Jobs are held in a Registry keyed by a generated id. Registering a job does
// not start it; Start and Stop are explicit and idempotent.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/metrics"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrInvalidInterval = errors.New("job interval must be positive")
)

// JobFunc is one execution of a job. ctx is cancelled when the job stops.
type JobFunc func(ctx context.Context) error

// JobInfo is a point-in-time view of a registered job.
type JobInfo struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	Running   bool          `json:"running"`
	Runs      int64         `json:"runs"`
	Failures  int64         `json:"failures"`
	LastRun   *time.Time    `json:"lastRun,omitempty"`
	LastError string        `json:"lastError,omitempty"`
}

type job struct {
	id       string
	name     string
	interval time.Duration
	fn       JobFunc
	timeout  time.Duration

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	runs      int64
	failures  int64
	lastRun   time.Time
	lastError string
}

// Registry owns the jobs and their goroutines.
type Registry struct {
	mu      sync.RWMutex
	jobs    map[string]*job
	logger  logging.Logger
	metrics *metrics.Registry
}

type Option func(*Registry)

func WithLogger(l logging.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(r *Registry) { r.metrics = m }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		jobs:   make(map[string]*job),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logging.Component("scheduler"))
	return r
}

// Register adds a stopped job and returns its id. timeout bounds each run;
// zero means the run may take up to one interval.
func (r *Registry) Register(name string, interval, timeout time.Duration, fn JobFunc) (string, error) {
	if interval <= 0 {
		return "", ErrInvalidInterval
	}
	if fn == nil {
		return "", fmt.Errorf("job %q: nil function", name)
	}
	if timeout <= 0 {
		timeout = interval
	}
	j := &job{id: uuid.NewString(), name: name, interval: interval, timeout: timeout, fn: fn}

	r.mu.Lock()
	r.jobs[j.id] = j
	n := len(r.jobs)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SetJobsRegistered(n)
	}
	r.logger.Info("job registered",
		logging.String("job", name),
		logging.String("job_id", j.id),
		logging.Duration("interval", interval))
	return j.id, nil
}

func (r *Registry) get(id string) (*job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	return j, nil
}

// Start runs the job immediately and then on every tick until Stop or
// until parent is cancelled. Starting a running job is a no-op.
func (r *Registry) Start(parent context.Context, id string) error {
	j, err := r.get(id)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(parent)
	j.cancel = cancel
	j.done = make(chan struct{})
	go r.loop(ctx, j, j.done)

	r.logger.Info("job started", logging.String("job", j.name), logging.String("job_id", j.id))
	return nil
}

func (r *Registry) loop(ctx context.Context, j *job, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		r.runOnce(ctx, j)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Registry) runOnce(ctx context.Context, j *job) {
	runCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	err := j.fn(runCtx)
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		// Stopped mid-run; not a failure.
		return
	}

	j.mu.Lock()
	j.runs++
	j.lastRun = start
	if err != nil {
		j.failures++
		j.lastError = err.Error()
	} else {
		j.lastError = ""
	}
	j.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordJobRun(j.name, err)
	}
	if err != nil {
		r.logger.Error("job failed",
			logging.String("job", j.name),
			logging.Latency(time.Since(start)),
			logging.Error(err))
		return
	}
	r.logger.Debug("job completed", logging.String("job", j.name), logging.Latency(time.Since(start)))
}

// Stop cancels the job and waits for an in-flight run to return. Stopping a
// stopped job is a no-op.
func (r *Registry) Stop(id string) error {
	j, err := r.get(id)
	if err != nil {
		return err
	}

	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	r.logger.Info("job stopped", logging.String("job", j.name), logging.String("job_id", j.id))
	return nil
}

// Remove stops and forgets the job.
func (r *Registry) Remove(id string) error {
	if err := r.Stop(id); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.jobs, id)
	n := len(r.jobs)
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.SetJobsRegistered(n)
	}
	return nil
}

// StartAll starts every registered job.
func (r *Registry) StartAll(ctx context.Context) {
	for _, id := range r.ids() {
		_ = r.Start(ctx, id)
	}
}

// StopAll stops every job and waits for all of them.
func (r *Registry) StopAll() {
	var wg sync.WaitGroup
	for _, id := range r.ids() {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = r.Stop(id)
		}(id)
	}
	wg.Wait()
}

func (r *Registry) ids() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	return ids
}

// List returns all jobs ordered by name, then id.
func (r *Registry) List() []JobInfo {
	r.mu.RLock()
	jobs := make([]*job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j)
	}
	r.mu.RUnlock()

	out := make([]JobInfo, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.info())
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Name != out[b].Name {
			return out[a].Name < out[b].Name
		}
		return out[a].ID < out[b].ID
	})
	return out
}

// Running counts jobs that are started.
func (r *Registry) Running() int {
	n := 0
	for _, info := range r.List() {
		if info.Running {
			n++
		}
	}
	return n
}

func (j *job) info() JobInfo {
	j.mu.Lock()
	defer j.mu.Unlock()
	info := JobInfo{
		ID:        j.id,
		Name:      j.name,
		Interval:  j.interval,
		Running:   j.cancel != nil,
		Runs:      j.runs,
		Failures:  j.failures,
		LastError: j.lastError,
	}
	if !j.lastRun.IsZero() {
		t := j.lastRun
		info.LastRun = &t
	}
	return info
}
