package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"linkhub/infrastructure/logger"
)

var (
	ErrUnknownJob = errors.New("unknown job")
	ErrJobBusy    = errors.New("job is already running")
	ErrStopped    = errors.New("job runner is stopped")
)

// Job is a named periodic task. Spec uses robfig/cron syntax, e.g. "@every 60s".
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type registered struct {
	job  Job
	busy sync.Mutex
}

// Runner drives background jobs. A job never overlaps itself, whether it was
// triggered by its schedule, by Start or by Run.
type Runner struct {
	cron *cron.Cron
	jobs map[string]*registered

	mu       sync.RWMutex
	ctx      context.Context
	stopping bool
	// inflight counts startup and on-demand runs; cron tracks its own
	inflight sync.WaitGroup
}

func NewRunner() *Runner {
	l := cronLogger{}
	return &Runner{
		cron: cron.New(cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l))),
		jobs: make(map[string]*registered),
		ctx:  context.Background(),
	}
}

func (r *Runner) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run func")
	}
	if _, dup := r.jobs[job.Name]; dup {
		return fmt.Errorf("job %s registered twice", job.Name)
	}
	reg := &registered{job: job}
	if _, err := r.cron.AddFunc(job.Spec, func() { r.execute(r.baseContext(), reg) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
	}
	r.jobs[job.Name] = reg
	return nil
}

// Start runs every job once in the background and then hands them to the schedule.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	for _, name := range r.Names() {
		reg := r.jobs[name]
		if !r.track() {
			return
		}
		go func() {
			defer r.inflight.Done()
			r.execute(ctx, reg)
		}()
	}
	r.cron.Start()
	logger.GetLogger().WithField("jobs", r.Names()).Info("Job runner started")
}

// Stop halts the schedule and waits for running jobs to return, including
// startup and on-demand runs
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopping = true
	r.mu.Unlock()

	<-r.cron.Stop().Done()
	r.inflight.Wait()
	logger.GetLogger().Info("Job runner stopped")
}

// track registers a run with Stop unless the runner is already stopping
func (r *Runner) track() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopping {
		return false
	}
	r.inflight.Add(1)
	return true
}

// Run executes a job synchronously on demand
func (r *Runner) Run(ctx context.Context, name string) error {
	reg, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if !r.track() {
		return fmt.Errorf("%w: %s", ErrStopped, name)
	}
	defer r.inflight.Done()
	if !reg.busy.TryLock() {
		return fmt.Errorf("%w: %s", ErrJobBusy, name)
	}
	defer reg.busy.Unlock()
	return r.invoke(ctx, reg.job)
}

func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for n := range r.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Runner) baseContext() context.Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ctx
}

func (r *Runner) execute(ctx context.Context, reg *registered) {
	if !reg.busy.TryLock() {
		logger.GetLogger().WithField("job", reg.job.Name).Debug("Skipping run, previous run still in progress")
		return
	}
	defer reg.busy.Unlock()
	if err := r.invoke(ctx, reg.job); err != nil {
		logger.GetLogger().WithField("job", reg.job.Name).WithField("error", err).Error("Job run failed")
	}
}

func (r *Runner) invoke(ctx context.Context, job Job) (err error) {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, rec)
		}
	}()
	started := time.Now()
	err = job.Run(ctx)
	logger.GetLogger().WithFields(map[string]interface{}{
		"job":      job.Name,
		"duration": time.Since(started).String(),
	}).Debug("Job run finished")
	return err
}

// cronLogger routes cron's own messages through logrus
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.GetLogger().WithField("cron", fmt.Sprint(keysAndValues...)).Debug(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.GetLogger().WithField("cron", fmt.Sprint(keysAndValues...)).WithField("error", err).Error(msg)
}
