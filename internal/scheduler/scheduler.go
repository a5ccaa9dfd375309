package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is one unit of scheduled work, typically a dashboard refresh.
type Task func(ctx context.Context) error

// Scheduler runs a task on a cron schedule. Overlapping runs are skipped so
// the workbook is never written by two runs at once.
type Scheduler struct {
	Cron *cron.Cron
	Task Task
	Ctx  context.Context

	mu sync.Mutex // serialises cron activations with RunNow
	wg sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, task Task) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Task: task,
		Ctx:  ctx,
	}
}

// Register adds the refresh task under the given six-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("register refresh task %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks, including
// ones started by Trigger, to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Println("[INFO] scheduler stopped")
}

// Next returns the next activation time, or the zero time when nothing is registered.
func (s *Scheduler) Next() time.Time {
	entries := s.Cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow executes the task immediately (RUN_ON_START / manual trigger).
func (s *Scheduler) RunNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Task(s.Ctx)
}

// Trigger runs the task once in the background. Stop waits for it.
func (s *Scheduler) Trigger() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.RunNow(); err != nil {
			log.Printf("[ERROR] triggered refresh: %v", err)
		}
	}()
}

func (s *Scheduler) run() {
	if s.Ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Println("[INFO] running scheduled refresh")
	start := time.Now()
	if err := s.Task(s.Ctx); err != nil {
		log.Printf("[ERROR] scheduled refresh: %v", err)
		return
	}
	log.Printf("[INFO] scheduled refresh done in %v", time.Since(start).Round(time.Millisecond))
}
