package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"biliguard/pkg/logger"
)

const (
	defaultRestartBase = time.Second
	defaultRestartMax  = 2 * time.Minute
	// a run surviving this long resets the restart backoff
	healthyRunThreshold = time.Minute
)

// Task is a long-lived worker routine. It should only return when ctx is
// cancelled or it hit an unrecoverable error; the supervisor restarts it
// either way until the context ends.
type Task func(ctx context.Context) error

// Supervisor keeps long-lived workers running. A worker that panics or
// returns early is restarted after an exponential backoff, so a transient
// fault in the scrape loop or the dashboard cannot take the daemon down.
type Supervisor struct {
	log         logger.Logger
	restartBase time.Duration
	restartMax  time.Duration
	wg          sync.WaitGroup
}

// NewSupervisor creates a supervisor with default restart pacing
func NewSupervisor(log logger.Logger) *Supervisor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Supervisor{
		log:         log,
		restartBase: defaultRestartBase,
		restartMax:  defaultRestartMax,
	}
}

// Go runs task under supervision until ctx is cancelled
func (s *Supervisor) Go(ctx context.Context, name string, task Task) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.supervise(ctx, name, task)
	}()
}

// Wait blocks until all supervised workers have stopped
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) supervise(ctx context.Context, name string, task Task) {
	delay := s.restartBase

	for {
		start := time.Now()
		err := s.runOnce(ctx, name, task)

		if ctx.Err() != nil {
			s.log.DebugWithFields("worker stopped", map[string]interface{}{
				"worker": name,
			})
			return
		}

		if time.Since(start) >= healthyRunThreshold {
			delay = s.restartBase
		}

		s.log.ErrorWithFields("worker exited, restarting", map[string]interface{}{
			"worker":   name,
			"error":    errString(err),
			"delay_ms": delay.Milliseconds(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}

		delay *= 2
		if delay > s.restartMax {
			delay = s.restartMax
		}
	}
}

// runOnce executes one task run, converting panics into errors
func (s *Supervisor) runOnce(ctx context.Context, name string, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %s panicked: %v", name, r)
			s.log.ErrorWithFields("worker panic", map[string]interface{}{
				"worker": name,
				"panic":  fmt.Sprintf("%v", r),
				"stack":  string(debug.Stack()),
			})
		}
	}()

	s.log.InfoWithFields("worker starting", map[string]interface{}{
		"worker": name,
	})
	return task(ctx)
}

func errString(err error) string {
	if err == nil {
		return "worker returned without error"
	}
	return err.Error()
}
