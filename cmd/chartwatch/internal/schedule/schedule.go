// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package schedule runs the daemon's periodic jobs on cron specs.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.astrophena.name/chartwatch/internal/logger"

	"github.com/robfig/cron/v3"
)

// Job is a named periodic task. Spec is a standard five-field cron
// expression or a descriptor such as @hourly.
type Job struct {
	Name string
	Spec string
	Run  func(context.Context) error
}

// Next returns the first fire time of spec after t.
func Next(spec string, t time.Time) (time.Time, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, err
	}
	return s.Next(t), nil
}

// Run schedules jobs in loc and blocks until ctx is canceled, then waits for
// running jobs to finish.
//
// Jobs never overlap: a job that fires while another one runs waits for it,
// and a job that fires again while it is still pending or running is skipped.
// Job errors are logged.
func Run(ctx context.Context, loc *time.Location, jobs []Job) error {
	log := logger.Get(ctx)
	cl := cronLogger{log}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl), serialize(new(sync.Mutex))),
	)
	for _, j := range jobs {
		if _, err := c.AddFunc(j.Spec, func() {
			log.Debug("running job", "job", j.Name)
			began := time.Now()
			if err := j.Run(ctx); err != nil {
				log.Error("job failed", "job", j.Name, "error", err)
				return
			}
			log.Debug("job finished", "job", j.Name, "took", time.Since(began))
		}); err != nil {
			return fmt.Errorf("scheduling %s: %w", j.Name, err)
		}
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// serialize makes wrapped jobs take turns on mu.
func serialize(mu *sync.Mutex) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			mu.Lock()
			defer mu.Unlock()
			j.Run()
		})
	}
}

// cronLogger adapts a slog logger to [cron.Logger].
type cronLogger struct{ log *logger.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
