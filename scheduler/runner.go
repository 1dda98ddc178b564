// ABOUTME: This file provides the interval job runner the scheduler uses
// ABOUTME: for its ingestion, trend, and maintenance jobs.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic unit of work.
type Job struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool // Run once before the first tick
	Run            func(ctx context.Context) error
}

// jobRunner drives a single Job on its interval until stopped.
type jobRunner struct {
	job    Job
	logger *slog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newJobRunner(job Job, logger *slog.Logger) *jobRunner {
	return &jobRunner{job: job, logger: logger}
}

func (r *jobRunner) start(ctx context.Context) {
	jobCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(jobCtx)
	}()
}

// stop cancels the job context and waits for the loop to exit. An
// in-flight invocation observes the cancelled context but is not killed.
func (r *jobRunner) stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *jobRunner) loop(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "panic in job", "job", r.job.Name, "panic", rec)
		}
	}()

	if r.job.RunImmediately {
		r.invoke(ctx)
	}

	ticker := time.NewTicker(r.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "job stopped", "job", r.job.Name)
			return
		case <-ticker.C:
			r.invoke(ctx)
		}
	}
}

func (r *jobRunner) invoke(ctx context.Context) {
	if err := r.job.Run(ctx); err != nil {
		r.logger.ErrorContext(ctx, "job run failed", "job", r.job.Name, "error", err)
	}
}

// jobGroup owns a set of runners and stops them together.
type jobGroup struct {
	runners []*jobRunner
	logger  *slog.Logger
}

func newJobGroup(logger *slog.Logger) *jobGroup {
	return &jobGroup{logger: logger}
}

func (g *jobGroup) add(ctx context.Context, job Job) {
	runner := newJobRunner(job, g.logger)
	g.runners = append(g.runners, runner)
	g.logger.InfoContext(ctx, "starting job", "job", job.Name, "interval", job.Interval)
	runner.start(ctx)
}

func (g *jobGroup) stopAll() {
	for _, r := range g.runners {
		r.stop()
	}
	g.runners = nil
}
