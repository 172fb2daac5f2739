// Package worker persists queued routing analytics.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/musicdeclares/amplify/internal/analytics"
	"github.com/musicdeclares/amplify/pkg/queue"
)

// JobSource is the queue side the processor consumes.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// AnalyticsProcessor drains analytics jobs from Redis into PostgreSQL.
type AnalyticsProcessor struct {
	jobs    JobSource
	writer  analytics.Writer
	backoff time.Duration
	logger  *zap.Logger
}

// NewAnalyticsProcessor creates an analytics processor.
func NewAnalyticsProcessor(jobs JobSource, writer analytics.Writer, logger *zap.Logger) *AnalyticsProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsProcessor{jobs: jobs, writer: writer, backoff: queue.RetryBackoff, logger: logger}
}

// Process writes one analytics job.
func (p *AnalyticsProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := queue.DecodeAnalytics(job)
	if err != nil {
		return err
	}
	if err := p.writer.Write(ctx, payload); err != nil {
		return fmt.Errorf("write analytics %s: %w", payload.ID, err)
	}
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. Failed jobs are re-queued
// until queue.MaxRetries and then dead-lettered. It returns when ctx is cancelled.
func (p *AnalyticsProcessor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("analytics worker stopping")
			return
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *AnalyticsProcessor) sleep(ctx context.Context) {
	if p.backoff <= 0 {
		return
	}
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
