package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/expertcall/backend/internal/emails"
	"github.com/expertcall/backend/internal/models"
	"github.com/expertcall/backend/pkg/queue"
)

// EmailProcessor processes appointment notification email jobs: send over
// SMTP, record the outcome in the email log.
type EmailProcessor struct {
	sender *emails.Sender
	logs   *emails.Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(sender *emails.Sender, logs *emails.Repository, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{sender: sender, logs: logs, queue: q, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	sendErr := p.sender.Send(payload.RecipientEmail, payload.Subject, payload.BodyHTML)

	log := &models.EmailLog{
		AppointmentID: payload.AppointmentID,
		Recipient:     payload.RecipientEmail,
		EmailType:     payload.EmailType,
		Status:        "sent",
	}
	if sendErr != nil {
		log.Status = "failed"
		log.Error = sendErr.Error()
	}
	if err := p.logs.Log(ctx, log); err != nil {
		p.logger.Error("write email log failed", zap.Error(err),
			zap.String("appointment_id", payload.AppointmentID.String()))
	}
	if sendErr != nil {
		return fmt.Errorf("send email: %w", sendErr)
	}

	p.logger.Info("email sent",
		zap.String("appointment_id", payload.AppointmentID.String()),
		zap.String("email_type", payload.EmailType))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
