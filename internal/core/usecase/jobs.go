package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/core/ports"
)

const statusWriteTimeout = 5 * time.Second

// ExtractionJobUseCase queues extraction runs and executes them on the
// worker side.
type ExtractionJobUseCase struct {
	jobs      ports.JobRepository
	queue     ports.MessageQueue
	extractor ports.IndicatorExtractor
	logger    *slog.Logger
}

func NewExtractionJobUseCase(
	jobs ports.JobRepository,
	queue ports.MessageQueue,
	extractor ports.IndicatorExtractor,
	logger *slog.Logger,
) *ExtractionJobUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionJobUseCase{
		jobs:      jobs,
		queue:     queue,
		extractor: extractor,
		logger:    logger,
	}
}

func (uc *ExtractionJobUseCase) Enqueue(ctx context.Context, namespace string, documentIDs []string) (*domain.ExtractionJob, error) {
	if err := ValidateExtractionInput(namespace, documentIDs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &domain.ExtractionJob{
		ID:          uuid.NewString(),
		Namespace:   namespace,
		DocumentIDs: documentIDs,
		Status:      domain.JobQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create extraction job: %w", err)
	}
	if err := uc.queue.PublishExtractionRequested(ctx, job.ID); err != nil {
		if failErr := uc.markFailed(ctx, job.ID, err); failErr != nil {
			return nil, fmt.Errorf("publish extraction event: %w; mark failed status: %v", err, failErr)
		}
		return nil, fmt.Errorf("publish extraction event: %w", err)
	}
	return job, nil
}

func (uc *ExtractionJobUseCase) Get(ctx context.Context, id string) (*domain.ExtractionJob, error) {
	job, err := uc.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch extraction job: %w", err)
	}
	return job, nil
}

func (uc *ExtractionJobUseCase) ProcessJob(ctx context.Context, jobID string) error {
	job, err := uc.jobs.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("fetch extraction job: %w", err)
	}
	if job.Status == domain.JobDone {
		return nil
	}

	if err := uc.jobs.UpdateJobStatus(ctx, jobID, domain.JobRunning, ""); err != nil {
		return fmt.Errorf("set status=running: %w", err)
	}

	report := uc.extractor.Extract(ctx, job.Namespace, job.DocumentIDs, nil)
	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("extraction interrupted: %w", err)
		if failErr := uc.markFailed(ctx, jobID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}
	if err := uc.jobs.SaveResults(ctx, jobID, report.Results); err != nil {
		if failErr := uc.markFailed(ctx, jobID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("save results: %w", err)
	}

	if err := uc.jobs.UpdateJobStatus(ctx, jobID, domain.JobDone, ""); err != nil {
		return fmt.Errorf("set status=done: %w", err)
	}
	uc.logger.Info("extraction_job_done", "job_id", jobID, "indicators", len(report.Results))
	return nil
}

// markFailed writes the failed status even when ctx is already done.
func (uc *ExtractionJobUseCase) markFailed(ctx context.Context, jobID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	statusCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()
	return uc.jobs.UpdateJobStatus(statusCtx, jobID, domain.JobFailed, processErr.Error())
}

// ValidateExtractionInput checks the namespace and document ids of a run.
func ValidateExtractionInput(namespace string, documentIDs []string) error {
	if strings.TrimSpace(namespace) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate extraction", errors.New("user_id is required"))
	}
	if len(documentIDs) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "validate extraction", errors.New("at least one document id is required"))
	}
	for _, id := range documentIDs {
		if strings.TrimSpace(id) == "" {
			return domain.WrapError(domain.ErrInvalidInput, "validate extraction", errors.New("document id must not be empty"))
		}
	}
	return nil
}
