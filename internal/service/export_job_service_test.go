package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-vax-api/internal/models"
	"github.com/noah-isme/school-vax-api/internal/repository"
	appErrors "github.com/noah-isme/school-vax-api/pkg/errors"
	"github.com/noah-isme/school-vax-api/pkg/jobs"
)

type exportJobRepoStub struct {
	jobs              map[string]*models.ExportJob
	finishedListCalls int
}

func newExportJobRepoStub() *exportJobRepoStub {
	return &exportJobRepoStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportJobRepoStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *exportJobRepoStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *exportJobRepoStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *exportJobRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (r *exportJobRepoStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	r.finishedListCalls++
	var finished []models.ExportJob
	for _, job := range r.jobs {
		if job.Status != models.ExportStatusFinished || job.FinishedAt == nil || !job.FinishedAt.Before(cutoff) {
			continue
		}
		finished = append(finished, *job)
		if len(finished) == limit {
			break
		}
	}
	return finished, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newExportJobServiceForTest(t *testing.T) (*ExportJobService, *exportJobRepoStub, *queueStub, *ExportService) {
	t.Helper()
	repo := newExportJobRepoStub()
	queue := &queueStub{}
	exporter, _, _ := newExportServiceForTest(t)
	svc := NewExportJobService(repo, queue, exporter, zap.NewNop(), ExportJobServiceConfig{
		ResultTTL:       time.Hour,
		CleanupInterval: time.Hour,
		MaxRetries:      3,
	})
	return svc, repo, queue, exporter
}

func TestExportJobServiceCreateJob(t *testing.T) {
	svc, _, queue, _ := newExportJobServiceForTest(t)

	resp, err := svc.CreateJob(context.Background(), ExportRequest{Format: models.ExportFormatCSV, VaccineName: "Polio"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
}

func TestExportJobServiceCreateJobRejectsBadFormat(t *testing.T) {
	svc, _, _, _ := newExportJobServiceForTest(t)

	_, err := svc.CreateJob(context.Background(), ExportRequest{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceCreateJobRejectsInvertedRange(t *testing.T) {
	svc, _, _, _ := newExportJobServiceForTest(t)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-24 * time.Hour)
	_, err := svc.CreateJob(context.Background(), ExportRequest{Format: models.ExportFormatCSV, FromDate: &from, ToDate: &to})
	require.Error(t, err)
}

func TestExportWorkerFinishesJob(t *testing.T) {
	svc, repo, queue, exporter := newExportJobServiceForTest(t)

	resp, err := svc.CreateJob(context.Background(), ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	worker := NewExportWorker(repo, exporter, 3, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), queue.jobs[0]))

	job := repo.jobs[resp.ID]
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Contains(t, *job.ResultURL, "/export/")
}

func TestExportJobServiceResolveDownload(t *testing.T) {
	svc, repo, queue, exporter := newExportJobServiceForTest(t)

	resp, err := svc.CreateJob(context.Background(), ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	worker := NewExportWorker(repo, exporter, 3, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), queue.jobs[0]))

	job := repo.jobs[resp.ID]
	token := extractToken(*job.ResultURL)

	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	assert.NotEmpty(t, download.Filename)
}

func TestExportJobServiceResolveDownloadBadToken(t *testing.T) {
	svc, _, _, _ := newExportJobServiceForTest(t)

	_, err := svc.ResolveDownload(context.Background(), "bogus")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceCleanupDrainsFullBatch(t *testing.T) {
	svc, repo, queue, exporter := newExportJobServiceForTest(t)

	resp, err := svc.CreateJob(context.Background(), ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	worker := NewExportWorker(repo, exporter, 3, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), queue.jobs[0]))

	old := time.Now().Add(-48 * time.Hour)
	repo.jobs[resp.ID].FinishedAt = &old
	token := extractToken(*repo.jobs[resp.ID].ResultURL)
	_, relPath, _, err := exporter.ParseToken(token, true)
	require.NoError(t, err)

	// 100 expired jobs fill the first ListFinishedBefore page exactly, so
	// cleanup only terminates if handled rows stop being listed as finished.
	for i := 0; i < 99; i++ {
		id := fmt.Sprintf("job-%02d", i)
		finished := old
		repo.jobs[id] = &models.ExportJob{
			ID:         id,
			Params:     models.ExportJobParams{Format: models.ExportFormatCSV},
			Status:     models.ExportStatusFinished,
			Progress:   100,
			FinishedAt: &finished,
		}
	}

	svc.cleanupExpired(context.Background())

	assert.Equal(t, 2, repo.finishedListCalls)
	for id, job := range repo.jobs {
		assert.Equal(t, models.ExportStatusExpired, job.Status, "job %s", id)
	}
	_, err = exporter.Open(relPath)
	assert.Error(t, err)
}

func TestExportJobServiceRecoverPendingJobs(t *testing.T) {
	svc, repo, queue, _ := newExportJobServiceForTest(t)

	repo.jobs["stale"] = &models.ExportJob{
		ID:     "stale",
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
		Status: models.ExportStatusQueued,
	}
	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "stale", queue.jobs[0].ID)
}
