package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"scrapecheck/pkg/models"
)

// JobStatus represents the current state of a background audit job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job represents one background audit run
type Job struct {
	ID           string                `json:"id"`
	Domain       string                `json:"domain"`
	Status       JobStatus             `json:"status"`
	StartedAt    time.Time             `json:"started_at"`
	CompletedAt  time.Time             `json:"completed_at,omitempty"`
	Progress     models.AuditProgress  `json:"progress"`
	Results      []models.AuditResult  `json:"results,omitempty"`
	Summary      *models.AuditSummary  `json:"summary,omitempty"`
	ErrorMessage string                `json:"error_message,omitempty"`

	// Internal fields
	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the job's cancellable context
func (j *Job) Context() context.Context {
	return j.ctx
}

// JobManager tracks background audit jobs in memory. It owns no durable
// state; jobs live for the process lifetime.
type JobManager struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

// NewJobManager creates a JobManager
func NewJobManager() *JobManager {
	return &JobManager{jobs: make(map[string]*Job)}
}

// CreateJob registers a new pending job for a domain audit
func (m *JobManager) CreateJob(domain string) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:        uuid.New().String(),
		Domain:    domain,
		Status:    JobStatusPending,
		StartedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return job
}

// GetJob returns a snapshot copy of a job, or false if unknown
func (m *JobManager) GetJob(jobID string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// MarkRunning transitions a job to running
func (m *JobManager) MarkRunning(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok {
		job.Status = JobStatusRunning
	}
}

// UpdateProgress stores the latest progress snapshot for a job
func (m *JobManager) UpdateProgress(jobID string, progress models.AuditProgress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok {
		// Batch results are consumed progressively by pollers; keep only the
		// cumulative counters in the stored snapshot
		progress.BatchResults = nil
		job.Progress = progress
	}
}

// Complete records a finished job with its results and summary
func (m *JobManager) Complete(jobID string, results []models.AuditResult) {
	summary := GenerateSummary(results)
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok {
		if job.Status != JobStatusCancelled {
			job.Status = JobStatusCompleted
		}
		job.Results = results
		job.Summary = &summary
		job.CompletedAt = time.Now()
	}
}

// Fail records a job failure
func (m *JobManager) Fail(jobID string, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok {
		job.Status = JobStatusFailed
		job.ErrorMessage = message
		job.CompletedAt = time.Now()
	}
}

// Cancel requests cooperative cancellation of a running job.
// Returns false if the job is unknown or already finished.
func (m *JobManager) Cancel(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok || job.Status == JobStatusCompleted || job.Status == JobStatusFailed {
		return false
	}
	job.Status = JobStatusCancelled
	job.cancel()
	return true
}
