package app

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/sitebots/internal/logging"
	"github.com/raysh454/sitebots/internal/model"
	"github.com/raysh454/sitebots/internal/tracker"
	"github.com/raysh454/sitebots/internal/utils"
)

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress
	Bots []model.BotState `json:"bots,omitempty"`

	// For the final result
	Result *model.SiteAnalysis `json:"result,omitempty"`
}

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// jobEventBuffer is sized for a full run's progress events; a slow reader
// still loses events rather than stalling the analysis.
const jobEventBuffer = 64

type Job struct {
	ID        string              `json:"id"`
	URL       string              `json:"url"`
	Status    JobStatus           `json:"status"`
	Bots      []model.BotState    `json:"bots"`
	Result    *model.SiteAnalysis `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
	StartedAt time.Time           `json:"started_at"`
	EndedAt   time.Time           `json:"ended_at"`
	Events    chan JobEvent       `json:"-"`
}

func (j *Job) finished() bool {
	return j.Status == JobDone || j.Status == JobFailed
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) updateJob(jobID string, fn func(j *Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

// StartAnalysisJob validates rawURL and runs RunAnalysis in the background.
// Bot snapshots arrive on Job.Events as progress events, followed by one
// result event, then the channel is closed. The job outlives ctx's
// cancellation; there is no way to abort a running analysis.
func (o *Orchestrator) StartAnalysisJob(ctx context.Context, rawURL string) (*Job, error) {
	if _, err := utils.ValidateAbsoluteURL(rawURL); err != nil {
		o.metrics.AnalysesTotal.WithLabelValues("invalid_url").Inc()
		return nil, wrapInvalid(err)
	}

	now := o.now().UTC()
	o.evictExpired(now)

	jobID := uuid.New().String()
	job := &Job{
		ID:        jobID,
		URL:       rawURL,
		Status:    JobPending,
		Bots:      tracker.New(nil).Snapshot(),
		StartedAt: now,
		Events:    make(chan JobEvent, jobEventBuffer),
	}
	o.jobsMu.Lock()
	o.jobs[jobID] = job
	snapshot := job.copy()
	o.jobsMu.Unlock()

	o.emitJobEvent(jobID, JobEvent{
		JobID:  jobID,
		Type:   JobEventStatus,
		Status: JobPending,
	})

	jobCtx := context.WithoutCancel(ctx)
	log := o.logger.With(logging.Field{Key: "job_id", Value: jobID})

	go func() {
		defer func() {
			o.jobsMu.Lock()
			j := o.jobs[jobID]
			if j != nil {
				j.EndedAt = o.now().UTC()
			}
			o.jobsMu.Unlock()

			// Close events channel so websocket loop can terminate cleanly
			if j != nil && j.Events != nil {
				close(j.Events)
			}
		}()

		o.updateJob(jobID, func(j *Job) { j.Status = JobRunning })
		o.emitJobEvent(jobID, JobEvent{
			JobID:  jobID,
			Type:   JobEventStatus,
			Status: JobRunning,
		})

		sink := func(states []model.BotState) {
			o.updateJob(jobID, func(j *Job) { j.Bots = states })
			o.emitJobEvent(jobID, JobEvent{
				JobID: jobID,
				Type:  JobEventProgress,
				Bots:  states,
			})
		}

		analysis, err := o.RunAnalysis(jobCtx, rawURL, sink)
		if err != nil {
			log.Error("analysis job failed", logging.Err(err))
			o.updateJob(jobID, func(j *Job) {
				j.Status = JobFailed
				j.Error = err.Error()
			})
			o.emitJobEvent(jobID, JobEvent{
				JobID:  jobID,
				Type:   JobEventStatus,
				Status: JobFailed,
				Error:  err.Error(),
			})
			return
		}

		o.updateJob(jobID, func(j *Job) {
			j.Status = JobDone
			j.Result = analysis
		})
		o.emitJobEvent(jobID, JobEvent{
			JobID:  jobID,
			Type:   JobEventResult,
			Status: JobDone,
			Result: analysis,
		})
	}()

	return snapshot, nil
}

// GetJob returns a point-in-time copy of the job, or nil if it is unknown or
// has been evicted. The copy shares the job's Events channel.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.evictExpired(o.now().UTC())

	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	return j.copy()
}

// ListJobs returns copies of all retained jobs, newest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.evictExpired(o.now().UTC())

	o.jobsMu.Lock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j.copy())
	}
	o.jobsMu.Unlock()

	sort.Slice(out, func(a, b int) bool {
		if out[a].StartedAt.Equal(out[b].StartedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].StartedAt.After(out[b].StartedAt)
	})
	return out
}

// evictExpired drops finished jobs whose retention has passed. A zero
// retention keeps jobs forever.
func (o *Orchestrator) evictExpired(now time.Time) {
	retention := o.cfg.Jobs.Retention
	if retention <= 0 {
		return
	}
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	for id, j := range o.jobs {
		if j.finished() && !j.EndedAt.IsZero() && now.Sub(j.EndedAt) > retention {
			delete(o.jobs, id)
		}
	}
}

// copy must be called with jobsMu held.
func (j *Job) copy() *Job {
	c := *j
	if j.Bots != nil {
		c.Bots = append([]model.BotState(nil), j.Bots...)
	}
	return &c
}
