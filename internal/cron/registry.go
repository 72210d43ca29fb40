package cron

import (
	"context"
	"slices"
)

// Job is one unit of sweep work. Run must honour ctx; the service cancels it
// at the job timeout.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry keeps jobs in registration order, one per name.
type Registry struct {
	jobs []Job
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register adds job, replacing a previously registered job with the same
// name in place. Nil jobs are ignored.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	idx := slices.IndexFunc(r.jobs, func(existing Job) bool { return existing.Name() == job.Name() })
	if idx >= 0 {
		r.jobs[idx] = job
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy; callers may reorder it freely.
func (r *Registry) Jobs() []Job {
	return slices.Clone(r.jobs)
}
