package commcell

import (
	"context"
	"strconv"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

// Job is a handle on a job the Commserve started. It does not track the job.
type Job struct {
	cc *Commcell
	id string
}

func newJob(cc *Commcell, id string) (*Job, error) {
	if n, err := strconv.Atoi(id); err != nil || n <= 0 {
		return nil, sdkerr.Malformed("Job", "invalid job id "+strconv.Quote(id))
	}
	return &Job{cc: cc, id: id}, nil
}

// Job returns a handle on an existing job. The id is checked locally only.
func (cc *Commcell) Job(id string) (*Job, error) {
	if n, err := strconv.Atoi(id); err != nil || n <= 0 {
		return nil, sdkerr.InvalidArgument("Job", "invalid job id %q", id)
	}
	return &Job{cc: cc, id: id}, nil
}

// ID returns the job id.
func (j *Job) ID() string {
	return j.id
}

// Summary fetches the job summary.
func (j *Job) Summary(ctx context.Context) (models.Document, error) {
	doc, err := j.cc.get(ctx, "Job", endpoint(svcJob, j.id))
	if err != nil {
		return nil, err
	}
	first, err := firstElement("Job", doc, "jobs")
	if err != nil {
		return nil, j.cc.fail("Job", err)
	}
	return first.Object("jobSummary"), nil
}

func (j *Job) String() string {
	return j.id
}
