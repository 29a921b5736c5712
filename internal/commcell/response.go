package commcell

import (
	"context"
	"fmt"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

// status extracts the error code and message of a status-bearing response.
// The Commserve reports status as response[0], as a response object, as an
// error object or at the top level, depending on the service.
func status(doc models.Document) (code int, message string, found bool) {
	var st models.Document
	switch r := doc["response"].(type) {
	case []interface{}:
		if len(r) > 0 {
			st, _ = models.AsDocument(r[0])
		}
	default:
		st, _ = models.AsDocument(r)
	}
	if st == nil {
		st = doc.Object("error")
	}
	if st == nil || !st.Has("errorCode") {
		if !doc.Has("errorCode") {
			return 0, "", false
		}
		st = doc
	}
	for _, key := range []string{"errorString", "errorMessage", "warningMessage"} {
		if m := st.String(key); m != "" {
			message = m
			break
		}
	}
	return st.Int("errorCode"), message, true
}

// checkStatus returns nil for a zero error code, a server error for any
// other code and a malformed-response error when no status is present.
func checkStatus(entity string, doc models.Document) error {
	code, msg, ok := status(doc)
	if !ok {
		return sdkerr.Malformed(entity, "response carries no status")
	}
	if code != 0 {
		return sdkerr.Server(entity, code, msg)
	}
	return nil
}

// embeddedError reports a non-zero error code found in doc, if any.
func embeddedError(entity string, doc models.Document) error {
	code, msg, ok := status(doc)
	if ok && code != 0 {
		return sdkerr.Server(entity, code, msg)
	}
	return nil
}

// firstElement returns doc[key][0], the shape single-entity property
// responses use. An empty key returns doc itself.
func firstElement(entity string, doc models.Document, key string) (models.Document, error) {
	if key == "" {
		if err := embeddedError(entity, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	list, err := listElements(entity, doc, key, false)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, sdkerr.Malformed(entity, key+" is empty")
	}
	return list[0], nil
}

// Handle is the result of a submitted operation: either the jobs it started
// or the schedule it created.
type Handle struct {
	Jobs     []*Job
	Schedule *Schedule
}

// Job returns the first started job, or nil for a scheduled operation.
func (h *Handle) Job() *Job {
	if len(h.Jobs) == 0 {
		return nil
	}
	return h.Jobs[0]
}

// Scheduled reports whether the operation was deferred to a schedule.
func (h *Handle) Scheduled() bool {
	return h.Schedule != nil
}

func (h *Handle) String() string {
	if h.Scheduled() {
		return fmt.Sprintf("schedule %s", h.Schedule.TaskID())
	}
	ids := make([]string, len(h.Jobs))
	for i, j := range h.Jobs {
		ids[i] = j.ID()
	}
	return fmt.Sprintf("jobs %v", ids)
}

// resolveHandle turns an operation response into a Handle: job ids become
// jobs, a task id is looked up in the schedule registry, an error code is a
// server error and anything else is malformed.
func (cc *Commcell) resolveHandle(ctx context.Context, entity, operation string, doc models.Document) (*Handle, error) {
	if raw, ok := doc["jobIds"]; ok {
		list, _ := raw.([]interface{})
		if len(list) == 0 {
			return nil, cc.fail(entity, sdkerr.Malformed(entity, "jobIds is empty"))
		}
		h := &Handle{}
		for _, v := range list {
			job, err := newJob(cc, models.IDString(v))
			if err != nil {
				return nil, cc.fail(entity, err)
			}
			h.Jobs = append(h.Jobs, job)
		}
		cc.metrics.RecordOperation(operation, "job")
		return h, nil
	}

	if raw, ok := doc["taskId"]; ok {
		schedules, err := cc.Schedules(ctx)
		if err != nil {
			return nil, err
		}
		sched, err := schedules.Get(models.IDString(raw))
		if err != nil {
			return nil, cc.fail(entity, err)
		}
		cc.metrics.RecordOperation(operation, "schedule")
		return &Handle{Schedule: sched}, nil
	}

	if code, msg, ok := status(doc); ok {
		if code == 0 {
			return nil, cc.fail(entity, sdkerr.Malformed(entity, "response has neither jobIds nor taskId"))
		}
		return nil, cc.fail(entity, sdkerr.Server(entity, code, msg))
	}
	return nil, cc.fail(entity, sdkerr.Malformed(entity, "response has neither jobIds nor taskId"))
}

// submit sends an operation and resolves the response into a Handle.
func (cc *Commcell) submit(ctx context.Context, entity, operation, method, path string, body interface{}) (*Handle, error) {
	doc, err := cc.send(ctx, entity, method, path, body)
	if err != nil {
		return nil, err
	}
	return cc.resolveHandle(ctx, entity, operation, doc)
}
