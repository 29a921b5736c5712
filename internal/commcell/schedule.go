package commcell

import (
	"context"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
)

// Schedules is the registry of schedule tasks, keyed by task id.
type Schedules struct {
	*Registry
	tasks map[string]models.Document
}

// NewSchedules loads the schedule registry.
func NewSchedules(ctx context.Context, cc *Commcell) (*Schedules, error) {
	s := &Schedules{}
	reg, err := newRegistry(ctx, "Schedule", func(ctx context.Context) (Listing, error) {
		doc, err := cc.get(ctx, "Schedule", svcSchedules)
		if err != nil {
			return nil, err
		}
		items, err := listElements("Schedule", doc, "taskDetail", true)
		if err != nil {
			return nil, cc.fail("Schedule", err)
		}
		listing := Listing{}
		tasks := make(map[string]models.Document, len(items))
		for _, item := range items {
			id := models.IDString(item.Lookup("task", "taskId"))
			listing[id] = Entry{ID: id, Name: item.String("task", "taskName")}
			tasks[id] = item
		}
		s.tasks = tasks
		return listing, nil
	})
	if err != nil {
		return nil, err
	}
	s.Registry = reg
	return s, nil
}

// Get returns the schedule with the given task id.
func (s *Schedules) Get(taskID string) (*Schedule, error) {
	e, err := s.Entry(taskID)
	if err != nil {
		return nil, err
	}
	return &Schedule{taskID: e.ID, name: e.Name, props: s.tasks[e.ID].DeepCopy()}, nil
}

// Schedule is a schedule task as the registry listed it.
type Schedule struct {
	taskID string
	name   string
	props  models.Document
}

// TaskID returns the schedule's task id.
func (s *Schedule) TaskID() string {
	return s.taskID
}

// Name returns the task name.
func (s *Schedule) Name() string {
	return s.name
}

// Properties returns a copy of the task detail.
func (s *Schedule) Properties() models.Document {
	return s.props.DeepCopy()
}
