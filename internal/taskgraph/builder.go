// Package taskgraph builds the nested task documents the Commserve accepts for
// backup, restore and administrative jobs.
package taskgraph

import (
	"fmt"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/schedpattern"
)

const (
	TaskTypeImmediate = 1

	InitiatedFromGUI         = 1
	InitiatedFromCommandLine = 2

	SubTaskOperationRun = 1
)

// Subtask type / operation type pairs.
const (
	SubTaskTypeAdmin   = 1
	SubTaskTypeBackup  = 2
	SubTaskTypeRestore = 3

	OperationBackup          = 2
	OperationRestore         = 1001
	OperationContentIndexing = 5020
)

type subTask struct {
	subTask models.Document
	options models.Document
}

// Builder assembles one task document. Fragments handed to it are copied.
type Builder struct {
	associations []models.Document
	task         models.Document
	subTasks     []*subTask
	schedule     *schedpattern.Pattern
}

// New starts an immediate, command-line initiated task on the given associations.
func New(associations ...models.Document) *Builder {
	b := &Builder{
		task: models.Document{
			"initiatedFrom": InitiatedFromCommandLine,
			"taskType":      TaskTypeImmediate,
			"policyType":    0,
			"taskFlags":     models.Document{"disabled": false},
		},
	}
	for _, a := range associations {
		b.associations = append(b.associations, a.DeepCopy())
	}
	return b
}

// InitiatedFrom overrides who the Commserve records as starting the task.
func (b *Builder) InitiatedFrom(source int) *Builder {
	b.task["initiatedFrom"] = source
	return b
}

// SubTask appends a subtask with its base option skeleton.
func (b *Builder) SubTask(st, options models.Document) *Builder {
	if options == nil {
		options = models.Document{}
	}
	b.subTasks = append(b.subTasks, &subTask{subTask: st.DeepCopy(), options: options.DeepCopy()})
	return b
}

// MergeOptions merges fragment into options[section] of the most recent
// subtask, top-level keys of fragment winning. An empty fragment is a no-op,
// so the skeleton is sent unchanged when the caller supplied nothing.
func (b *Builder) MergeOptions(section string, fragment models.Document) *Builder {
	if len(fragment) == 0 || len(b.subTasks) == 0 {
		return b
	}
	opts := b.subTasks[len(b.subTasks)-1].options
	target, ok := models.AsDocument(opts[section])
	if !ok {
		target = models.Document{}
		opts[section] = target
	}
	target.Merge(fragment.DeepCopy())
	return b
}

// CommonOptions attaches job-wide options (notes, priority, ...) to the most recent subtask.
func (b *Builder) CommonOptions(opts models.Document) *Builder {
	return b.MergeOptions("commonOpts", opts)
}

// Schedule makes the built task run on p instead of immediately.
func (b *Builder) Schedule(p *schedpattern.Pattern) *Builder {
	b.schedule = p
	return b
}

// Build returns the finished document. Scheduling is applied last, to the whole document.
func (b *Builder) Build() (models.Document, error) {
	if len(b.associations) == 0 {
		return nil, fmt.Errorf("task has no associations")
	}
	if len(b.subTasks) == 0 {
		return nil, fmt.Errorf("task has no subtasks")
	}

	associations := make([]interface{}, len(b.associations))
	for i, a := range b.associations {
		associations[i] = a.DeepCopy()
	}
	subTasks := make([]interface{}, len(b.subTasks))
	for i, st := range b.subTasks {
		subTasks[i] = models.Document{
			"subTaskOperation": SubTaskOperationRun,
			"subTask":          st.subTask.DeepCopy(),
			"options":          st.options.DeepCopy(),
		}
	}
	doc := models.Document{
		"taskInfo": models.Document{
			"associations": associations,
			"task":         b.task.DeepCopy(),
			"subTasks":     subTasks,
		},
	}
	if b.schedule == nil {
		return doc, nil
	}
	return schedpattern.Apply(doc, *b.schedule)
}
