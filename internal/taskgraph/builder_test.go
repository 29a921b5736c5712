package taskgraph

import (
	"reflect"
	"testing"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/schedpattern"
)

func backupSkeleton() models.Document {
	return models.Document{"backupLevel": "Incremental", "incLevel": 1, "runIncrementalBackup": false}
}

func buildBackup(t *testing.T, advanced models.Document) models.Document {
	t.Helper()
	doc, err := New(models.Document{"subclientId": 12}).
		SubTask(
			models.Document{"subTaskType": SubTaskTypeBackup, "operationType": OperationBackup},
			models.Document{"backupOpts": backupSkeleton()},
		).
		MergeOptions("backupOpts", advanced).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return doc
}

func firstSubTask(t *testing.T, doc models.Document) models.Document {
	t.Helper()
	list := doc.List("taskInfo", "subTasks")
	if len(list) != 1 {
		t.Fatalf("subTasks = %v, want one entry", list)
	}
	st, ok := models.AsDocument(list[0])
	if !ok {
		t.Fatalf("subTasks[0] = %T, want object", list[0])
	}
	return st
}

func TestBuild_NoAdvancedOptionsKeepsSkeleton(t *testing.T) {
	doc := buildBackup(t, nil)
	got := firstSubTask(t, doc).Object("options", "backupOpts")
	if !reflect.DeepEqual(got, backupSkeleton()) {
		t.Errorf("backupOpts = %v, want %v", got, backupSkeleton())
	}
}

func TestBuild_AdvancedOptionsMerged(t *testing.T) {
	doc := buildBackup(t, models.Document{"a": 1, "incLevel": 2})
	want := backupSkeleton()
	want["a"] = 1
	want["incLevel"] = 2
	got := firstSubTask(t, doc).Object("options", "backupOpts")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("backupOpts = %v, want %v", got, want)
	}
}

func TestBuild_Shape(t *testing.T) {
	doc, err := New(models.Document{"subclientId": 12}).
		InitiatedFrom(InitiatedFromGUI).
		SubTask(models.Document{"subTaskType": SubTaskTypeAdmin, "operationType": OperationContentIndexing}, nil).
		CommonOptions(models.Document{"jobDescription": "ci"}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	task := doc.Object("taskInfo", "task")
	want := models.Document{
		"initiatedFrom": InitiatedFromGUI,
		"taskType":      TaskTypeImmediate,
		"policyType":    0,
		"taskFlags":     models.Document{"disabled": false},
	}
	if !reflect.DeepEqual(task, want) {
		t.Errorf("task = %v, want %v", task, want)
	}
	st := firstSubTask(t, doc)
	if got := st.Int("subTaskOperation"); got != SubTaskOperationRun {
		t.Errorf("subTaskOperation = %d, want %d", got, SubTaskOperationRun)
	}
	if got := st.String("options", "commonOpts", "jobDescription"); got != "ci" {
		t.Errorf("commonOpts.jobDescription = %q, want ci", got)
	}
	assoc := doc.List("taskInfo", "associations")
	if len(assoc) != 1 {
		t.Fatalf("associations = %v", assoc)
	}
}

func TestBuild_FragmentsAreCopied(t *testing.T) {
	assoc := models.Document{"subclientId": 12}
	advanced := models.Document{"nested": models.Document{"k": "v"}}
	doc, err := New(assoc).
		SubTask(models.Document{"subTaskType": SubTaskTypeBackup}, models.Document{"backupOpts": models.Document{}}).
		MergeOptions("backupOpts", advanced).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	assoc["subclientId"] = 99
	advanced.Object("nested")["k"] = "changed"

	got, _ := models.AsDocument(doc.List("taskInfo", "associations")[0])
	if got.Int("subclientId") != 12 {
		t.Errorf("association aliased caller map: %v", got)
	}
	if v := firstSubTask(t, doc).String("options", "backupOpts", "nested", "k"); v != "v" {
		t.Errorf("advanced options aliased caller map: k = %q", v)
	}
}

func TestBuild_ScheduleAppliedLast(t *testing.T) {
	doc, err := New(models.Document{"subclientId": 12}).
		SubTask(models.Document{"subTaskType": SubTaskTypeBackup}, models.Document{"backupOpts": backupSkeleton()}).
		Schedule(&schedpattern.Pattern{FreqType: "daily", ActiveStartDate: "01/01/2031"}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := doc.Int("taskInfo", "task", "taskType"); got != schedpattern.TaskTypeSchedule {
		t.Errorf("taskType = %d, want %d", got, schedpattern.TaskTypeSchedule)
	}
	if firstSubTask(t, doc).Object("pattern") == nil {
		t.Error("pattern not attached to the subtask")
	}
}

func TestBuild_Incomplete(t *testing.T) {
	if _, err := New().SubTask(models.Document{}, nil).Build(); err == nil {
		t.Error("Build without associations should fail")
	}
	if _, err := New(models.Document{"clientName": "c1"}).Build(); err == nil {
		t.Error("Build without subtasks should fail")
	}
}
