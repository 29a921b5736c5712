// Package schedpattern turns an immediate operation request into a scheduled one.
package schedpattern

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
)

// Frequency codes understood by the Commserve scheduler.
const (
	FreqOneTime    = 1
	FreqDaily      = 4
	FreqWeekly     = 8
	FreqMonthly    = 16
	FreqContinuous = 4096
)

// TaskTypeSchedule marks a task document as scheduled rather than immediate.
const TaskTypeSchedule = 2

const (
	dateLayout = "01/02/2006"
	timeLayout = "15:04"
)

var freqCodes = map[string]int{
	"one_time":   FreqOneTime,
	"daily":      FreqDaily,
	"weekly":     FreqWeekly,
	"monthly":    FreqMonthly,
	"continuous": FreqContinuous,
}

var weekdayBits = map[string]int{
	"sunday":    1,
	"monday":    2,
	"tuesday":   4,
	"wednesday": 8,
	"thursday":  16,
	"friday":    32,
	"saturday":  64,
}

// Pattern describes when a scheduled operation runs.
type Pattern struct {
	Name     string `yaml:"schedule_name" json:"schedule_name"`
	FreqType string `yaml:"freq_type" json:"freq_type" validate:"required,oneof=one_time daily weekly monthly continuous"`

	// ActiveStartDate is MM/DD/YYYY; today when empty.
	ActiveStartDate string `yaml:"active_start_date" json:"active_start_date"`
	// ActiveStartTime is HH:MM; 09:00 when empty.
	ActiveStartTime string `yaml:"active_start_time" json:"active_start_time"`

	RepeatDays   int      `yaml:"repeat_days" json:"repeat_days" validate:"gte=0"`
	RepeatWeeks  int      `yaml:"repeat_weeks" json:"repeat_weeks" validate:"gte=0"`
	Weekdays     []string `yaml:"weekdays" json:"weekdays" validate:"dive,oneof=sunday monday tuesday wednesday thursday friday saturday"`
	OnDay        int      `yaml:"on_day" json:"on_day" validate:"gte=0,lte=31"`
	RepeatMonths int      `yaml:"repeat_months" json:"repeat_months" validate:"gte=0"`
	// JobInterval is the gap in minutes between continuous runs.
	JobInterval int    `yaml:"job_interval" json:"job_interval" validate:"gte=0"`
	TimeZone    string `yaml:"time_zone" json:"time_zone"`
}

var (
	validate = validator.New()
	now      = time.Now
)

// Load parses a YAML pattern document and validates it.
func Load(data []byte) (Pattern, error) {
	var p Pattern
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pattern{}, fmt.Errorf("parsing schedule pattern: %w", err)
	}
	p.normalize()
	if err := p.Validate(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

func (p *Pattern) normalize() {
	p.FreqType = strings.ToLower(strings.TrimSpace(p.FreqType))
	days := make([]string, len(p.Weekdays))
	for i, d := range p.Weekdays {
		days[i] = strings.ToLower(strings.TrimSpace(d))
	}
	p.Weekdays = days
}

// Validate checks field constraints.
func (p Pattern) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid schedule pattern: %w", err)
	}
	if p.FreqType == "weekly" && len(p.Weekdays) == 0 {
		return fmt.Errorf("invalid schedule pattern: weekly schedules need at least one weekday")
	}
	return nil
}

// Document renders the pattern in the scheduler's wire form.
func (p Pattern) Document() (models.Document, error) {
	p.normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	date := p.ActiveStartDate
	if date == "" {
		date = now().UTC().Format(dateLayout)
	}
	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule pattern: active_start_date %q is not MM/DD/YYYY", date)
	}
	clock := p.ActiveStartTime
	if clock == "" {
		clock = "09:00"
	}
	tod, err := time.Parse(timeLayout, clock)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule pattern: active_start_time %q is not HH:MM", clock)
	}

	doc := models.Document{
		"freq_type":         freqCodes[p.FreqType],
		"active_start_date": day.Unix(),
		"active_start_time": tod.Hour()*3600 + tod.Minute()*60,
	}
	switch p.FreqType {
	case "daily":
		doc["freq_recurrence_factor"] = atLeastOne(p.RepeatDays)
	case "weekly":
		mask := 0
		for _, d := range p.Weekdays {
			mask |= weekdayBits[d]
		}
		doc["freq_interval"] = mask
		doc["freq_recurrence_factor"] = atLeastOne(p.RepeatWeeks)
	case "monthly":
		doc["freq_interval"] = atLeastOne(p.OnDay)
		doc["freq_recurrence_factor"] = atLeastOne(p.RepeatMonths)
	case "continuous":
		doc["freq_interval"] = atLeastOne(p.JobInterval)
	}
	if p.Name != "" {
		doc["name"] = p.Name
	}
	if p.TimeZone != "" {
		doc["timeZone"] = models.Document{"TimeZoneName": p.TimeZone}
	}
	return doc, nil
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Apply returns a copy of an operation request document rewritten to run on
// the pattern: the task becomes a schedule task and the pattern is attached
// to the first subtask. The input document is not modified.
func Apply(request models.Document, p Pattern) (models.Document, error) {
	pattern, err := p.Document()
	if err != nil {
		return nil, err
	}
	out := request.DeepCopy()
	taskInfo := out.Object("taskInfo")
	if taskInfo == nil {
		return nil, fmt.Errorf("request has no taskInfo")
	}
	subTasks := taskInfo.List("subTasks")
	if len(subTasks) == 0 {
		return nil, fmt.Errorf("request has no subTasks")
	}
	first, ok := models.AsDocument(subTasks[0])
	if !ok {
		return nil, fmt.Errorf("request subTasks[0] is not an object")
	}

	taskInfo.Set([]string{"task", "taskType"}, TaskTypeSchedule)
	first["pattern"] = pattern
	if p.Name != "" {
		first.Set([]string{"subTask", "subTaskName"}, p.Name)
	}
	return out, nil
}
