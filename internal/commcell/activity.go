package commcell

import (
	"time"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

// TimeLayout is the format delayed-enable times are given in.
const TimeLayout = "2006-01-02 15:04:05"

// Activity types of agent activity control.
const (
	ActivityBackup  = 1
	ActivityRestore = 2
)

// futureTime parses value and requires it to be after now. A value that does
// not parse is always a format error, whatever its date.
func (cc *Commcell) futureTime(entity, value string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, value, cc.location)
	if err != nil {
		return time.Time{}, sdkerr.InvalidTimeFormat(entity, value, TimeLayout)
	}
	if !t.After(cc.now()) {
		return time.Time{}, sdkerr.TimeNotInFuture(entity, value)
	}
	return t, nil
}

// timeValue is the dateTime block of delayed activity requests.
func (cc *Commcell) timeValue(value string) models.Document {
	return models.Document{"TimeZoneName": cc.timeZone, "timeValue": value}
}

// activityOption builds one activityControlOptions entry. A non-empty at
// delays enabling until that time.
func (cc *Commcell) activityOption(activityType int, enable bool, at string) models.Document {
	opt := models.Document{
		"activityType":       activityType,
		"enableAfterADelay":  false,
		"enableActivityType": enable,
	}
	if at != "" {
		opt["enableAfterADelay"] = true
		opt["enableActivityType"] = false
		opt["dateTime"] = cc.timeValue(at)
	}
	return opt
}

// activityEnabled reads enableActivityType for activityType from a list of
// activity control options.
func activityEnabled(options []interface{}, activityType int) bool {
	for _, o := range options {
		if d, ok := models.AsDocument(o); ok && d.Int("activityType") == activityType {
			return d.Bool("enableActivityType")
		}
	}
	return false
}
