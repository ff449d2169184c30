package planner

import (
	"fmt"
	"time"

	"github.com/ajespoo/RoutePlanner/internal/models"
)

// ArrivalLayout is the inbound arrival_time format, YYYYMMDDhhmmss
const ArrivalLayout = "20060102150405"

// ParseArrival parses a 14 digit arrival time as wall-clock time in loc.
// Values that do not exist in loc, such as times skipped by a DST change,
// are rejected.
func ParseArrival(value string, loc *time.Location) (time.Time, error) {
	if len(value) != len(ArrivalLayout) {
		return time.Time{}, invalidDate(value)
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return time.Time{}, invalidDate(value)
		}
	}

	t, err := time.ParseInLocation(ArrivalLayout, value, loc)
	if err != nil {
		return time.Time{}, invalidDate(value)
	}
	if t.Format(ArrivalLayout) != value {
		return time.Time{}, invalidDate(value)
	}

	return t, nil
}

func invalidDate(value string) error {
	return &InputError{
		Code:    models.ErrInvalidDateFormat,
		Message: fmt.Sprintf("Invalid arrival_time %q: expected YYYYMMDDhhmmss", value),
	}
}
