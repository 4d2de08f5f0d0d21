package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/social-apps/backend/internal/storage/models"
)

var clientLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	models.StorageLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseClientTime parses a date sent by the browser calendar.
//
// With adjust set, a value carrying an offset is converted to UTC. Without it
// the offset is dropped and the wall-clock time is kept as is. Values without
// an offset are read as UTC either way. The result is truncated to seconds.
func ParseClientTime(s string, adjust bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clientLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if adjust {
			t = t.UTC()
		} else {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		}
		return t.Truncate(time.Second), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
