package supplierclient

import (
	"fmt"
	"strings"
	"time"
)

// FlexibleTime unmarshals supplier timestamps that arrive either as RFC3339
// or as a naive local datetime without offset.
type FlexibleTime struct {
	time.Time
}

var flexibleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (f *FlexibleTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		f.Time = time.Time{}
		return nil
	}
	for _, layout := range flexibleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t
			return nil
		}
	}
	return fmt.Errorf("unsupported time format: %q", s)
}
