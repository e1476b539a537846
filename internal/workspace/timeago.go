package workspace

import (
	"fmt"
	"time"
)

// TimeAgo renders how long ago t was, relative to now. A nil t means the
// container has never run.
func TimeAgo(t *time.Time, now time.Time) string {
	if t == nil {
		return "never run"
	}
	d := now.Sub(*t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d days ago", int(d/(24*time.Hour)))
	}
}
