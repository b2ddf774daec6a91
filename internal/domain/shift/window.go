package shift

import "time"

// Classification is the timing verdict for a check-in. It never rejects a
// submission; late check-ins still produce a record pending review.
type Classification struct {
	ShiftName        string
	WithinWindow     bool
	GraceUsed        bool
	LateMinutes      int
	RequiresApproval bool
}

// Evaluate classifies a check-in moment against a shift window.
//
// A check-in exactly at the window end is on time. Between end and
// end+grace the check-in is accepted with the grace flag set. Past the
// grace limit the check-in still counts but requires human approval.
func Evaluate(cfg Config, now time.Time) Classification {
	start := cfg.Start.At(now)
	end := cfg.End.At(now)
	graceEnd := end.Add(time.Duration(cfg.GraceMinutes) * time.Minute)

	c := Classification{ShiftName: cfg.Name}

	switch {
	case now.Before(start):
		// Early check-in: counted as on time, lateness does not apply.
		c.WithinWindow = true
	case !now.After(end):
		c.WithinWindow = true
	case !now.After(graceEnd):
		c.WithinWindow = true
		c.GraceUsed = true
		c.LateMinutes = lateMinutes(now, end)
	default:
		c.RequiresApproval = true
		c.LateMinutes = lateMinutes(now, end)
	}

	return c
}

func lateMinutes(now, end time.Time) int {
	if !now.After(end) {
		return 0
	}
	return int(now.Sub(end).Minutes())
}
