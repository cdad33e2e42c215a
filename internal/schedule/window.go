package schedule

import "time"

// DefaultWindow is how long after its scheduled instant a reminder stays
// eligible. The batch job must run at an interval no longer than this or
// instants can fall between runs and expire unobserved, an accepted
// limitation, not something the evaluator compensates for.
const DefaultWindow = 30 * time.Minute

// Due reports whether now falls inside the half-open dispatch window
// [scheduled, scheduled+window). The instant itself is eligible; the
// instant plus the full window is not.
func Due(now, scheduled time.Time, window time.Duration) bool {
	return !now.Before(scheduled) && now.Before(scheduled.Add(window))
}
