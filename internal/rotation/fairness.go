package rotation

import "time"

// neverPlayedRestMinutes is the rest value for an entry none of whose
// players has played yet, so fresh entries outrank everyone on rest.
const neverPlayedRestMinutes = 999999

// minutesBetween returns a-b in minutes, clamped at zero.
func minutesBetween(a, b time.Time) float64 {
	d := a.Sub(b)
	if d < 0 {
		return 0
	}
	return d.Minutes()
}

// fairnessScore is wait time plus rest time. lastPlayedAt nil means no
// player of the entry has ever played this session.
func fairnessScore(now, queuedAt time.Time, lastPlayedAt *time.Time) float64 {
	waitMinutes := minutesBetween(now, queuedAt)
	if lastPlayedAt == nil {
		return waitMinutes + neverPlayedRestMinutes
	}
	return waitMinutes + minutesBetween(now, *lastPlayedAt)
}

// restAnchor picks the earliest lastPlayedAt among players who have one.
// The most-rested member anchors the entry's rest time; members who have
// never played are skipped. Returns nil when nobody has played.
func restAnchor(lastPlayed []*time.Time) *time.Time {
	var anchor *time.Time
	for _, t := range lastPlayed {
		if t == nil {
			continue
		}
		if anchor == nil || t.Before(*anchor) {
			anchor = t
		}
	}
	return anchor
}
