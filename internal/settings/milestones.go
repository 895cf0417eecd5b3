package settings

// shareMilestones is the fixed allow-list of streak values worth a share
// prompt. Not every integer qualifies, so the nudge stays rare.
var shareMilestones = []int{5, 10, 20, 30, 50, 100}

// IsShareMilestone reports whether streak sits exactly on a shareable
// milestone. Beyond 100, every further multiple of 100 qualifies.
func IsShareMilestone(streak int) bool {
	for _, m := range shareMilestones {
		if streak == m {
			return true
		}
	}
	return streak > 100 && streak%100 == 0
}

// NextShareMilestone returns the next milestone above the current streak.
func NextShareMilestone(streak int) int {
	for _, m := range shareMilestones {
		if m > streak {
			return m
		}
	}
	return ((streak / 100) + 1) * 100
}
