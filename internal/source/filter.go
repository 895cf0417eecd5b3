package source

// Filter selects which slice of the problem pool a fetch draws from.
type Filter struct {
	// Difficulty is the pool difficulty band (e.g. "easy", "normal", "hard").
	Difficulty string
	// Length is the sentence-length band (e.g. "short", "medium", "long").
	Length string
	// Search is a one-off free-text filter. Background refills strip it so
	// the queue stays representative of the whole pool.
	Search string
}

// ForRefill returns the filter with the one-off search term removed.
func (f Filter) ForRefill() Filter {
	f.Search = ""
	return f
}

// CourseID is the stable identifier used to namespace per-course settings
// and streaks. The search term is deliberately excluded.
func (f Filter) CourseID() string {
	d := f.Difficulty
	if d == "" {
		d = "any"
	}
	l := f.Length
	if l == "" {
		l = "any"
	}
	return d + "-" + l
}
