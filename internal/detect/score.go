package detect

// Score counts independent corroborating signals inside one detector. Each
// detector compares its count against its own threshold instead of repeating
// inline arithmetic, which keeps thresholds auditable and testable alone.
type Score int

// Add counts one signal when ok is true.
func (s *Score) Add(ok bool) {
	if ok {
		*s++
	}
}

// AddWeighted counts a signal as weight corroborations. Used for markers
// distinctive enough to decide on their own (weight equal to the threshold).
func (s *Score) AddWeighted(ok bool, weight int) {
	if ok {
		*s += Score(weight)
	}
}

// AtLeast reports whether the corroboration count reached n.
func (s Score) AtLeast(n int) bool {
	return int(s) >= n
}
