package scenes

// DurationRange maps elapsed playback time to a maximum scene length.
// EndSeconds nil means "and above"; a normalized list has exactly one such
// range and it is always last.
type DurationRange struct {
	EndSeconds    *float64 `json:"endSeconds"`
	SceneDuration float64  `json:"sceneDuration"`
}

// EndAt returns a pointer suitable for DurationRange.EndSeconds.
func EndAt(seconds float64) *float64 {
	return &seconds
}

// DefaultDurationRanges returns the policy used for long-form content:
// scenes of 4s during the first minute, 6s up to three minutes, 8s beyond.
func DefaultDurationRanges() []DurationRange {
	return []DurationRange{
		{EndSeconds: EndAt(60), SceneDuration: 4},
		{EndSeconds: EndAt(180), SceneDuration: 6},
		{EndSeconds: nil, SceneDuration: 8},
	}
}

// ShortFormDurationRanges returns the tighter policy used for short-form
// content.
func ShortFormDurationRanges() []DurationRange {
	return []DurationRange{
		{EndSeconds: EndAt(5), SceneDuration: 2},
		{EndSeconds: EndAt(15), SceneDuration: 4},
		{EndSeconds: nil, SceneDuration: 6},
	}
}

// ConvertLegacyRanges converts the legacy five-scalar duration configuration
// (three per-tier durations plus two range boundaries) to the range-list
// form. The legacy shape is accepted only at the boundary; everything
// internal works on []DurationRange.
func ConvertLegacyRanges(duration0to1, duration1to3, duration3plus, rangeEnd1, rangeEnd2 float64) []DurationRange {
	return []DurationRange{
		{EndSeconds: EndAt(rangeEnd1), SceneDuration: duration0to1},
		{EndSeconds: EndAt(rangeEnd2), SceneDuration: duration1to3},
		{EndSeconds: nil, SceneDuration: duration3plus},
	}
}

// NormalizeRanges sorts finite ranges ascending by EndSeconds and guarantees
// exactly one open-ended range in last position. If the input has no open
// range, the last finite range is converted to open-ended. An empty input
// yields DefaultDurationRanges.
func NormalizeRanges(ranges []DurationRange) []DurationRange {
	var finite []DurationRange
	var open *DurationRange

	for _, r := range ranges {
		if r.EndSeconds == nil {
			if open == nil {
				r := r
				open = &r
			}
			continue
		}
		finite = append(finite, r)
	}

	// Insertion sort keeps ties in input order; range lists are tiny.
	for i := 1; i < len(finite); i++ {
		for j := i; j > 0 && *finite[j].EndSeconds < *finite[j-1].EndSeconds; j-- {
			finite[j], finite[j-1] = finite[j-1], finite[j]
		}
	}

	if open != nil {
		return append(finite, *open)
	}
	if len(finite) > 0 {
		last := finite[len(finite)-1]
		last.EndSeconds = nil
		return append(finite[:len(finite)-1], last)
	}
	return DefaultDurationRanges()
}

// DurationFor returns the scene duration of the first range that applies to
// the given timestamp: the first whose EndSeconds is nil or greater than the
// timestamp. Falls back to the last range's duration; on a normalized list
// the fallback is unreachable because the open range matches everything.
func DurationFor(timestamp float64, ranges []DurationRange) float64 {
	for _, r := range ranges {
		if r.EndSeconds == nil || timestamp < *r.EndSeconds {
			return r.SceneDuration
		}
	}
	if len(ranges) > 0 {
		return ranges[len(ranges)-1].SceneDuration
	}
	return 8
}
