package scenes

import (
	"strings"
	"unicode/utf8"
)

// ToleranceFactor bounds how far past its nominal maximum a scene may grow
// while looking for a sentence boundary: at most 1.5x the policy duration.
const ToleranceFactor = 1.5

// Segment coalesces consecutive transcript segments into scenes whose
// durations respect the duration policy.
//
// In strict mode (preferSentenceBoundaries false) a scene is closed as soon
// as appending the next segment would push its span past the policy maximum
// for the scene's start time.
//
// In sentence-aware mode the cut is deferred while the accumulated text does
// not end in terminal punctuation, up to ToleranceFactor times the nominal
// maximum, so scenes line up with sentences instead of cutting mid-thought.
// A scene that reaches the tolerance without finding a boundary is closed
// anyway; unbounded growth would wreck pacing.
//
// Segments are never split or dropped: a single segment longer than the
// tolerated maximum still becomes its own scene. Scenes whose text is only
// whitespace are never emitted. An empty transcript yields no scenes.
func Segment(segments []TranscriptSegment, ranges []DurationRange, preferSentenceBoundaries bool) []Scene {
	ranges = NormalizeRanges(ranges)

	var out []Scene
	var cur Scene

	flush := func() {
		if strings.TrimSpace(cur.Text) != "" {
			out = append(out, cur)
		}
	}

	for i, seg := range segments {
		// First segment, or previous scene was just emitted at a sentence
		// boundary: start accumulating from here.
		if i == 0 || cur.Text == "" {
			cur = Scene{Text: seg.Text, StartTime: seg.StartTime, EndTime: seg.EndTime}
			continue
		}

		potential := seg.EndTime - cur.StartTime
		max := DurationFor(cur.StartTime, ranges)

		if potential <= max {
			cur.Text += " " + seg.Text
			cur.EndTime = seg.EndTime
			continue
		}

		if !preferSentenceBoundaries {
			flush()
			cur = Scene{Text: seg.Text, StartTime: seg.StartTime, EndTime: seg.EndTime}
			continue
		}

		switch {
		case endsWithSentence(cur.Text):
			// Already at a clean boundary; close here.
			flush()
			cur = Scene{Text: seg.Text, StartTime: seg.StartTime, EndTime: seg.EndTime}
		case potential <= max*ToleranceFactor:
			// Overshoot the nominal max to chase a sentence end.
			cur.Text += " " + seg.Text
			cur.EndTime = seg.EndTime
			if endsWithSentence(cur.Text) {
				flush()
				cur = Scene{}
			}
		default:
			// Tolerance exhausted; force the cut mid-sentence.
			flush()
			cur = Scene{Text: seg.Text, StartTime: seg.StartTime, EndTime: seg.EndTime}
		}
	}

	flush()
	return out
}

// endsWithSentence reports whether text ends in terminal punctuation
// (". ! ? …"), optionally followed by a single closing quote.
func endsWithSentence(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	r, size := utf8.DecodeLastRuneInString(t)
	switch r {
	case '"', '\'', '”', '’':
		t = t[:len(t)-size]
		if t == "" {
			return false
		}
		r, _ = utf8.DecodeLastRuneInString(t)
	}
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}
