package scenes

import "testing"

func TestNormalizeRangesSortsAndKeepsOpenLast(t *testing.T) {
	ranges := []DurationRange{
		{EndSeconds: nil, SceneDuration: 8},
		{EndSeconds: EndAt(180), SceneDuration: 6},
		{EndSeconds: EndAt(60), SceneDuration: 4},
	}

	got := NormalizeRanges(ranges)
	if len(got) != 3 {
		t.Fatalf("NormalizeRanges returned %d ranges; want 3", len(got))
	}
	if got[0].EndSeconds == nil || *got[0].EndSeconds != 60 {
		t.Fatalf("first range end = %v; want 60", got[0].EndSeconds)
	}
	if got[1].EndSeconds == nil || *got[1].EndSeconds != 180 {
		t.Fatalf("second range end = %v; want 180", got[1].EndSeconds)
	}
	if got[2].EndSeconds != nil {
		t.Fatalf("last range end = %v; want open-ended", *got[2].EndSeconds)
	}
}

func TestNormalizeRangesConvertsLastFiniteToOpen(t *testing.T) {
	ranges := []DurationRange{
		{EndSeconds: EndAt(120), SceneDuration: 5},
		{EndSeconds: EndAt(30), SceneDuration: 3},
	}

	got := NormalizeRanges(ranges)
	if len(got) != 2 {
		t.Fatalf("NormalizeRanges returned %d ranges; want 2", len(got))
	}
	if got[0].EndSeconds == nil || *got[0].EndSeconds != 30 {
		t.Fatalf("first range end = %v; want 30", got[0].EndSeconds)
	}
	if got[1].EndSeconds != nil {
		t.Fatalf("last range should be open-ended, got end %v", *got[1].EndSeconds)
	}
	if got[1].SceneDuration != 5 {
		t.Fatalf("open range duration = %v; want 5 (from the 120s range)", got[1].SceneDuration)
	}
}

func TestNormalizeRangesEmptyReturnsDefault(t *testing.T) {
	got := NormalizeRanges(nil)
	want := DefaultDurationRanges()
	if len(got) != len(want) {
		t.Fatalf("NormalizeRanges(nil) returned %d ranges; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].SceneDuration != want[i].SceneDuration {
			t.Fatalf("range %d duration = %v; want %v", i, got[i].SceneDuration, want[i].SceneDuration)
		}
	}
	if got[len(got)-1].EndSeconds != nil {
		t.Fatalf("default policy must end with an open range")
	}
}

func TestDurationFor(t *testing.T) {
	ranges := DefaultDurationRanges()

	cases := []struct {
		name      string
		timestamp float64
		want      float64
	}{
		{"start", 0, 4},
		{"just before first boundary", 59.9, 4},
		{"at first boundary", 60, 6},
		{"middle tier", 120, 6},
		{"at second boundary", 180, 8},
		{"deep into open range", 3600, 8},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DurationFor(c.timestamp, ranges); got != c.want {
				t.Fatalf("DurationFor(%v) = %v; want %v", c.timestamp, got, c.want)
			}
		})
	}
}

func TestConvertLegacyRanges(t *testing.T) {
	got := ConvertLegacyRanges(4, 6, 8, 60, 180)

	if len(got) != 3 {
		t.Fatalf("ConvertLegacyRanges returned %d ranges; want 3", len(got))
	}
	if *got[0].EndSeconds != 60 || got[0].SceneDuration != 4 {
		t.Fatalf("first range = %+v; want end 60 duration 4", got[0])
	}
	if *got[1].EndSeconds != 180 || got[1].SceneDuration != 6 {
		t.Fatalf("second range = %+v; want end 180 duration 6", got[1])
	}
	if got[2].EndSeconds != nil || got[2].SceneDuration != 8 {
		t.Fatalf("third range = %+v; want open-ended duration 8", got[2])
	}
}
