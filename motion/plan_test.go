package motion

import (
	"strings"
	"testing"
)

func TestZoomMonotonicity(t *testing.T) {
	cases := []struct {
		name       string
		effect     Effect
		increasing bool
	}{
		{"zoom in", ZoomIn, true},
		{"zoom in left", ZoomInLeft, true},
		{"zoom in top", ZoomInTop, true},
		{"zoom out", ZoomOut, false},
		{"zoom out right", ZoomOutRight, false},
		{"zoom out bottom", ZoomOutBottom, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := NewPlan(c.effect, 5, 1920, 1080, 25)
			prev := p.FrameAt(0).Zoom
			for i := 1; i < p.TotalFrames; i++ {
				z := p.FrameAt(i).Zoom
				if c.increasing && z < prev {
					t.Fatalf("frame %d zoom %.6f < previous %.6f; want non-decreasing", i, z, prev)
				}
				if !c.increasing && z > prev {
					t.Fatalf("frame %d zoom %.6f > previous %.6f; want non-increasing", i, z, prev)
				}
				prev = z
			}
		})
	}
}

func TestCropStaysWithinBounds(t *testing.T) {
	effects := []Effect{
		ZoomIn, ZoomOut, ZoomInLeft, ZoomOutRight, ZoomInTop, ZoomOutBottom,
		PanHorizontal, PanVertical,
	}
	dims := []struct{ w, h int }{
		{1920, 1080},
		{1280, 720},
		{1080, 1920},
	}
	durations := []float64{0.5, 4, 12.7}

	for _, e := range effects {
		for _, d := range dims {
			for _, dur := range durations {
				p := NewPlan(e, dur, d.w, d.h, 25)
				for i := 0; i < p.TotalFrames; i++ {
					c := p.FrameAt(i)
					if c.X < 0 || c.Y < 0 {
						t.Fatalf("%s %dx%d %.1fs frame %d: negative crop origin (%.3f, %.3f)", e, d.w, d.h, dur, i, c.X, c.Y)
					}
					if c.X+c.Width > float64(d.w)+1e-9 {
						t.Fatalf("%s %dx%d %.1fs frame %d: crop exceeds width (%.3f+%.3f > %d)", e, d.w, d.h, dur, i, c.X, c.Width, d.w)
					}
					if c.Y+c.Height > float64(d.h)+1e-9 {
						t.Fatalf("%s %dx%d %.1fs frame %d: crop exceeds height (%.3f+%.3f > %d)", e, d.w, d.h, dur, i, c.Y, c.Height, d.h)
					}
				}
			}
		}
	}
}

func TestZoomCropSize(t *testing.T) {
	p := NewPlan(ZoomIn, 4, 1920, 1080, 25)

	first := p.FrameAt(0)
	if first.Zoom != 1.0 {
		t.Fatalf("first frame zoom = %v; want 1.0", first.Zoom)
	}
	if first.Width != 1920 || first.Height != 1080 {
		t.Fatalf("first frame crop = %vx%v; want full image", first.Width, first.Height)
	}

	last := p.FrameAt(p.TotalFrames - 1)
	if last.Zoom <= first.Zoom {
		t.Fatalf("last frame zoom %v not greater than first %v", last.Zoom, first.Zoom)
	}
	if last.Width >= first.Width || last.Height >= first.Height {
		t.Fatalf("crop should shrink as zoom grows: first %vx%v, last %vx%v", first.Width, first.Height, last.Width, last.Height)
	}
}

func TestDirectionalFocus(t *testing.T) {
	const w, h = 1920, 1080
	frames := 100 // 4s at 25fps

	center := NewPlan(ZoomIn, 4, w, h, 25).FrameAt(frames - 1)
	left := NewPlan(ZoomInLeft, 4, w, h, 25).FrameAt(frames - 1)
	top := NewPlan(ZoomInTop, 4, w, h, 25).FrameAt(frames - 1)

	if left.X >= center.X {
		t.Fatalf("left-focused crop X %.3f should sit left of centered %.3f", left.X, center.X)
	}
	if top.Y >= center.Y {
		t.Fatalf("top-focused crop Y %.3f should sit above centered %.3f", top.Y, center.Y)
	}

	right := NewPlan(ZoomOutRight, 4, w, h, 25).FrameAt(0)
	bottom := NewPlan(ZoomOutBottom, 4, w, h, 25).FrameAt(0)
	centerOut := NewPlan(ZoomOut, 4, w, h, 25).FrameAt(0)
	if right.X <= centerOut.X {
		t.Fatalf("right-focused crop X %.3f should sit right of centered %.3f", right.X, centerOut.X)
	}
	if bottom.Y <= centerOut.Y {
		t.Fatalf("bottom-focused crop Y %.3f should sit below centered %.3f", bottom.Y, centerOut.Y)
	}
}

func TestPanRoundTripSymmetry(t *testing.T) {
	for _, e := range []Effect{PanHorizontal, PanVertical} {
		t.Run(string(e), func(t *testing.T) {
			p := NewPlan(e, 6, 1920, 1080, 25)

			first := p.FrameAt(0)
			last := p.FrameAt(p.TotalFrames - 1)
			if first.X != last.X || first.Y != last.Y {
				t.Fatalf("first frame (%.3f, %.3f) != last frame (%.3f, %.3f); pan must round-trip",
					first.X, first.Y, last.X, last.Y)
			}

			mid := p.FrameAt((p.TotalFrames - 1) / 2)
			for i := 0; i < p.TotalFrames; i++ {
				c := p.FrameAt(i)
				if e == PanHorizontal && c.X > mid.X+1e-9 {
					t.Fatalf("frame %d X %.3f exceeds midpoint extremum %.3f", i, c.X, mid.X)
				}
				if e == PanVertical && c.Y > mid.Y+1e-9 {
					t.Fatalf("frame %d Y %.3f exceeds midpoint extremum %.3f", i, c.Y, mid.Y)
				}
			}
			if e == PanHorizontal && mid.X <= first.X {
				t.Fatalf("midpoint X %.3f should exceed endpoints %.3f", mid.X, first.X)
			}
			if e == PanVertical && mid.Y <= first.Y {
				t.Fatalf("midpoint Y %.3f should exceed endpoints %.3f", mid.Y, first.Y)
			}
		})
	}
}

func TestPanFixedZoom(t *testing.T) {
	p := NewPlan(PanHorizontal, 5, 1920, 1080, 25)
	for i := 0; i < p.TotalFrames; i++ {
		if z := p.FrameAt(i).Zoom; z != PanZoom {
			t.Fatalf("frame %d zoom = %v; pan family keeps fixed zoom %v", i, z, PanZoom)
		}
	}
}

func TestTotalFrames(t *testing.T) {
	cases := []struct {
		duration  float64
		framerate int
		want      int
	}{
		{4, 25, 100},
		{4.01, 25, 101},
		{0.02, 25, 1},
		{0, 25, 1},
	}
	for _, c := range cases {
		p := NewPlan(ZoomIn, c.duration, 1920, 1080, c.framerate)
		if p.TotalFrames != c.want {
			t.Fatalf("NewPlan(%v, %d).TotalFrames = %d; want %d", c.duration, c.framerate, p.TotalFrames, c.want)
		}
	}
}

func TestVariantRotation(t *testing.T) {
	seen := map[Effect]bool{}
	for i := 0; i < 12; i++ {
		seen[VariantFor(FamilyZoom, i)] = true
	}
	if len(seen) != 6 {
		t.Fatalf("zoom rotation covered %d variants; want all 6", len(seen))
	}
	if VariantFor(FamilyZoom, 0) != VariantFor(FamilyZoom, 6) {
		t.Fatalf("rotation must be deterministic by index")
	}
	if VariantFor(FamilyPan, 0) == VariantFor(FamilyPan, 1) {
		t.Fatalf("pan rotation should alternate variants")
	}
}

func TestZoompanExprs(t *testing.T) {
	p := NewPlan(ZoomIn, 4, 1920, 1080, 25)
	z, x, y := p.ZoompanExprs()
	if z != "1+0.080*on/100" {
		t.Fatalf("zoom expr = %q; want %q", z, "1+0.080*on/100")
	}
	if x != "(iw-iw/zoom)*1/2" || y != "(ih-ih/zoom)*1/2" {
		t.Fatalf("center exprs = %q, %q; want centered", x, y)
	}

	p = NewPlan(ZoomOutRight, 4, 1920, 1080, 25)
	z, x, _ = p.ZoompanExprs()
	if z != "1.080-0.080*on/100" {
		t.Fatalf("zoom-out expr = %q; want %q", z, "1.080-0.080*on/100")
	}
	if x != "(iw-iw/zoom)*3/4" {
		t.Fatalf("right-focused x expr = %q; want three-quarter offset", x)
	}

	p = NewPlan(PanHorizontal, 4, 1920, 1080, 25)
	z, x, y = p.ZoompanExprs()
	if z != "1.300" {
		t.Fatalf("pan zoom expr = %q; want fixed 1.300", z)
	}
	if !strings.Contains(x, "abs(") {
		t.Fatalf("pan x expr = %q; want triangular wave term", x)
	}
	if y != "(ih-ih/1.300)/2" {
		t.Fatalf("pan y expr = %q; want centered", y)
	}
}
