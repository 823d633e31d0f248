// Package motion computes the per-frame crop/zoom geometry for Ken-Burns
// style effects over a still image. The same formulas drive both the
// per-frame Crop values and the ffmpeg zoompan expressions, so materialized
// frames and filter-graph renders stay in sync.
package motion

import (
	"fmt"
	"math"
)

// Effect identifies one crop/zoom trajectory variant.
type Effect string

const (
	ZoomIn        Effect = "zoom_in"
	ZoomOut       Effect = "zoom_out"
	ZoomInLeft    Effect = "zoom_in_left"
	ZoomOutRight  Effect = "zoom_out_right"
	ZoomInTop     Effect = "zoom_in_top"
	ZoomOutBottom Effect = "zoom_out_bottom"
	PanHorizontal Effect = "pan_horizontal"
	PanVertical   Effect = "pan_vertical"
)

// Family selects between the zoom effects and the pan effects.
type Family string

const (
	FamilyZoom Family = "zoom"
	FamilyPan  Family = "pan"
)

const (
	// ZoomAmount is the linear zoom excursion of the zoom family: factor
	// moves between 1.0 and 1.08 across the scene.
	ZoomAmount = 0.08
	// PanZoom is the fixed zoom-in applied by the pan family to create the
	// margin the crop window sweeps through.
	PanZoom = 1.3
	// PanAmount scales the sweep: 15% of the available travel.
	PanAmount = 0.15
)

var zoomRotation = []Effect{ZoomIn, ZoomOut, ZoomInLeft, ZoomOutRight, ZoomInTop, ZoomOutBottom}

var panRotation = []Effect{PanHorizontal, PanVertical}

// VariantFor rotates through a family's variants by scene index, giving
// deterministic but varied motion across a project.
func VariantFor(family Family, sceneIndex int) Effect {
	if family == FamilyPan {
		return panRotation[sceneIndex%len(panRotation)]
	}
	return zoomRotation[sceneIndex%len(zoomRotation)]
}

// IsPan reports whether the effect belongs to the pan family.
func (e Effect) IsPan() bool {
	return e == PanHorizontal || e == PanVertical
}

// Crop is the source-image window for one frame. Coordinates are always
// clamped to the image bounds.
type Crop struct {
	X, Y          float64
	Width, Height float64
	Zoom          float64
}

// Plan is the deterministic frame-index → crop function for one scene.
type Plan struct {
	Effect      Effect
	Width       int // source dimensions the crop operates on
	Height      int
	Framerate   int
	TotalFrames int
}

// NewPlan builds the motion plan for a scene of the given duration. Frame
// count is ceil(duration * framerate), minimum one frame.
func NewPlan(effect Effect, duration float64, width, height, framerate int) Plan {
	frames := int(math.Ceil(duration * float64(framerate)))
	if frames < 1 {
		frames = 1
	}
	return Plan{
		Effect:      effect,
		Width:       width,
		Height:      height,
		Framerate:   framerate,
		TotalFrames: frames,
	}
}

// FrameAt returns the crop window for frame i. Indices outside
// [0, TotalFrames-1] are clamped.
func (p Plan) FrameAt(i int) Crop {
	if i < 0 {
		i = 0
	}
	if i >= p.TotalFrames {
		i = p.TotalFrames - 1
	}
	if p.Effect.IsPan() {
		return p.panFrame(i)
	}
	return p.zoomFrame(i)
}

func (p Plan) zoomFrame(i int) Crop {
	w := float64(p.Width)
	h := float64(p.Height)
	progress := float64(i) / float64(p.TotalFrames)

	var zoom float64
	if zoomsIn(p.Effect) {
		zoom = 1 + ZoomAmount*progress
	} else {
		zoom = (1 + ZoomAmount) - ZoomAmount*progress
	}

	cropW := w / zoom
	cropH := h / zoom

	// Available slack on each axis once the crop is taken out.
	slackX := w - cropW
	slackY := h - cropH

	x := slackX * focusX(p.Effect)
	y := slackY * focusY(p.Effect)

	return Crop{
		X:      clamp(x, 0, slackX),
		Y:      clamp(y, 0, slackY),
		Width:  cropW,
		Height: cropH,
		Zoom:   zoom,
	}
}

func (p Plan) panFrame(i int) Crop {
	w := float64(p.Width)
	h := float64(p.Height)

	cropW := w / PanZoom
	cropH := h / PanZoom
	slackX := w - cropW
	slackY := h - cropH

	// Triangular wave over the full frame range: 0 at the first and last
	// frame, 1 at the midpoint, giving a there-and-back sweep.
	denom := float64(p.TotalFrames - 1)
	if denom <= 0 {
		denom = 1
	}
	progress := float64(i) / denom
	tri := 1 - math.Abs(2*progress-1)

	x := slackX / 2
	y := slackY / 2
	if p.Effect == PanHorizontal {
		x += slackX * PanAmount * tri
	} else {
		y += slackY * PanAmount * tri
	}

	return Crop{
		X:      clamp(x, 0, slackX),
		Y:      clamp(y, 0, slackY),
		Width:  cropW,
		Height: cropH,
		Zoom:   PanZoom,
	}
}

// ZoompanExprs returns the zoom/x/y expressions for ffmpeg's zoompan filter,
// parameterized by the output frame number "on". They encode the same
// trajectory as FrameAt.
func (p Plan) ZoompanExprs() (zExpr, xExpr, yExpr string) {
	if p.Effect.IsPan() {
		denom := p.TotalFrames - 1
		if denom <= 0 {
			denom = 1
		}
		tri := fmt.Sprintf("(1-abs(2*on/%d-1))", denom)
		zExpr = fmt.Sprintf("%.3f", PanZoom)
		xExpr = fmt.Sprintf("(iw-iw/%.3f)/2", PanZoom)
		yExpr = fmt.Sprintf("(ih-ih/%.3f)/2", PanZoom)
		if p.Effect == PanHorizontal {
			xExpr = fmt.Sprintf("(iw-iw/%.3f)*(0.5+%.3f*%s)", PanZoom, PanAmount, tri)
		} else {
			yExpr = fmt.Sprintf("(ih-ih/%.3f)*(0.5+%.3f*%s)", PanZoom, PanAmount, tri)
		}
		return zExpr, xExpr, yExpr
	}

	if zoomsIn(p.Effect) {
		zExpr = fmt.Sprintf("1+%.3f*on/%d", ZoomAmount, p.TotalFrames)
	} else {
		zExpr = fmt.Sprintf("%.3f-%.3f*on/%d", 1+ZoomAmount, ZoomAmount, p.TotalFrames)
	}
	xExpr = fmt.Sprintf("(iw-iw/zoom)*%s", exprFraction(focusX(p.Effect)))
	yExpr = fmt.Sprintf("(ih-ih/zoom)*%s", exprFraction(focusY(p.Effect)))
	return zExpr, xExpr, yExpr
}

// zoomsIn reports whether the zoom factor increases over the scene.
func zoomsIn(e Effect) bool {
	switch e {
	case ZoomIn, ZoomInLeft, ZoomInTop:
		return true
	}
	return false
}

// focusX returns the horizontal position of the crop within the available
// slack: 0.5 centered, 0.25 toward the left edge, 0.75 toward the right.
func focusX(e Effect) float64 {
	switch e {
	case ZoomInLeft:
		return 0.25
	case ZoomOutRight:
		return 0.75
	}
	return 0.5
}

func focusY(e Effect) float64 {
	switch e {
	case ZoomInTop:
		return 0.25
	case ZoomOutBottom:
		return 0.75
	}
	return 0.5
}

// exprFraction renders the focus fractions the way the zoompan expressions
// traditionally spell them, to keep filter strings readable in logs.
func exprFraction(f float64) string {
	switch f {
	case 0.25:
		return "1/4"
	case 0.5:
		return "1/2"
	case 0.75:
		return "3/4"
	}
	return fmt.Sprintf("%.3f", f)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
