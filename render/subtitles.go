package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"scenecast/scenes"
	"scenecast/types"
)

const (
	defaultSubtitleFont = "Arial"
	defaultSubtitleSize = 48
)

// WriteASS generates an ASS subtitle file with one dialogue event per scene,
// styled from the caller's subtitle settings. Play resolution matches the
// output video so pixel positions line up with what the caller dragged into
// place.
func WriteASS(scs []scenes.Scene, settings types.SubtitleSettings, width, height int, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	font := settings.FontFamily
	if font == "" {
		font = defaultSubtitleFont
	}
	size := settings.FontSize
	if size <= 0 {
		size = defaultSubtitleSize
	}

	primary := assColor(settings.Color, 0)
	back := assColor(settings.BackgroundColor, 1-settings.BackgroundOpacity)
	shadow := 0
	if settings.Shadow {
		shadow = 2
	}

	fmt.Fprintln(file, "[Script Info]")
	fmt.Fprintln(file, "ScriptType: v4.00+")
	fmt.Fprintf(file, "PlayResX: %d\n", width)
	fmt.Fprintf(file, "PlayResY: %d\n", height)
	fmt.Fprintln(file, "")
	fmt.Fprintln(file, "[V4+ Styles]")
	fmt.Fprintln(file, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding")
	// BorderStyle 3 draws the background as an opaque box behind the text.
	fmt.Fprintf(file, "Style: Default,%s,%d,%s,%s,&H00000000,%s,0,0,0,0,100,100,0,0,3,2,%d,2,40,40,60,1\n",
		font, size, primary, primary, back, shadow)
	fmt.Fprintln(file, "")
	fmt.Fprintln(file, "[Events]")
	fmt.Fprintln(file, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text")

	// Caller-supplied position overrides the default bottom-center alignment.
	// Coordinates are treated as opaque and written through unmodified.
	var posTag string
	if settings.X != 0 || settings.Y != 0 {
		posTag = fmt.Sprintf("{\\pos(%s,%s)}",
			strconv.FormatFloat(settings.X, 'f', -1, 64),
			strconv.FormatFloat(settings.Y, 'f', -1, 64))
	}

	for _, sc := range scs {
		text := strings.TrimSpace(sc.Text)
		if text == "" {
			continue
		}
		text = strings.ReplaceAll(text, "\n", "\\N")
		fmt.Fprintf(file, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s%s\n",
			formatASSTimestamp(sc.StartTime),
			formatASSTimestamp(sc.EndTime),
			posTag, text)
	}

	return nil
}

// WriteSRT generates an SRT caption file from the scenes, one cue per scene.
func WriteSRT(scs []scenes.Scene, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	cue := 1
	for _, sc := range scs {
		if strings.TrimSpace(sc.Text) == "" {
			continue
		}
		fmt.Fprintf(file, "%d\n", cue)
		fmt.Fprintf(file, "%s --> %s\n", formatSRTTimestamp(sc.StartTime), formatSRTTimestamp(sc.EndTime))
		fmt.Fprintf(file, "%s\n\n", sc.Text)
		cue++
	}

	return nil
}

// assColor converts a "#RRGGBB" hex color to ASS &HAABBGGRR form (BGR order
// with inverted alpha: 00 opaque, FF transparent). Malformed input falls back
// to opaque white.
func assColor(hex string, transparency float64) string {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	r, g, b := 255, 255, 255
	if len(hex) == 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			r = int(v >> 16 & 0xFF)
			g = int(v >> 8 & 0xFF)
			b = int(v & 0xFF)
		}
	}
	if transparency < 0 {
		transparency = 0
	}
	if transparency > 1 {
		transparency = 1
	}
	alpha := int(transparency*255 + 0.5)
	return fmt.Sprintf("&H%02X%02X%02X%02X", alpha, b, g, r)
}

// formatASSTimestamp converts seconds to the ASS h:mm:ss.cc form.
func formatASSTimestamp(seconds float64) string {
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := int(seconds) % 60
	centisecs := int((seconds - float64(int(seconds))) * 100)

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centisecs)
}

// formatSRTTimestamp converts seconds to the SRT hh:mm:ss,mmm form.
func formatSRTTimestamp(seconds float64) string {
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := int(seconds) % 60
	millis := int((seconds - float64(int(seconds))) * 1000)

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
