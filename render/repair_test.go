package render

import (
	"testing"

	"scenecast/scenes"
)

func TestRepairMissingImages(t *testing.T) {
	scs := []scenes.Scene{
		{Text: "one.", ImageURL: "https://cdn/0.png"},
		{Text: "two."},
		{Text: "three."},
		{Text: "four.", ImageURL: "https://cdn/3.png"},
	}
	completed := map[int]string{
		1: "https://cdn/recovered_1.png",
		3: "https://cdn/should_not_overwrite.png",
	}

	repaired, count := RepairMissingImages(scs, completed)

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if repaired[1].ImageURL != "https://cdn/recovered_1.png" {
		t.Errorf("scene 1 url = %q", repaired[1].ImageURL)
	}
	if repaired[2].ImageURL != "" {
		t.Errorf("scene 2 should stay missing, got %q", repaired[2].ImageURL)
	}
	if repaired[3].ImageURL != "https://cdn/3.png" {
		t.Error("existing image URL must not be overwritten")
	}

	// Input untouched.
	if scs[1].ImageURL != "" {
		t.Error("input slice mutated")
	}
}

func TestRepairMissingImagesEmptyMap(t *testing.T) {
	scs := []scenes.Scene{{Text: "one."}}
	repaired, count := RepairMissingImages(scs, nil)
	if count != 0 || repaired[0].ImageURL != "" {
		t.Errorf("unexpected repair: count=%d scenes=%+v", count, repaired)
	}
}
