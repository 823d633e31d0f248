package render

import "scenecast/scenes"

// RepairMissingImages re-attaches previously generated images to scenes that
// lost theirs, instead of regenerating everything. completed maps scene
// index to the image URL of an already-finished generation. Returns the
// repaired scene list and how many scenes were filled in.
func RepairMissingImages(scs []scenes.Scene, completed map[int]string) ([]scenes.Scene, int) {
	repaired := 0
	out := make([]scenes.Scene, len(scs))
	for i, sc := range scs {
		if sc.ImageURL == "" {
			if url, ok := completed[i]; ok && url != "" {
				sc.ImageURL = url
				repaired++
			}
		}
		out[i] = sc
	}
	return out, repaired
}
