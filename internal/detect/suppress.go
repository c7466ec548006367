package detect

import (
	"image"
	"sort"
)

// iou returns intersection over union of two boxes
func iou(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - ia
	if union <= 0 {
		return 0
	}
	return ia / union
}

// Suppress performs greedy per-class non-maximum suppression. Detections
// are visited by descending score; a detection is dropped when it overlaps
// an already kept one of the same class by more than threshold.
func Suppress(dets []Detection, threshold float64) []Detection {
	if len(dets) < 2 {
		return dets
	}

	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	kept := make([]Detection, 0, len(sorted))
	for _, d := range sorted {
		overlap := false
		for _, k := range kept {
			if k.ClassID == d.ClassID && iou(k.Box, d.Box) > threshold {
				overlap = true
				break
			}
		}
		if !overlap {
			kept = append(kept, d)
		}
	}
	return kept
}
