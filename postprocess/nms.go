// Package postprocess - Non-Maximum Suppression and score normalization for
// detection results.
package postprocess

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-modelapi/detections"
)

// Config defines parameters for Non-Maximum Suppression.
type Config struct {
	// IoUThreshold is the overlap threshold above which a box is suppressed.
	IoUThreshold float32
	// IncludeBoundaries counts box edges as one extra pixel of width/height,
	// compensating for discrete pixel coordinates.
	IncludeBoundaries bool
	// KeepTopK, when positive, truncates the score-ranked candidate list before
	// suppression. Boxes beyond the cap never suppress anything.
	KeepTopK int
	// ClassAware restricts suppression to boxes of the same class.
	ClassAware bool
}

// NMS filters overlapping boxes given as parallel corner arrays.
//
// Candidates are ranked by descending score (ties keep their original array
// order), optionally truncated to the keepTopK best, then greedily suppressed:
// the best remaining box survives and every lower-scored box whose IoU with it
// exceeds threshold is dropped. Pairs with zero union get overlap 0.
//
// Arguments:
//   - x1, y1, x2, y2: Parallel arrays of box corners.
//   - scores: Parallel array of confidence scores.
//   - threshold: IoU threshold above which boxes are suppressed.
//   - includeBoundaries: Whether edges count as one extra unit of size.
//   - keepTopK: Candidate cap applied before suppression; 0 disables it.
//
// Returns:
//   - Indices of the surviving boxes, highest score first. Empty input yields
//     an empty result.
func NMS(x1, y1, x2, y2, scores []float32, threshold float32, includeBoundaries bool, keepTopK int) []int {
	b := float32(0)
	if includeBoundaries {
		b = 1
	}

	areas := make([]float32, len(scores))
	for i := range scores {
		areas[i] = (x2[i] - x1[i] + b) * (y2[i] - y1[i] + b)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	if keepTopK > 0 && keepTopK < len(order) {
		order = order[:keepTopK]
	}

	keep := make([]int, 0, len(order))
	for len(order) > 0 {
		i := order[0]
		keep = append(keep, i)

		remaining := make([]int, 0, len(order)-1)
		for _, j := range order[1:] {
			w := math32.Max(0, math32.Min(x2[i], x2[j])-math32.Max(x1[i], x1[j])+b)
			h := math32.Max(0, math32.Min(y2[i], y2[j])-math32.Max(y1[i], y1[j])+b)
			intersection := w * h

			union := areas[i] + areas[j] - intersection
			overlap := float32(0)
			if union != 0 {
				overlap = intersection / union
			}

			if overlap <= threshold {
				remaining = append(remaining, j)
			}
		}
		order = remaining
	}

	return keep
}

// Apply runs greedy Non-Maximum Suppression over full detection records.
//
// The input is not modified; survivors are returned in descending score order.
//
// Arguments:
//   - dets: Detections to filter, in any order.
//   - config: Suppression parameters.
//
// Returns:
//   - Filtered slice of detections. If no detections are provided, returns nil.
func Apply(dets []detections.Detection, config *Config) []detections.Detection {
	n := len(dets)
	if n == 0 {
		return nil
	}

	ranked := make([]detections.Detection, n)
	copy(ranked, dets)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if config.KeepTopK > 0 && config.KeepTopK < len(ranked) {
		ranked = ranked[:config.KeepTopK]
	}

	b := float32(0)
	if config.IncludeBoundaries {
		b = 1
	}

	filtered := make([]detections.Detection, 0, len(ranked))
	used := make([]bool, len(ranked))

	for i := range ranked {
		if used[i] {
			continue
		}

		anchor := ranked[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < len(ranked); j++ {
			if used[j] {
				continue
			}
			if config.ClassAware && anchor.Class != ranked[j].Class {
				continue
			}
			if iou(&anchor, &ranked[j], b) > config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}

// iou computes Intersection over Union with the boundary offset applied to
// every width/height term. A zero union yields 0.
func iou(a, o *detections.Detection, b float32) float32 {
	w := math32.Max(0, math32.Min(a.XMax, o.XMax)-math32.Max(a.XMin, o.XMin)+b)
	h := math32.Max(0, math32.Min(a.YMax, o.YMax)-math32.Max(a.YMin, o.YMin)+b)
	intersection := w * h

	areaA := (a.XMax - a.XMin + b) * (a.YMax - a.YMin + b)
	areaO := (o.XMax - o.XMin + b) * (o.YMax - o.YMin + b)
	union := areaA + areaO - intersection
	if union == 0 {
		return 0
	}
	return intersection / union
}
