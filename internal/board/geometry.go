// geometry.go
//
// Applicant pipeline and activity service for training-provider application forms
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of enrol-pipeline.
// enrol-pipeline is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// enrol-pipeline is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with enrol-pipeline.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package board

import "math"

// Rect is an axis-aligned rectangle in board coordinates
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) corners() [4][2]float64 {
	return [4][2]float64{
		{r.X, r.Y},
		{r.X + r.Width, r.Y},
		{r.X, r.Y + r.Height},
		{r.X + r.Width, r.Y + r.Height},
	}
}

// DropZone is a stage column's droppable area
type DropZone struct {
	StageID string `json:"stage_id"`
	Rect    Rect   `json:"rect"`
}

// ClosestCorners picks the zone whose corners are nearest, summed pairwise,
// to the corners of the dragged rectangle. Ties go to the earlier zone.
func ClosestCorners(active Rect, zones []DropZone) (string, bool) {
	if len(zones) == 0 {
		return "", false
	}

	a := active.corners()
	best, bestDist := "", math.Inf(1)
	for _, z := range zones {
		zc := z.Rect.corners()
		var d float64
		for i := range a {
			d += math.Hypot(a[i][0]-zc[i][0], a[i][1]-zc[i][1])
		}
		if d < bestDist {
			best, bestDist = z.StageID, d
		}
	}
	return best, true
}
