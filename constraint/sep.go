/*
Copyright © 2024 the colocate authors.
This file is part of colocate.

colocate is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

colocate is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with colocate.  If not, see <http://www.gnu.org/licenses/>.
*/

package constraint

import (
	"fmt"

	"github.com/spatialmodel/colocate/data"
	"github.com/spatialmodel/colocate/index"
)

// SepConstraint selects the points of an ungridded source that lie within
// a Separation of a sample point.
type SepConstraint struct {
	Sep Separation

	source *data.PointView
	preds  []Predicate

	// valid lists the source points that may be selected, in ascending
	// order. tree is only built if there is a horizontal bound.
	valid []int
	tree  *index.HaversineTree
}

// NewSepConstraint prepares sep for the source points for which valid is
// true, or every point if valid is nil. The sample and the source must
// carry every axis sep bounds.
func NewSepConstraint(sep Separation, sample, source *data.PointView, valid []bool, leafSize int) (*SepConstraint, error) {
	if valid != nil && len(valid) != source.Len() {
		return nil, fmt.Errorf("constraint: %d validity flags for %d source points", len(valid), source.Len())
	}
	if err := sep.Check(sample, source); err != nil {
		return nil, err
	}
	c := &SepConstraint{Sep: sep, source: source, preds: sep.Predicates()}
	for j := 0; j < source.Len(); j++ {
		if valid == nil || valid[j] {
			c.valid = append(c.valid, j)
		}
	}
	if sep.H > 0 {
		c.tree = index.NewHaversineTree(source.Column(data.Lat), source.Column(data.Lon), valid, leafSize)
	}
	return c, nil
}

// Candidates returns, in ascending order, the source points within the
// separation of sample point i. Without a horizontal bound every valid
// source point is tested.
func (c *SepConstraint) Candidates(sample *data.PointView, i int) []int {
	var pool []int
	if c.tree != nil {
		pool = c.tree.QueryBall(sample.Coord(data.Lat, i), sample.Coord(data.Lon, i), c.Sep.H)
	} else {
		pool = c.valid
	}
	o := make([]int, 0, len(pool))
	for _, j := range pool {
		if c.keep(sample, i, j) {
			o = append(o, j)
		}
	}
	return o
}

func (c *SepConstraint) keep(sample *data.PointView, i, j int) bool {
	for _, p := range c.preds {
		if !p(sample, i, c.source, j) {
			return false
		}
	}
	return true
}
