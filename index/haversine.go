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

package index

import (
	"container/heap"
	"math"
	"slices"
	"sort"
)

// EarthRadius is the radius of the sphere distances are measured on [m].
const EarthRadius = 6378000.

// DefaultLeafSize is the number of points below which a subtree is kept
// as a leaf.
const DefaultLeafSize = 10

const degToRad = math.Pi / 180

// hav returns the haversine of angle x [radians].
func hav(x float64) float64 {
	s := math.Sin(x / 2)
	return s * s
}

// havToDistance converts a haversine of a central angle into arc length.
func havToDistance(h float64) float64 {
	if h <= 0 {
		return 0
	}
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Haversine returns the great-circle distance [m] between two points
// given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	p1, p2 := lat1*degToRad, lat2*degToRad
	h := hav(p2-p1) + math.Cos(p1)*math.Cos(p2)*hav((lon2-lon1)*degToRad)
	return havToDistance(h)
}

// HaversineTree is a kd-tree over points given by latitude and longitude
// in degrees. Splits are axis-aligned in degree space; distances are
// great-circle arc lengths.
type HaversineTree struct {
	lat, lon []float64

	// idx holds the indices of the points in the tree, permuted so that
	// every node covers a contiguous run.
	idx  []int
	root *kdNode
}

type kdNode struct {
	start, end     int
	left, right    *kdNode
	minLat, maxLat float64
	minLon, maxLon float64
}

// NewHaversineTree builds a tree over the points (lat[i], lon[i]). Points
// for which valid is false are left out; a nil valid includes every
// point. If leafSize is less than one, DefaultLeafSize is used.
func NewHaversineTree(lat, lon []float64, valid []bool, leafSize int) *HaversineTree {
	if len(lat) != len(lon) {
		panic("index: latitude and longitude have different lengths")
	}
	if leafSize < 1 {
		leafSize = DefaultLeafSize
	}
	t := &HaversineTree{lat: lat, lon: lon}
	for i := range lat {
		if (valid == nil || valid[i]) && !math.IsNaN(lat[i]) && !math.IsNaN(lon[i]) {
			t.idx = append(t.idx, i)
		}
	}
	if len(t.idx) > 0 {
		t.root = t.build(0, len(t.idx), leafSize)
	}
	return t
}

// Len returns the number of points in the tree.
func (t *HaversineTree) Len() int { return len(t.idx) }

func (t *HaversineTree) build(start, end, leafSize int) *kdNode {
	n := &kdNode{start: start, end: end,
		minLat: math.Inf(1), maxLat: math.Inf(-1), minLon: math.Inf(1), maxLon: math.Inf(-1)}
	for _, i := range t.idx[start:end] {
		n.minLat, n.maxLat = math.Min(n.minLat, t.lat[i]), math.Max(n.maxLat, t.lat[i])
		n.minLon, n.maxLon = math.Min(n.minLon, t.lon[i]), math.Max(n.maxLon, t.lon[i])
	}
	if end-start <= leafSize {
		return n
	}

	// Split along the axis with the larger spread.
	coord := t.lat
	if n.maxLon-n.minLon > n.maxLat-n.minLat {
		coord = t.lon
	}
	slices.SortFunc(t.idx[start:end], func(a, b int) int {
		if coord[a] < coord[b] {
			return -1
		} else if coord[a] > coord[b] {
			return 1
		}
		return a - b
	})
	median := (start + end) / 2
	n.left = t.build(start, median, leafSize)
	n.right = t.build(median, end, leafSize)
	return n
}

// lonGap returns the smallest angular separation [degrees] between
// longitude lon and the interval [min, max], going either way around the
// globe.
func lonGap(lon, min, max float64) float64 {
	if max-min >= 360 {
		return 0
	}
	east := math.Mod(min-lon, 360)
	if east < 0 {
		east += 360
	}
	if east == 0 || east+(max-min) >= 360 {
		return 0
	}
	west := math.Mod(lon-max, 360)
	if west < 0 {
		west += 360
	}
	return math.Min(180, math.Min(east, west))
}

// lowerBound returns a distance [m] no greater than the distance from the
// query point to any point in the box of n.
func (n *kdNode) lowerBound(lat, lon, cosLat float64) float64 {
	var dLat float64
	if lat < n.minLat {
		dLat = n.minLat - lat
	} else if lat > n.maxLat {
		dLat = lat - n.maxLat
	}
	dLon := lonGap(lon, n.minLon, n.maxLon)
	cosBox := math.Min(math.Cos(n.minLat*degToRad), math.Cos(n.maxLat*degToRad))
	h := hav(dLat*degToRad) + math.Max(0, cosLat*cosBox)*hav(dLon*degToRad)
	return havToDistance(h)
}

// neighbour is a candidate result, ordered by distance then index.
type neighbour struct {
	i    int
	dist float64
}

func (a neighbour) before(b neighbour) bool {
	return a.dist < b.dist || a.dist == b.dist && a.i < b.i
}

// farthestFirst is a max-heap of the best neighbours found so far.
type farthestFirst []neighbour

func (h farthestFirst) Len() int            { return len(h) }
func (h farthestFirst) Less(i, j int) bool  { return h[j].before(h[i]) }
func (h farthestFirst) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *farthestFirst) Push(x interface{}) { *h = append(*h, x.(neighbour)) }
func (h *farthestFirst) Pop() interface{} {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

// Query returns the indices of the k points nearest to (lat, lon) and
// their distances [m], nearest first. Equidistant points are returned in
// index order.
func (t *HaversineTree) Query(lat, lon float64, k int) ([]int, []float64) {
	if t.root == nil || k < 1 {
		return nil, nil
	}
	h := make(farthestFirst, 0, k+1)
	cosLat := math.Cos(lat * degToRad)
	var search func(n *kdNode)
	search = func(n *kdNode) {
		if len(h) == k && n.lowerBound(lat, lon, cosLat) > h[0].dist {
			return
		}
		if n.left == nil {
			for _, i := range t.idx[n.start:n.end] {
				c := neighbour{i: i, dist: Haversine(lat, lon, t.lat[i], t.lon[i])}
				if len(h) < k {
					heap.Push(&h, c)
				} else if c.before(h[0]) {
					h[0] = c
					heap.Fix(&h, 0)
				}
			}
			return
		}
		first, second := n.left, n.right
		if second.lowerBound(lat, lon, cosLat) < first.lowerBound(lat, lon, cosLat) {
			first, second = second, first
		}
		search(first)
		search(second)
	}
	search(t.root)

	res := []neighbour(h)
	sort.Slice(res, func(i, j int) bool { return res[i].before(res[j]) })
	idx := make([]int, len(res))
	dist := make([]float64, len(res))
	for j, r := range res {
		idx[j], dist[j] = r.i, r.dist
	}
	return idx, dist
}

// QueryBall returns, in ascending order, the indices of the points whose
// distance from (lat, lon) is at most r [m].
func (t *HaversineTree) QueryBall(lat, lon, r float64) []int {
	if t.root == nil {
		return nil
	}
	var out []int
	cosLat := math.Cos(lat * degToRad)
	var search func(n *kdNode)
	search = func(n *kdNode) {
		if n.lowerBound(lat, lon, cosLat) > r {
			return
		}
		if n.left == nil {
			for _, i := range t.idx[n.start:n.end] {
				if Haversine(lat, lon, t.lat[i], t.lon[i]) <= r {
					out = append(out, i)
				}
			}
			return
		}
		search(n.left)
		search(n.right)
	}
	search(t.root)
	sort.Ints(out)
	return out
}
