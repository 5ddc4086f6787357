package geospatial

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// pointTolerance gives point entries a non-zero extent; rtreego rejects and
// never intersects degenerate rectangles.
const pointTolerance = 1e-9

type indexEntry struct {
	pos   int
	point orb.Point
	rect  rtreego.Rect
}

func newIndexEntry(pos int, p orb.Point) *indexEntry {
	return &indexEntry{pos: pos, point: p, rect: rtreego.Point{p.Lon(), p.Lat()}.ToRect(pointTolerance)}
}

func (e *indexEntry) Bounds() rtreego.Rect { return e.rect }

// Index is an R-tree over a fixed slice of points. Search answers with the
// positions of matching points in ascending order, so callers can map results
// back onto the original slice without losing its ordering.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// NewIndex bulk-loads points into a 2D R-tree.
func NewIndex(points []orb.Point) *Index {
	if len(points) == 0 {
		return &Index{}
	}
	objs := make([]rtreego.Spatial, 0, len(points))
	for i, p := range points {
		lng := wrapLng(p.Lon())
		objs = append(objs, newIndexEntry(i, orb.Point{lng, p.Lat()}))
		// a point on the antimeridian is indexed under both spellings
		if alias, ok := antimeridianAlias(lng); ok {
			objs = append(objs, newIndexEntry(i, orb.Point{alias, p.Lat()}))
		}
	}
	return &Index{tree: rtreego.NewTree(2, 25, 50, objs...), size: len(points)}
}

// Size is the number of indexed points.
func (ix *Index) Size() int { return ix.size }

// Search returns the positions of every point inside r, edges included,
// in ascending order. The empty region matches nothing.
func (ix *Index) Search(r Region) []int {
	out := []int{}
	if ix.tree == nil || r.IsEmpty() {
		return out
	}
	for _, b := range r.Bounds() {
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{b.Min.Lon() - 2*pointTolerance, b.Min.Lat() - 2*pointTolerance},
			rtreego.Point{b.Max.Lon() + 2*pointTolerance, b.Max.Lat() + 2*pointTolerance},
		)
		if err != nil {
			continue
		}
		for _, s := range ix.tree.SearchIntersect(rect) {
			e := s.(*indexEntry)
			// candidates come from padded rectangles; the exact test is inclusive
			if b.Contains(e.point) {
				out = append(out, e.pos)
			}
		}
	}
	sort.Ints(out)
	return uniqueSorted(out)
}

func uniqueSorted(xs []int) []int {
	if len(xs) < 2 {
		return xs
	}
	n := 1
	for i := 1; i < len(xs); i++ {
		if xs[i] != xs[n-1] {
			xs[n] = xs[i]
			n++
		}
	}
	return xs[:n]
}
