package farm

import (
	"math"
	"math/rand/v2"
)

// Point is a position in percent of the hill area (0..100 on both axes,
// y grows downwards).
type Point struct {
	X, Y float64
}

func (p Point) dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func lerp(a, b Point, t float64) Point {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// Rect is an axis-aligned rectangle, Min inclusive, Max exclusive.
type Rect struct {
	Min, Max Point
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// PlacementConfig drives best-candidate placement on a stratified grid.
type PlacementConfig struct {
	Area       Rect
	Exclusion  Rect
	ExclusionY float64 // exclusion is only tested for candidates with Y < ExclusionY
	GridCols   int
	GridRows   int
	Candidates int
}

// DefaultPlacementConfig keeps chickens on the hill and out of the hen house.
func DefaultPlacementConfig() PlacementConfig {
	return PlacementConfig{
		Area:       Rect{Min: Point{X: 8, Y: 20}, Max: Point{X: 92, Y: 90}},
		Exclusion:  Rect{Min: Point{X: 24, Y: -12}, Max: Point{X: 76, Y: 32}},
		ExclusionY: 32,
		GridCols:   4,
		GridRows:   3,
		Candidates: 8,
	}
}

func (c PlacementConfig) cells() int {
	cols, rows := c.GridCols, c.GridRows
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols * rows
}

// cellRect returns the grid cell assigned to entity index.
func (c PlacementConfig) cellRect(index int) Rect {
	cols := c.GridCols
	if cols < 1 {
		cols = 1
	}
	rows := c.GridRows
	if rows < 1 {
		rows = 1
	}
	cell := index % c.cells()
	col, row := cell%cols, cell/cols
	w := (c.Area.Max.X - c.Area.Min.X) / float64(cols)
	h := (c.Area.Max.Y - c.Area.Min.Y) / float64(rows)
	minX := c.Area.Min.X + float64(col)*w
	minY := c.Area.Min.Y + float64(row)*h
	return Rect{Min: Point{X: minX, Y: minY}, Max: Point{X: minX + w, Y: minY + h}}
}

func (c PlacementConfig) excluded(p Point) bool {
	return p.Y < c.ExclusionY && c.Exclusion.Contains(p)
}

// candidate k for entity index. The seed depends only on (index, k).
func candidate(cell Rect, index, k int) Point {
	rng := rand.New(rand.NewPCG(uint64(index)+1, uint64(k)+1))
	return Point{
		X: cell.Min.X + rng.Float64()*(cell.Max.X-cell.Min.X),
		Y: cell.Min.Y + rng.Float64()*(cell.Max.Y-cell.Min.Y),
	}
}

// TargetAgainst picks the target of entity index given the targets of the
// entities placed before it. Only earlier is consulted, so the result is a
// pure function of index and earlier.
func TargetAgainst(c PlacementConfig, index int, earlier []Point) Point {
	cell := c.cellRect(index)
	best := Point{X: (cell.Min.X + cell.Max.X) / 2, Y: (cell.Min.Y + cell.Max.Y) / 2}
	bestDist := -1.0
	for k := 0; k < c.Candidates; k++ {
		p := candidate(cell, index, k)
		if c.excluded(p) {
			continue
		}
		d := math.Inf(1)
		for _, q := range earlier {
			if dd := p.dist(q); dd < d {
				d = dd
			}
		}
		if d > bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// Layout places entities 0..n-1 in index order.
func Layout(c PlacementConfig, n int) []Point {
	if n < 0 {
		n = 0
	}
	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, TargetAgainst(c, i, out))
	}
	return out
}
