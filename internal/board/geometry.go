package board

// Geometry holds the precomputed adjacency of a width x height board.
// Positions are flat indices in row-major order: pos = y*Width + x.
// A Geometry is immutable once built.
type Geometry struct {
	Width  int
	Height int

	neighbors [][]int
}

// NewGeometry precomputes the in-bounds orthogonal neighbors of every position.
// Neighbor order is left, right, up, down.
func NewGeometry(width, height int) *Geometry {
	g := &Geometry{
		Width:     width,
		Height:    height,
		neighbors: make([][]int, width*height),
	}

	offsets := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	for pos := range g.neighbors {
		c := g.ToXY(pos)
		ns := make([]int, 0, 4)
		for _, d := range offsets {
			n := At(c.X+d[0], c.Y+d[1])
			if g.InBounds(n) {
				ns = append(ns, g.ToPos(n))
			}
		}
		g.neighbors[pos] = ns
	}

	return g
}

// Size returns the number of positions on the board.
func (g *Geometry) Size() int {
	return g.Width * g.Height
}

// InBounds returns true if the coordinate lies on the board.
func (g *Geometry) InBounds(c XY) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// ValidPos returns true if pos is a valid flat index.
func (g *Geometry) ValidPos(pos int) bool {
	return pos >= 0 && pos < g.Size()
}

// ToPos converts a coordinate to a flat index. The result is only
// meaningful for in-bounds coordinates.
func (g *Geometry) ToPos(c XY) int {
	return c.Y*g.Width + c.X
}

// ToXY converts a flat index back to a coordinate.
func (g *Geometry) ToXY(pos int) XY {
	return XY{X: pos % g.Width, Y: pos / g.Width}
}

// Neighbors returns the in-bounds neighbors of pos.
// The returned slice is shared and must not be modified.
func (g *Geometry) Neighbors(pos int) []int {
	return g.neighbors[pos]
}

// Capacity returns the mass at which the cell at pos explodes:
// 2 for corners, 3 for edges, 4 inside.
func (g *Geometry) Capacity(pos int) int {
	return len(g.neighbors[pos])
}
