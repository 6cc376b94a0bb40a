package pathing

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/zeusync/motion/internal/core/geometry"
)

// Grid is an occupancy grid laid over the field. Cell (0, 0) has its lower
// left corner at Origin.
type Grid struct {
	Origin   geometry.Point
	CellSize float64
	Width    int
	Height   int
	blocked  []bool
}

func NewGrid(origin geometry.Point, cellSize float64, width, height int) (*Grid, error) {
	if cellSize <= 0 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: cell size %v, %dx%d cells", ErrInvalidGrid, cellSize, width, height)
	}
	return &Grid{
		Origin:   origin,
		CellSize: cellSize,
		Width:    width,
		Height:   height,
		blocked:  make([]bool, width*height),
	}, nil
}

// Cell returns the cell containing p; ok is false outside the grid.
func (g *Grid) Cell(p geometry.Point) (col, row int, ok bool) {
	col = int(math.Floor((p.X - g.Origin.X) / g.CellSize))
	row = int(math.Floor((p.Y - g.Origin.Y) / g.CellSize))
	return col, row, g.inside(col, row)
}

// Center returns the center of a cell.
func (g *Grid) Center(col, row int) geometry.Point {
	return geometry.Point{
		X: g.Origin.X + (float64(col)+0.5)*g.CellSize,
		Y: g.Origin.Y + (float64(row)+0.5)*g.CellSize,
	}
}

func (g *Grid) Block(col, row int) {
	if g.inside(col, row) {
		g.blocked[row*g.Width+col] = true
	}
}

// BlockRect marks every cell overlapping b as blocked.
func (g *Grid) BlockRect(b geometry.Bounds) {
	c0, r0, _ := g.Cell(b.Min)
	c1, r1, _ := g.Cell(b.Max)
	for row := max(r0, 0); row <= min(r1, g.Height-1); row++ {
		for col := max(c0, 0); col <= min(c1, g.Width-1); col++ {
			g.Block(col, row)
		}
	}
}

func (g *Grid) Blocked(col, row int) bool {
	return !g.inside(col, row) || g.blocked[row*g.Width+col]
}

func (g *Grid) inside(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.Width && row < g.Height
}

func (g *Grid) id(col, row int) int64 { return int64(row*g.Width + col) }

func (g *Grid) cellOf(id int64) (col, row int) {
	return int(id) % g.Width, int(id) / g.Width
}

// GridSearch runs A* over the free cells of a grid with 8-connectivity.
// Diagonal moves may not cut blocked corners. The graph is built once from
// the grid as it is when NewGridSearch is called.
type GridSearch struct {
	grid  *Grid
	graph *simple.WeightedUndirectedGraph
}

func NewGridSearch(grid *Grid) *GridSearch {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			if grid.Blocked(col, row) {
				continue
			}
			if g.Node(grid.id(col, row)) == nil {
				g.AddNode(simple.Node(grid.id(col, row)))
			}
			// Link forward neighbours only; the graph is undirected.
			for _, d := range [][2]int{{1, 0}, {0, 1}, {1, 1}, {-1, 1}} {
				nc, nr := col+d[0], row+d[1]
				if grid.Blocked(nc, nr) {
					continue
				}
				if d[0] != 0 && d[1] != 0 && (grid.Blocked(col+d[0], row) || grid.Blocked(col, row+d[1])) {
					continue
				}
				w := math.Hypot(float64(d[0]), float64(d[1])) * grid.CellSize
				g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(grid.id(col, row)), simple.Node(grid.id(nc, nr)), w))
			}
		}
	}
	return &GridSearch{grid: grid, graph: g}
}

func (s *GridSearch) Name() string { return "grid" }

func (s *GridSearch) FindPath(ctx context.Context, start, end geometry.Point) (geometry.Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sc, sr, ok := s.grid.Cell(start)
	if !ok || s.grid.Blocked(sc, sr) {
		return geometry.Path{}, nil
	}
	ec, er, ok := s.grid.Cell(end)
	if !ok || s.grid.Blocked(ec, er) {
		return geometry.Path{}, nil
	}
	if sc == ec && sr == er {
		return geometry.Path{start, end}.Dedup(), nil
	}

	from, to := s.graph.Node(s.grid.id(sc, sr)), s.graph.Node(s.grid.id(ec, er))
	shortest, _ := path.AStar(from, to, s.graph, s.heuristic)
	nodes, weight := shortest.To(to.ID())
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return geometry.Path{}, nil
	}

	cells := make([][2]int, len(nodes))
	for i, n := range nodes {
		c, r := s.grid.cellOf(n.ID())
		cells[i] = [2]int{c, r}
	}

	out := geometry.Path{start}
	for i := 1; i < len(cells)-1; i++ {
		// Keep only cells where the direction of travel changes.
		in := [2]int{cells[i][0] - cells[i-1][0], cells[i][1] - cells[i-1][1]}
		next := [2]int{cells[i+1][0] - cells[i][0], cells[i+1][1] - cells[i][1]}
		if in != next {
			out = append(out, s.grid.Center(cells[i][0], cells[i][1]))
		}
	}
	out = append(out, end)
	return out.Dedup(), nil
}

func (s *GridSearch) heuristic(x, y graph.Node) float64 {
	xc, xr := s.grid.cellOf(x.ID())
	yc, yr := s.grid.cellOf(y.ID())
	return math.Hypot(float64(xc-yc), float64(xr-yr)) * s.grid.CellSize
}
