package radar

// Obstacle is a static point with an axis-aligned square footprint of side
// ObstacleSize, centred at (X, Y).
type Obstacle struct {
	X, Y float64
}

// ObstacleMap is the ground-truth world: a fixed grid of square cells over a
// rectangular world, each either empty or holding one static Obstacle. It is
// built once (e.g. from a YAML-configured layout) and never mutated at
// runtime; the simulator and the radar's belief map both consult it, the
// simulator for ground truth and the controller only indirectly via sensor
// echoes.
type ObstacleMap struct {
	cellSize      float64
	width, height int
	minX, minY    float64
	cells         []bool
	obstacles     []Obstacle
}

// NewObstacleMap builds an empty obstacle grid of the given world extents.
func NewObstacleMap(worldWidth, worldHeight, cellSize float64) *ObstacleMap {
	if cellSize <= 0 {
		cellSize = GridSize
	}
	w := int(worldWidth/cellSize) + 1
	h := int(worldHeight/cellSize) + 1
	return &ObstacleMap{
		cellSize: cellSize,
		width:    w,
		height:   h,
		minX:     -float64(w) * cellSize / 2,
		minY:     -float64(h) * cellSize / 2,
		cells:    make([]bool, w*h),
	}
}

// Place marks an obstacle at world coordinates (x,y), snapping to the
// containing cell's centre.
func (m *ObstacleMap) Place(x, y float64) {
	cx, cy := m.cellIndex(x, y)
	if cx < 0 || cy < 0 || cx >= m.width || cy >= m.height {
		return
	}
	if m.cells[cy*m.width+cx] {
		return
	}
	m.cells[cy*m.width+cx] = true
	centerX := m.minX + (float64(cx)+0.5)*m.cellSize
	centerY := m.minY + (float64(cy)+0.5)*m.cellSize
	m.obstacles = append(m.obstacles, Obstacle{X: centerX, Y: centerY})
}

func (m *ObstacleMap) cellIndex(x, y float64) (int, int) {
	return intFloorDiv(x-m.minX, m.cellSize), intFloorDiv(y-m.minY, m.cellSize)
}

func intFloorDiv(v, d float64) int {
	q := v / d
	i := int(q)
	if q < 0 && float64(i) != q {
		i--
	}
	return i
}

// Obstacles returns every placed obstacle. The caller must not mutate the
// returned slice.
func (m *ObstacleMap) Obstacles() []Obstacle {
	return m.obstacles
}

// CellSize returns the side length of one square obstacle footprint.
func (m *ObstacleMap) CellSize() float64 {
	return m.cellSize
}
