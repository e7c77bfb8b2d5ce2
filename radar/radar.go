// Package radar maintains the robot's belief about its surroundings: a fixed
// grid of sectors, each recording the outcome of the most recent echo that
// landed near it, decaying to "unknown" as signals age. The grid/Visit idiom
// here is adapted from the teacher's grid_world State matrix, generalized
// from a discrete kinematic track to a continuous-world occupancy grid.
package radar

import "math"

// GridSize is the default sector side length, in metres.
const GridSize = 0.2

// MaxSignalDistance bounds how far an echo can be trusted.
const MaxSignalDistance = 3.0

// MapSector is one cell of the RadarMap. Timestamp == 0 means unknown;
// Filled records whether the last echo attributed to this sector placed an
// obstacle there.
type MapSector struct {
	CenterX, CenterY float64
	Timestamp        int64
	Filled           bool
}

// Unknown reports whether this sector has never been updated, or has since
// decayed back to unknown.
func (s MapSector) Unknown() bool { return s.Timestamp == 0 }

// SensorSignal is one directional range-finder reading to project into the map.
type SensorSignal struct {
	X, Y      float64 // sensor location
	Dir       float64 // sensor absolute direction, degrees
	Distance  float64 // metres; 0 means no echo
	IsEcho    bool
	Timestamp int64
}

// RadarMap is a fixed 2-D array of MapSectors covering a rectangular world
// centred on the origin.
type RadarMap struct {
	gridSize          float64
	receptiveDistance float64
	receptiveAngle    float64 // radians; 0 means derive per-update from distance
	echoPersistence   int64
	width, height     int // sector counts
	minX, minY        float64
	sectors           []MapSector
}

// NewRadarMap builds a radarWidth x radarHeight sector grid (in metres)
// centred on the origin, with the given gridSize (sector side, metres),
// receptiveDistance (metres) used to derive the angular acceptance cone per
// signal, and echoPersistence (ms) after which a sector decays to unknown.
func NewRadarMap(worldWidth, worldHeight, gridSize, receptiveDistance float64, echoPersistence int64) *RadarMap {
	if gridSize <= 0 {
		gridSize = GridSize
	}
	w := int(math.Ceil(worldWidth / gridSize))
	h := int(math.Ceil(worldHeight / gridSize))
	m := &RadarMap{
		gridSize:          gridSize,
		receptiveDistance: receptiveDistance,
		echoPersistence:   echoPersistence,
		width:             w,
		height:            h,
		minX:              -float64(w) * gridSize / 2,
		minY:              -float64(h) * gridSize / 2,
		sectors:           make([]MapSector, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.sectors[y*w+x] = MapSector{
				CenterX: m.minX + (float64(x)+0.5)*gridSize,
				CenterY: m.minY + (float64(y)+0.5)*gridSize,
			}
		}
	}
	return m
}

// Dims returns the sector grid's (width, height).
func (m *RadarMap) Dims() (int, int) { return m.width, m.height }

// At returns the sector at grid index (x,y), and whether that index is valid.
func (m *RadarMap) At(x, y int) (MapSector, bool) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return MapSector{}, false
	}
	return m.sectors[y*m.width+x], true
}

func (m *RadarMap) indexOf(wx, wy float64) (int, int) {
	x := int(math.Floor((wx - m.minX) / m.gridSize))
	y := int(math.Floor((wy - m.minY) / m.gridSize))
	return x, y
}

// Update projects one sensor signal into the map. Per the invariant in
// spec §3: a sector flips unknown->known only when the signal's relative
// bearing to the sector centre lies within
// asin(receptiveDistance/sectorDistance) of the sector's bearing from the
// sensor, and the signal's range lies in [minDistance, MaxSignalDistance].
// If the sector centre lies inside the receptive sphere itself
// (sectorDistance < receptiveDistance) it is always considered in-direction
// (spec §9 open question, resolved this way).
func (m *RadarMap) Update(sig SensorSignal, minDistance float64) {
	if !sig.IsEcho || sig.Distance < minDistance || sig.Distance > MaxSignalDistance {
		return
	}

	dirRad := sig.Dir * math.Pi / 180

	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			idx := y*m.width + x
			sec := &m.sectors[idx]
			if !sectorInCone(sig.X, sig.Y, dirRad, m.receptiveDistance, sec.CenterX, sec.CenterY) {
				continue
			}

			// Only update sectors near the reported echo range along this ray.
			sectorDistance := math.Hypot(sec.CenterX-sig.X, sec.CenterY-sig.Y)
			if math.Abs(sectorDistance-sig.Distance) > m.receptiveDistance {
				continue
			}

			sec.Timestamp = sig.Timestamp
			sec.Filled = true
		}
	}
}

// sectorInCone implements the invariant in spec §3: a sector flips
// unknown->known only when its bearing from the sensor lies within
// asin(receptive/sectorDistance) of the signal direction. If the sector
// centre lies inside the receptive sphere, it is always considered
// in-direction (spec §9 open question, resolved this way).
func sectorInCone(sensorX, sensorY, dirRad, receptive, secX, secY float64) bool {
	dx := secX - sensorX
	dy := secY - sensorY
	sectorDistance := math.Hypot(dx, dy)
	if sectorDistance < receptive {
		return true
	}
	halfCone := math.Asin(clamp(receptive/sectorDistance, -1, 1))
	bearing := math.Atan2(dy, dx)
	delta := angleDiff(bearing, dirRad)
	return math.Abs(delta) <= halfCone
}

// Clean zeroes the timestamp (and unfills) any sector whose signal is older
// than echoPersistence relative to now. This is the map's only decay path;
// a sector's timestamp never otherwise decreases.
func (m *RadarMap) Clean(now int64) {
	for i := range m.sectors {
		sec := &m.sectors[i]
		if sec.Timestamp != 0 && now-sec.Timestamp > m.echoPersistence {
			sec.Timestamp = 0
			sec.Filled = false
		}
	}
}

// Snapshot returns a cheap immutable copy of the sector grid, suitable for a
// non-writer observer (e.g. an external viewer) to read without contending
// with the controller's writer.
func (m *RadarMap) Snapshot() []MapSector {
	out := make([]MapSector, len(m.sectors))
	copy(out, m.sectors)
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// angleDiff returns the signed difference a-b folded into (-pi, pi].
func angleDiff(a, b float64) float64 {
	d := a - b
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}
