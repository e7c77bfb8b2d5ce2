package radar

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSectorInCone(t *testing.T) {
	Convey("Given a sensor at the origin, direction 0, receptive distance 0.1", t, func() {
		Convey("The sector at (1.0, 0.0) is in the cone (directly ahead)", func() {
			So(sectorInCone(0, 0, 0, 0.1, 1.0, 0.0), ShouldBeTrue)
		})
		Convey("The sector at (1.0, 0.3) is outside the cone for that distance", func() {
			So(sectorInCone(0, 0, 0, 0.1, 1.0, 0.3), ShouldBeFalse)
		})
		Convey("A sector centre inside the receptive sphere is always in-direction", func() {
			So(sectorInCone(0, 0, 0, 0.1, 0.05, 0.05), ShouldBeTrue)
		})
	})
}

// newTestMap builds a grid with a cell centred on (0.4, 0.0) (up to
// floating-point rounding in the x coordinate), so tests can assert on a
// known, unambiguous sector index.
func newTestMap(persistence int64) *RadarMap {
	return NewRadarMap(3.0, 1.0, 0.2, 0.1, persistence)
}

func TestRadarUpdate(t *testing.T) {
	Convey("Given a radar map and a sensor at the origin facing 0 degrees", t, func() {
		m := newTestMap(60000)

		sig := SensorSignal{X: 0, Y: 0, Dir: 0, Distance: 0.4, IsEcho: true, Timestamp: 1000}
		m.Update(sig, 0.05)

		Convey("The sector at the echo location becomes filled with the signal's timestamp", func() {
			x, y := m.indexOf(0.4, 0.0)
			sec, ok := m.At(x, y)
			So(ok, ShouldBeTrue)
			So(sec.CenterX, ShouldAlmostEqual, 0.4, 1e-12)
			So(sec.CenterY, ShouldEqual, 0.0)
			So(sec.Filled, ShouldBeTrue)
			So(sec.Timestamp, ShouldEqual, 1000)
		})
	})
}

func TestRadarClean(t *testing.T) {
	Convey("Given a radar map with one filled sector", t, func() {
		m := newTestMap(1000)
		sig := SensorSignal{X: 0, Y: 0, Dir: 0, Distance: 0.4, IsEcho: true, Timestamp: 1000}
		m.Update(sig, 0.05)
		x, y := m.indexOf(0.4, 0.0)

		Convey("Clean() before the persistence window leaves it filled", func() {
			m.Clean(1500)
			sec, _ := m.At(x, y)
			So(sec.Filled, ShouldBeTrue)
		})

		Convey("Clean() past the persistence window zeroes the timestamp", func() {
			m.Clean(2200)
			sec, _ := m.At(x, y)
			So(sec.Unknown(), ShouldBeTrue)
			So(sec.Filled, ShouldBeFalse)
		})
	})
}

func TestRadarMonotonicity(t *testing.T) {
	Convey("A sector's timestamp never decreases except via Clean()", t, func() {
		m := newTestMap(60000)
		sig1 := SensorSignal{X: 0, Y: 0, Dir: 0, Distance: 0.4, IsEcho: true, Timestamp: 1000}
		sig2 := SensorSignal{X: 0, Y: 0, Dir: 0, Distance: 0.4, IsEcho: true, Timestamp: 2000}
		m.Update(sig1, 0.05)
		m.Update(sig2, 0.05)

		x, y := m.indexOf(0.4, 0.0)
		sec, _ := m.At(x, y)
		So(sec.Timestamp, ShouldEqual, 2000)
	})
}

func TestObstacleMapPlace(t *testing.T) {
	Convey("Placing an obstacle records it at its cell centre", t, func() {
		m := NewObstacleMap(4, 4, 0.5)
		m.Place(1.1, 1.1)
		So(len(m.Obstacles()), ShouldEqual, 1)

		Convey("Placing again in the same cell does not duplicate", func() {
			m.Place(1.2, 1.2)
			So(len(m.Obstacles()), ShouldEqual, 1)
		})
	})
}
