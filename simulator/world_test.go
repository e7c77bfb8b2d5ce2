package simulator

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"wheelly/radar"
)

func TestHaltAndTurn(t *testing.T) {
	Convey("Given a robot at the origin heading 0, desired heading 90, dt=0.5s", t, func() {
		obstacles := radar.NewObstacleMap(10, 10, 0.5)
		params := DefaultParams()
		params.MaxAngularSpeed = 5
		w := NewWorld(obstacles, params, 1)

		w.Step(0.5, 90)

		Convey("Heading increases toward 90 degrees", func() {
			So(w.Body.HeadingDeg, ShouldBeGreaterThan, 0)
			So(w.Body.HeadingDeg, ShouldBeLessThanOrEqualTo, 90)
		})

		Convey("Left and right wheel speeds are equal in magnitude and opposite in sign", func() {
			So(w.Body.LeftSpeed, ShouldAlmostEqual, -w.Body.RightSpeed, 1e-9)
		})

		Convey("Forward velocity stays near zero", func() {
			So(w.Body.LinearVelocity, ShouldAlmostEqual, 0, 0.05)
		})
	})
}

func TestFrontContactHaltsMotion(t *testing.T) {
	Convey("Given an obstacle directly ahead of a moving robot", t, func() {
		obstacles := radar.NewObstacleMap(10, 10, 0.2)
		obstacles.Place(0.2, 0)

		params := DefaultParams()
		params.MaxForwardSpeed = 0.5
		w := NewWorld(obstacles, params, 2)
		w.Body.LinearVelocity = 0.3

		contacts, changed := w.Step(0.1, 0)

		Convey("FrontClear becomes false", func() {
			So(contacts.FrontClear, ShouldBeFalse)
		})

		Convey("The contact state changed this step", func() {
			So(changed, ShouldBeTrue)
		})

		Convey("The body halts", func() {
			So(w.Body.MotionStopped, ShouldBeTrue)
			So(w.Body.LinearVelocity, ShouldEqual, 0)
			So(w.Body.LeftSpeed, ShouldEqual, 0)
			So(w.Body.RightSpeed, ShouldEqual, 0)
		})
	})
}

func TestRearContactClassification(t *testing.T) {
	Convey("An obstacle directly behind the robot clears rear, not front", t, func() {
		obstacles := radar.NewObstacleMap(10, 10, 0.2)
		obstacles.Place(-0.2, 0)

		w := NewWorld(obstacles, DefaultParams(), 3)
		contacts, _ := w.Step(0.1, 0)

		So(contacts.RearClear, ShouldBeFalse)
		So(contacts.FrontClear, ShouldBeTrue)
	})
}

func TestSenseFindsNearestObstacleInCone(t *testing.T) {
	Convey("A range-finder pointed at an obstacle reports its distance", t, func() {
		obstacles := radar.NewObstacleMap(10, 10, 0.5)
		obstacles.Place(1.0, 0)

		params := DefaultParams()
		params.ErrSensor = 0 // deterministic for this assertion
		w := NewWorld(obstacles, params, 4)

		dist, isEcho := w.Sense()
		So(isEcho, ShouldBeTrue)
		So(dist, ShouldBeBetween, 0.5, 1.0)
	})

	Convey("No obstacle in range yields no echo", t, func() {
		obstacles := radar.NewObstacleMap(10, 10, 0.5)
		w := NewWorld(obstacles, DefaultParams(), 5)
		_, isEcho := w.Sense()
		So(isEcho, ShouldBeFalse)
	})
}
