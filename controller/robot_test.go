package controller

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildSourceSimulatedPopulatesObstacles(t *testing.T) {
	Convey("Given a simulated RobotSpec and an EnvSpec with two obstacles", t, func() {
		robotSpec := RobotSpec{Mode: "simulated", MaxForwardSpeed: 0.3, MaxAngularSpeed: 90, Seed: 42}
		envSpec := EnvSpec{
			WorldWidth: 10, WorldHeight: 10, GridSize: 0.5, ReceptiveDistance: 0.1,
			EchoPersistenceMs: 5000, MotionIntervalMs: 100, ProxyIntervalMs: 100,
			Obstacles: [][2]float64{{1, 0}, {2, 2}},
		}

		src, radarMap, err := BuildSource(robotSpec, envSpec)

		Convey("a SimSource and RadarMap are built with no error", func() {
			So(err, ShouldBeNil)
			So(src, ShouldNotBeNil)
			So(radarMap, ShouldNotBeNil)
		})
	})

	Convey("Given an unknown robot mode", t, func() {
		_, _, err := BuildSource(RobotSpec{Mode: "bogus"}, EnvSpec{WorldWidth: 1, WorldHeight: 1, GridSize: 0.5})
		So(err, ShouldNotBeNil)
	})
}
