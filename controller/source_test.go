package controller

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"wheelly/protocol"
	"wheelly/radar"
	"wheelly/simulator"
)

func TestSimSourceMoveAndHaltCommands(t *testing.T) {
	Convey("Given a SimSource over an empty world", t, func() {
		obstacles := radar.NewObstacleMap(10, 10, 0.5)
		world := simulator.NewWorld(obstacles, simulator.DefaultParams(), 1)
		src := NewSimSource(world, 10, 100, 100)

		Convey("an mt command drives the robot forward over several ticks", func() {
			So(src.Send(protocol.EncodeMove(5000, protocol.DirForward)), ShouldBeNil)
			for i := 0; i < 50; i++ {
				src.Tick(int64(i) * 10)
			}
			So(world.Body.X, ShouldBeGreaterThan, 0)
		})

		Convey("an ha command halts wheel speeds on the next tick", func() {
			So(src.Send(protocol.EncodeMove(5000, protocol.DirForward)), ShouldBeNil)
			src.Tick(10)
			So(src.Send(protocol.EncodeHalt()), ShouldBeNil)
			src.Tick(20)
			So(world.Body.LeftSpeed, ShouldEqual, 0)
			So(world.Body.RightSpeed, ShouldEqual, 0)
		})

		Convey("an sc command sets the world's sensor direction", func() {
			So(src.Send(protocol.EncodeScan(30)), ShouldBeNil)
			So(world.SensorDir, ShouldEqual, 30)
		})
	})
}

func TestSimSourceEmitsTelemetryAtCadence(t *testing.T) {
	Convey("Given a SimSource with 100ms motion/proxy intervals ticking at 10ms", t, func() {
		obstacles := radar.NewObstacleMap(10, 10, 0.5)
		world := simulator.NewWorld(obstacles, simulator.DefaultParams(), 1)
		src := NewSimSource(world, 10, 100, 100)

		motionCount, proxyCount := 0, 0
		for i := 1; i <= 20; i++ {
			msgs, errs := src.Tick(int64(i) * 10)
			So(errs, ShouldBeNil)
			for _, m := range msgs {
				if m.Motion != nil {
					motionCount++
				}
				if m.Proxy != nil {
					proxyCount++
				}
			}
		}

		Convey("motion and proxy messages arrive roughly every 10 ticks, not every tick", func() {
			So(motionCount, ShouldBeBetween, 1, 3)
			So(proxyCount, ShouldBeBetween, 1, 3)
		})
	})
}
