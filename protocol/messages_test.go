package protocol

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDecodeProxy(t *testing.T) {
	Convey("When decoding a well-formed px line", t, func() {
		now := time.Now()
		msg, err := Decode("px 100 30 1500 0.5 0.25 45", now)

		Convey("It parses all fields without error", func() {
			So(err, ShouldBeNil)
			So(msg.Proxy, ShouldNotBeNil)
			So(msg.Proxy.RemoteTime, ShouldEqual, 100)
			So(msg.Proxy.SensorDir, ShouldEqual, 30)
			So(msg.Proxy.EchoDelay, ShouldEqual, 1500)
			So(msg.Proxy.XPulses, ShouldEqual, 0.5)
			So(msg.Proxy.YPulses, ShouldEqual, 0.25)
			So(msg.Proxy.EchoYaw, ShouldEqual, 45)
		})
	})

	Convey("When a px line is missing a field", t, func() {
		_, err := Decode("px 100 30 1500 0.5 0.25", time.Now())

		Convey("It raises a FormatError", func() {
			So(err, ShouldNotBeNil)
			var fe *FormatError
			So(errorsAs(err, &fe), ShouldBeTrue)
		})
	})
}

func TestDecodeUnknownTag(t *testing.T) {
	Convey("When the tag is unrecognized", t, func() {
		_, err := Decode("zz 1 2 3", time.Now())

		Convey("It raises a FormatError and does not panic", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestHeadingNormalization(t *testing.T) {
	Convey("Given headings outside (-180,180]", t, func() {
		Convey("181 normalizes to -179", func() {
			So(normalizeHeading(181), ShouldEqual, -179)
		})
		Convey("-180 normalizes to 180", func() {
			So(normalizeHeading(-180), ShouldEqual, 180)
		})
		Convey("180 stays 180", func() {
			So(normalizeHeading(180), ShouldEqual, 180)
		})
	})
}

func TestSensorDirClip(t *testing.T) {
	Convey("Given sensor directions outside [-90,90]", t, func() {
		So(clipSensorDir(120), ShouldEqual, 90)
		So(clipSensorDir(-120), ShouldEqual, -90)
		So(clipSensorDir(45), ShouldEqual, 45)
	})
}

// errorsAs is a tiny local wrapper so the test doesn't need to import errors
// alongside the dot-imported convey package name collisions.
func errorsAs(err error, target **FormatError) bool {
	fe, ok := err.(*FormatError)
	if ok {
		*target = fe
	}
	return ok
}
