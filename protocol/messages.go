// Package protocol implements the line-oriented ASCII wire protocol spoken
// between the desktop controller and the robot firmware (real or simulated).
// Every robot-originated line begins with a two-character tag followed by a
// fixed count of whitespace-separated fields; a tag with the wrong field
// count is reported as a FormatError and dropped, never treated as fatal.
package protocol

import (
	"strconv"
	"strings"
	"time"
)

// MotionMessage is decoded from an "st" line: the robot's composite
// motion+proxy snapshot. LocalTime is stamped by the receiver on arrival;
// SimulationTime is filled in later by a ClockConverter.
type MotionMessage struct {
	LocalTime      time.Time
	RemoteTime     int64
	SimulationTime int64

	X, Y          float64
	Heading       int
	LeftSpeed     float64
	RightSpeed    float64
	MotionStopped bool
	SensorDir     int
	EchoDistance  float64
}

// ProxyMessage is decoded from a "px" line: a standalone range-finder echo.
type ProxyMessage struct {
	LocalTime      time.Time
	RemoteTime     int64
	SimulationTime int64

	SensorDir  int
	EchoDelay  float64
	XPulses    float64
	YPulses    float64
	EchoYaw    float64
}

// ContactsMessage is decoded from a "ct" line.
type ContactsMessage struct {
	LocalTime      time.Time
	RemoteTime     int64
	SimulationTime int64

	FrontClear bool
	RearClear  bool
}

// SupplyMessage is decoded from an "sv" line; supply voltage is reported but
// not otherwise modeled by the controller.
type SupplyMessage struct {
	LocalTime  time.Time
	RemoteTime int64
	Voltage    float64
}

// ClockReply is decoded from a "ck" line sent in response to our own "ck"
// command; it carries the two clock readings a ClockConverter fits against.
type ClockReply struct {
	LocalTime   time.Time
	OurLocalMs  int64
	RemoteMs    int64
}

// Message is the decoded union of everything a robot line can produce.
// Exactly one of the embedded pointers is non-nil.
type Message struct {
	Motion   *MotionMessage
	Proxy    *ProxyMessage
	Contacts *ContactsMessage
	Supply   *SupplyMessage
	Clock    *ClockReply
}

// Decode parses one received line, tagging LocalTime with now. A line with
// an unrecognized tag or a field-count/parse mismatch returns a *FormatError
// and a zero Message; the caller should log and continue.
func Decode(line string, now time.Time) (Message, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Message{}, newFormatError("", line, errEmptyLine)
	}

	tag := fields[0]
	args := fields[1:]

	switch tag {
	case "st":
		m, err := decodeMotion(args, now)
		if err != nil {
			return Message{}, newFormatError(tag, line, err)
		}
		return Message{Motion: m}, nil
	case "px":
		m, err := decodeProxy(args, now)
		if err != nil {
			return Message{}, newFormatError(tag, line, err)
		}
		return Message{Proxy: m}, nil
	case "ct":
		m, err := decodeContacts(args, now)
		if err != nil {
			return Message{}, newFormatError(tag, line, err)
		}
		return Message{Contacts: m}, nil
	case "sv":
		m, err := decodeSupply(args, now)
		if err != nil {
			return Message{}, newFormatError(tag, line, err)
		}
		return Message{Supply: m}, nil
	case "ck":
		m, err := decodeClockReply(args, now)
		if err != nil {
			return Message{}, newFormatError(tag, line, err)
		}
		return Message{Clock: m}, nil
	default:
		return Message{}, newFormatError(tag, line, errUnknownTag)
	}
}

const (
	motionFieldCount   = 9
	proxyFieldCount    = 6
	contactsFieldCount = 3
	supplyFieldCount   = 2
	clockFieldCount    = 2
)

func decodeMotion(args []string, now time.Time) (*MotionMessage, error) {
	if len(args) != motionFieldCount {
		return nil, errFieldCount(motionFieldCount, len(args))
	}
	remoteTime, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, err
	}
	x, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, err
	}
	y, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return nil, err
	}
	heading, err := strconv.Atoi(args[3])
	if err != nil {
		return nil, err
	}
	left, err := strconv.ParseFloat(args[4], 64)
	if err != nil {
		return nil, err
	}
	right, err := strconv.ParseFloat(args[5], 64)
	if err != nil {
		return nil, err
	}
	stopped, err := strconv.Atoi(args[6])
	if err != nil {
		return nil, err
	}
	sensorDir, err := strconv.Atoi(args[7])
	if err != nil {
		return nil, err
	}
	echo, err := strconv.ParseFloat(args[8], 64)
	if err != nil {
		return nil, err
	}
	return &MotionMessage{
		LocalTime:     now,
		RemoteTime:    remoteTime,
		X:             x,
		Y:             y,
		Heading:       normalizeHeading(heading),
		LeftSpeed:     left,
		RightSpeed:    right,
		MotionStopped: stopped != 0,
		SensorDir:     clipSensorDir(sensorDir),
		EchoDistance:  echo,
	}, nil
}

func decodeProxy(args []string, now time.Time) (*ProxyMessage, error) {
	if len(args) != proxyFieldCount {
		return nil, errFieldCount(proxyFieldCount, len(args))
	}
	remoteTime, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, err
	}
	sensorDir, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, err
	}
	echoDelay, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return nil, err
	}
	xPulses, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return nil, err
	}
	yPulses, err := strconv.ParseFloat(args[4], 64)
	if err != nil {
		return nil, err
	}
	echoYaw, err := strconv.ParseFloat(args[5], 64)
	if err != nil {
		return nil, err
	}
	return &ProxyMessage{
		LocalTime:  now,
		RemoteTime: remoteTime,
		SensorDir:  clipSensorDir(sensorDir),
		EchoDelay:  echoDelay,
		XPulses:    xPulses,
		YPulses:    yPulses,
		EchoYaw:    echoYaw,
	}, nil
}

func decodeContacts(args []string, now time.Time) (*ContactsMessage, error) {
	if len(args) != contactsFieldCount {
		return nil, errFieldCount(contactsFieldCount, len(args))
	}
	remoteTime, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, err
	}
	front, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, err
	}
	rear, err := strconv.Atoi(args[2])
	if err != nil {
		return nil, err
	}
	return &ContactsMessage{
		LocalTime:  now,
		RemoteTime: remoteTime,
		FrontClear: front != 0,
		RearClear:  rear != 0,
	}, nil
}

func decodeSupply(args []string, now time.Time) (*SupplyMessage, error) {
	if len(args) != supplyFieldCount {
		return nil, errFieldCount(supplyFieldCount, len(args))
	}
	remoteTime, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, err
	}
	voltage, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, err
	}
	return &SupplyMessage{LocalTime: now, RemoteTime: remoteTime, Voltage: voltage}, nil
}

func decodeClockReply(args []string, now time.Time) (*ClockReply, error) {
	if len(args) != clockFieldCount {
		return nil, errFieldCount(clockFieldCount, len(args))
	}
	ourLocalMs, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, err
	}
	remoteMs, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return nil, err
	}
	return &ClockReply{LocalTime: now, OurLocalMs: ourLocalMs, RemoteMs: remoteMs}, nil
}

// normalizeHeading folds an integer degree value into (-180, 180], per the
// RobotStatus invariant.
func normalizeHeading(deg int) int {
	deg = deg % 360
	if deg <= -180 {
		deg += 360
	}
	if deg > 180 {
		deg -= 360
	}
	return deg
}

// clipSensorDir clips a sensor direction into [-90, 90].
func clipSensorDir(deg int) int {
	if deg < -90 {
		return -90
	}
	if deg > 90 {
		return 90
	}
	return deg
}
