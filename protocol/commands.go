package protocol

import "fmt"

// DirCode is one of the nine direction codes accepted by the "mt" command.
type DirCode int

const (
	DirHalt DirCode = iota
	DirForward
	DirForwardRight
	DirRight
	DirBackRight
	DirBack
	DirBackLeft
	DirLeft
	DirForwardLeft
)

// EncodeHalt returns the "ha" command: stop both wheels immediately.
func EncodeHalt() string {
	return "ha"
}

// EncodeMove returns the "mt" command: move with direction code dir until
// deadlineMs (robot-relative milliseconds).
func EncodeMove(deadlineMs int64, dir DirCode) string {
	return fmt.Sprintf("mt %d %d", deadlineMs, int(dir))
}

// EncodeScan returns the "sc" command: point the sensor at degDir degrees
// ([-90,90]) and begin a sweep.
func EncodeScan(degDir int) string {
	return fmt.Sprintf("sc %d", clipSensorDir(degDir))
}

// EncodeQueryStatus returns the "qs" command: request an immediate status frame.
func EncodeQueryStatus() string {
	return "qs"
}

// EncodeClockSync returns the "ck" command: a clock-sync ping carrying our
// local clock reading in milliseconds.
func EncodeClockSync(localMs int64) string {
	return fmt.Sprintf("ck %d", localMs)
}
