package fsm

import "math"

// Halt is the terminal safety state: it always issues CommandHalt and
// never exits on its own. A machine only leaves Halt via an externally
// configured transition (e.g. Halt -> "explore" on a fresh "timeout"
// watchdog edge), per spec §4.6's built-in state table.
type Halt struct{}

func NewHalt() *Halt { return &Halt{} }

func (s *Halt) Name() string  { return "halt" }
func (s *Halt) OnInit()       {}
func (s *Halt) OnEntry()      {}
func (s *Halt) OnExit()       {}
func (s *Halt) Step(Observation) (ExitToken, RobotCommand) {
	return None, RobotCommand{Kind: CommandHalt}
}

// MoveTo drives straight toward (x, y) and exits Completed once within
// stopDistance meters of the target, or Blocked/FrontBlocked/RearBlocked
// if a contact prevents further progress, per spec §4.6.
type MoveTo struct {
	x, y, stopDistance float64
}

func NewMoveTo(x, y, stopDistance float64) *MoveTo {
	return &MoveTo{x: x, y: y, stopDistance: stopDistance}
}

func (s *MoveTo) Name() string { return "moveTo" }
func (s *MoveTo) OnInit()      {}
func (s *MoveTo) OnEntry()     {}
func (s *MoveTo) OnExit()      {}

func (s *MoveTo) Step(obs Observation) (ExitToken, RobotCommand) {
	dx, dy := s.x-obs.X, s.y-obs.Y
	dist := math.Hypot(dx, dy)
	if dist <= s.stopDistance {
		return Completed, RobotCommand{Kind: CommandHalt}
	}
	if !obs.FrontClear && !obs.RearClear {
		return Blocked, RobotCommand{Kind: CommandHalt}
	}
	if !obs.FrontClear {
		return FrontBlocked, RobotCommand{Kind: CommandHalt}
	}
	if !obs.RearClear {
		return RearBlocked, RobotCommand{Kind: CommandHalt}
	}

	headingDeg := math.Atan2(dy, dx) * 180 / math.Pi
	return None, RobotCommand{Kind: CommandMove, DirCode: int(headingDeg)}
}

// Explore wanders straight ahead until a contact forces a turn-away,
// per spec §4.6's unsupervised fallback roaming behavior.
type Explore struct {
	turnDeg int
}

func NewExplore() *Explore { return &Explore{turnDeg: 90} }

func (s *Explore) Name() string { return "explore" }
func (s *Explore) OnInit()      {}
func (s *Explore) OnEntry()     {}
func (s *Explore) OnExit()      {}

func (s *Explore) Step(obs Observation) (ExitToken, RobotCommand) {
	if !obs.FrontClear {
		return FrontBlocked, RobotCommand{Kind: CommandMove, DirCode: s.turnDeg}
	}
	if !obs.RearClear {
		return RearBlocked, RobotCommand{Kind: CommandMove, DirCode: -s.turnDeg}
	}
	return None, RobotCommand{Kind: CommandMove, DirCode: 0}
}

// AutoScan steps the sensor through sensorDirNumber evenly spaced
// directions between minDir and maxDir degrees in a triangular wave,
// issuing at most one new CommandScan per scanInterval milliseconds of
// simulated time, per spec §4.6.
type AutoScan struct {
	minDir, maxDir  int
	sensorDirNumber int
	scanInterval    int64
	step            float64 // degrees between consecutive scan directions

	lastScanMs int64
	scanned    bool
	dirDeg     float64
	rising     bool
}

func NewAutoScan(minDir, maxDir, sensorDirNumber int, scanInterval int64) *AutoScan {
	return &AutoScan{
		minDir:          minDir,
		maxDir:          maxDir,
		sensorDirNumber: sensorDirNumber,
		scanInterval:    scanInterval,
		step:            scanStep(minDir, maxDir, sensorDirNumber),
		rising:          true,
	}
}

// scanStep returns the angular spacing between sensorDirNumber evenly
// spaced directions spanning [minDir, maxDir] inclusive. sensorDirNumber
// <= 1 degenerates to a single jump from minDir straight to maxDir.
func scanStep(minDir, maxDir, sensorDirNumber int) float64 {
	if sensorDirNumber <= 1 {
		return float64(maxDir - minDir)
	}
	return float64(maxDir-minDir) / float64(sensorDirNumber-1)
}

func (s *AutoScan) Name() string { return "autoScan" }
func (s *AutoScan) OnInit()      {}

func (s *AutoScan) OnEntry() {
	s.dirDeg = float64(s.minDir)
	s.rising = true
	s.lastScanMs = 0
	s.scanned = false
}

func (s *AutoScan) OnExit() {}

func (s *AutoScan) Step(obs Observation) (ExitToken, RobotCommand) {
	if s.scanned && obs.SimulationTime-s.lastScanMs < s.scanInterval {
		return None, RobotCommand{Kind: CommandNone}
	}
	s.lastScanMs = obs.SimulationTime
	s.scanned = true

	deg := int(math.Round(s.dirDeg))
	if s.rising {
		s.dirDeg += s.step
		if s.dirDeg >= float64(s.maxDir) {
			s.dirDeg = float64(s.maxDir)
			s.rising = false
		}
	} else {
		s.dirDeg -= s.step
		if s.dirDeg <= float64(s.minDir) {
			s.dirDeg = float64(s.minDir)
			s.rising = true
		}
	}
	return None, RobotCommand{Kind: CommandScan, ScanDeg: deg}
}
