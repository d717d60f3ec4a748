package meter

import "sync/atomic"

// CommandListener converts external control signals into flags the packet
// loop consumes once per iteration. The API layer writes from its own
// goroutines; the loop is the only reader.
type CommandListener struct {
	reset   atomic.Bool
	save    atomic.Bool
	pause   atomic.Bool
	details atomic.Bool

	// -1 unset, 0 false, 1 true
	bossOnly atomic.Int32
}

func NewCommandListener() *CommandListener {
	l := &CommandListener{}
	l.bossOnly.Store(-1)
	return l
}

func (l *CommandListener) RequestReset()         { l.reset.Store(true) }
func (l *CommandListener) RequestSave()          { l.save.Store(true) }
func (l *CommandListener) RequestPauseToggle()   { l.pause.Store(true) }
func (l *CommandListener) RequestDetailsToggle() { l.details.Store(true) }

func (l *CommandListener) RequestBossOnly(enabled bool) {
	if enabled {
		l.bossOnly.Store(1)
	} else {
		l.bossOnly.Store(0)
	}
}

func (l *CommandListener) ConsumeReset() bool         { return l.reset.CompareAndSwap(true, false) }
func (l *CommandListener) ConsumeSave() bool          { return l.save.CompareAndSwap(true, false) }
func (l *CommandListener) ConsumePauseToggle() bool   { return l.pause.CompareAndSwap(true, false) }
func (l *CommandListener) ConsumeDetailsToggle() bool { return l.details.CompareAndSwap(true, false) }

// ConsumeBossOnly returns (value, set) and clears the pending request.
func (l *CommandListener) ConsumeBossOnly() (bool, bool) {
	v := l.bossOnly.Swap(-1)
	if v < 0 {
		return false, false
	}
	return v == 1, true
}
