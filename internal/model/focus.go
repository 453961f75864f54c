package model

import "math"

const (
	DefaultFocusMinutes = 25
	MinFocusMinutes     = 1
	MaxFocusMinutes     = 60
)

// DialMinutes maps a point relative to the dial centre to a duration.
// The angle is measured clockwise from 12 o'clock; a full turn is 60
// minutes and the top wraps to 60 rather than 0. dy grows downward.
func DialMinutes(dx, dy float64) int {
	angle := math.Atan2(dy, dx) + math.Pi/2
	if angle < 0 {
		angle += 2 * math.Pi
	}
	minutes := int(math.Round(angle / (2 * math.Pi) * MaxFocusMinutes))
	if minutes == 0 {
		minutes = MaxFocusMinutes
	}
	if minutes < MinFocusMinutes {
		minutes = MinFocusMinutes
	}
	if minutes > MaxFocusMinutes {
		minutes = MaxFocusMinutes
	}
	return minutes
}

// Countdown is the focus timer. It only ticks while Running.
type Countdown struct {
	DefaultSec   int
	DurationSec  int
	RemainingSec int
	Running      bool
}

func NewCountdown(defaultMinutes int) Countdown {
	minutes := clampMinutes(defaultMinutes)
	return Countdown{
		DefaultSec:   minutes * 60,
		DurationSec:  minutes * 60,
		RemainingSec: minutes * 60,
	}
}

// SetMinutes changes the session length. Ignored while running.
func (c *Countdown) SetMinutes(minutes int) bool {
	if c.Running {
		return false
	}
	secs := clampMinutes(minutes) * 60
	c.DurationSec = secs
	c.RemainingSec = secs
	return true
}

func (c Countdown) Minutes() int {
	return c.DurationSec / 60
}

func (c *Countdown) Start() bool {
	if c.Running || c.RemainingSec <= 0 {
		return false
	}
	c.Running = true
	return true
}

func (c *Countdown) Pause() {
	c.Running = false
}

// Toggle starts or pauses and reports whether the timer is now running.
func (c *Countdown) Toggle() bool {
	if c.Running {
		c.Pause()
		return false
	}
	if c.RemainingSec <= 0 {
		c.RemainingSec = c.DurationSec
	}
	return c.Start()
}

func (c *Countdown) Reset() {
	if c.DefaultSec <= 0 {
		c.DefaultSec = DefaultFocusMinutes * 60
	}
	c.Running = false
	c.DurationSec = c.DefaultSec
	c.RemainingSec = c.DefaultSec
}

// Tick advances one second and reports whether the countdown just reached
// zero. A finished countdown stops itself.
func (c *Countdown) Tick() bool {
	if !c.Running {
		return false
	}
	if c.RemainingSec > 0 {
		c.RemainingSec--
	}
	if c.RemainingSec == 0 {
		c.Running = false
		return true
	}
	return false
}

// Progress is the remaining fraction while running, and the dial fill
// (duration out of 60 minutes) while stopped.
func (c Countdown) Progress() float64 {
	var p float64
	if c.Running {
		if c.DurationSec <= 0 {
			return 0
		}
		p = float64(c.RemainingSec) / float64(c.DurationSec)
	} else {
		p = float64(c.DurationSec) / float64(MaxFocusMinutes*60)
	}
	return math.Max(0, math.Min(1, p))
}

func clampMinutes(minutes int) int {
	if minutes < MinFocusMinutes {
		return MinFocusMinutes
	}
	if minutes > MaxFocusMinutes {
		return MaxFocusMinutes
	}
	return minutes
}
