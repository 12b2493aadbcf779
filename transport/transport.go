// Package transport implements the playback state machine of a loaded
// buffer: play, pause, scrub with a debounced resume, progress and the
// source that feeds the processing graph.
package transport

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/mixdesk/audio"
	"github.com/cwbudde/mixdesk/dsp/core"
)

// ResumeDelay is how long after the last scrub playback resumes.
const ResumeDelay = 200 * time.Millisecond

// State is the playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// Clock reports the audio clock in seconds.
type Clock interface {
	Now() float64
}

// ClockFunc adapts a function to [Clock].
type ClockFunc func() float64

// Now implements [Clock].
func (f ClockFunc) Now() float64 { return f() }

// Snapshot is the persisted transport state. Elapsed time is
// (now - OriginSec) + OffsetSec while Playing and OffsetSec otherwise.
type Snapshot struct {
	State     State
	OffsetSec float64
	OriginSec float64
}

// Source reads one buffer from a start frame. A fresh source is bound on
// every transition to Playing.
type Source struct {
	buf *audio.Buffer
	pos int
}

func newSource(buf *audio.Buffer, offsetSec float64) *Source {
	pos := int(math.Round(offsetSec * buf.SampleRate()))
	if n := buf.Len(); n > 0 {
		pos %= n
	}

	return &Source{buf: buf, pos: pos}
}

// Position returns the next frame to be read.
func (s *Source) Position() int { return s.pos }

func (s *Source) pull(dst [][]float64) (frames int, ended bool) {
	n := s.buf.CopyTo(dst, s.pos)
	s.pos += n

	return n, s.pos >= s.buf.Len()
}

// Option configures a [Controller].
type Option func(*Controller)

// WithResumeDelay overrides [ResumeDelay].
func WithResumeDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.resumeDelay = d
		}
	}
}

// Controller is the transport state machine. It is safe for concurrent
// use; scheduled resumes arrive on the scheduler's goroutine.
type Controller struct {
	mu sync.Mutex

	clock       Clock
	sched       Scheduler
	resumeDelay time.Duration

	buf    *audio.Buffer
	source *Source
	state  Snapshot

	resume     Timer
	generation uint64
}

// New returns a stopped controller without audio.
func New(clock Clock, sched Scheduler, opts ...Option) *Controller {
	if sched == nil {
		sched = RealScheduler{}
	}

	c := &Controller{clock: clock, sched: sched, resumeDelay: ResumeDelay}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Load replaces the audio. Any state becomes Stopped at offset 0 and a
// pending resume is cancelled. A nil buffer unloads.
func (c *Controller) Load(buf *audio.Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelResumeLocked()
	c.buf = buf
	c.source = nil
	c.state = Snapshot{State: Stopped}
}

// Close unloads the audio and cancels a pending resume.
func (c *Controller) Close() { c.Load(nil) }

// Loaded reports whether audio is loaded.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.buf != nil
}

// Play starts playback from the stored offset. It does nothing without
// audio or while Playing and reports whether the state changed.
func (c *Controller) Play() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.playLocked()
}

func (c *Controller) playLocked() bool {
	if c.buf == nil || c.state.State == Playing {
		return false
	}

	duration := c.buf.Duration()
	offset := c.state.OffsetSec
	if duration > 0 {
		offset = math.Mod(offset, duration)
	}

	c.source = newSource(c.buf, offset)
	c.state = Snapshot{State: Playing, OffsetSec: offset, OriginSec: c.clock.Now()}

	return true
}

// Pause stops playback and keeps the position. It does nothing unless
// Playing and reports whether the state changed.
func (c *Controller) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.State != Playing {
		return false
	}

	c.state = Snapshot{State: Paused, OffsetSec: c.elapsedLocked()}
	c.source = nil

	return true
}

// Scrub seeks to ratio (clamped to [0, 1]) of the duration. Playback
// stops, the progress moves immediately and a resume is scheduled after
// the resume delay. A newer scrub cancels the pending resume, so only the
// last one plays. Without audio Scrub does nothing.
func (c *Controller) Scrub(ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.buf == nil {
		return
	}

	if math.IsNaN(ratio) {
		ratio = 0
	}

	ratio = core.Clamp(ratio, 0, 1)

	c.source = nil
	c.state = Snapshot{State: Paused, OffsetSec: ratio * c.buf.Duration()}

	c.cancelResumeLocked()
	gen := c.generation
	c.resume = c.sched.AfterFunc(c.resumeDelay, func() { c.fireResume(gen) })
}

func (c *Controller) fireResume(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}

	c.resume = nil
	c.playLocked()
}

func (c *Controller) cancelResumeLocked() {
	c.generation++

	if c.resume != nil {
		c.resume.Stop()
		c.resume = nil
	}
}

// ResumePending reports whether a scrub resume is scheduled.
func (c *Controller) ResumePending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.resume != nil
}

// State returns the playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.State
}

// Snapshot returns the persisted transport state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Elapsed returns the playback position in seconds.
func (c *Controller) Elapsed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.elapsedLocked()
}

func (c *Controller) elapsedLocked() float64 {
	if c.state.State != Playing {
		return c.state.OffsetSec
	}

	return c.clock.Now() - c.state.OriginSec + c.state.OffsetSec
}

// Progress returns Elapsed as a fraction of the duration in [0, 1], or 0
// without audio.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.buf == nil || c.buf.Duration() == 0 {
		return 0
	}

	return core.Clamp(c.elapsedLocked()/c.buf.Duration(), 0, 1)
}

// Duration returns the loaded duration in seconds, or 0.
func (c *Controller) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.buf == nil {
		return 0
	}

	return c.buf.Duration()
}

// Pull fills dst (planar, one slice per graph channel) with the next
// source frames and returns how many were real audio; the rest is
// silence. Reaching the end of the buffer stops playback at offset 0.
// Channels beyond the buffer's repeat its last channel.
func (c *Controller) Pull(dst [][]float64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	core.ZeroPlanar(dst)

	if c.state.State != Playing || c.source == nil || len(dst) == 0 {
		return 0
	}

	have := c.buf.NumChannels()
	n, ended := c.source.pull(dst[:min(have, len(dst))])

	for ch := have; ch < len(dst); ch++ {
		copy(dst[ch][:n], dst[have-1][:n])
	}

	if ended {
		c.source = nil
		c.state = Snapshot{State: Stopped}
	}

	return n
}
