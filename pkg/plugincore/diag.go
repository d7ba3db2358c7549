package plugincore

import (
	"fmt"
	"sync"
)

// Level is the severity of a diagnostic record.
type Level int

// Diagnostic levels.
const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Record is a single buffered diagnostic.
type Record struct {
	Level   Level
	Message string
}

// Logger receives diagnostics from the runtime.
type Logger func(level Level, msg string)

// ChannelState reports whether a Channel is buffering or delivering to a sink.
type ChannelState int

// Channel states.
const (
	Buffering ChannelState = iota
	Attached
)

// Channel is the diagnostics sink shared by every component of a Host.
// Until a Logger is attached, records accumulate in an unbounded ordered buffer
// so nothing active before host start-up writes to uncontrolled output.
type Channel struct {
	mu   sync.Mutex
	sink Logger
	buf  []Record
}

// NewChannel returns a Channel in the Buffering state.
func NewChannel() *Channel {
	return &Channel{}
}

// SetLogger attaches sink, or detaches the current one when sink is nil.
// Records logged after a detach are buffered again.
func (c *Channel) SetLogger(sink Logger) {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()
}

// Attach drains the buffer into sink in arrival order and then attaches it.
// Records logged while the buffer drains, including by sink itself, are
// buffered and delivered before the channel leaves the Buffering state, so
// none are lost between the flush and the attach. A nil sink is a no-op.
func (c *Channel) Attach(sink Logger) {
	if sink == nil {
		return
	}

	for {
		c.mu.Lock()
		pending := c.buf
		c.buf = nil
		if len(pending) == 0 {
			c.sink = sink
			c.mu.Unlock()

			return
		}
		c.mu.Unlock()

		for _, rec := range pending {
			sink(rec.Level, rec.Message)
		}
	}
}

// State returns the current channel state.
func (c *Channel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sink != nil {
		return Attached
	}

	return Buffering
}

// Log delivers a record to the attached sink or appends it to the buffer.
func (c *Channel) Log(level Level, msg string) {
	c.mu.Lock()
	sink := c.sink
	if sink == nil {
		c.buf = append(c.buf, Record{Level: level, Message: msg})
		c.mu.Unlock()

		return
	}
	c.mu.Unlock()

	// the sink runs unlocked so it may log through the channel itself.
	sink(level, msg)
}

// Logf formats according to a format specifier and logs the result.
func (c *Channel) Logf(level Level, format string, args ...any) {
	c.Log(level, fmt.Sprintf(format, args...))
}

// Buffered returns the number of records waiting for a flush.
func (c *Channel) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.buf)
}

// Flush hands every buffered record to fn in arrival order and clears the buffer.
// A nil fn leaves the buffer untouched.
func (c *Channel) Flush(fn Logger) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	pending := c.buf
	c.buf = nil
	c.mu.Unlock()

	for _, rec := range pending {
		fn(rec.Level, rec.Message)
	}
}
