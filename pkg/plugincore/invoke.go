package plugincore

import (
	"fmt"
	"time"
)

// Command is the canonical command signature: no arguments, one result.
type Command func() int32

// Status is the outcome of invoking a command.
type Status int

// Invocation statuses.
const (
	StatusOK       Status = 0
	StatusNotFound Status = -1
	StatusFault    Status = -2
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusFault:
		return "FAULT"
	default:
		return fmt.Sprintf("STATUS(%d)", int(s))
	}
}

// Invoke looks up name and hands the implementation to call. A panic raised
// while call runs is recovered here and reported as StatusFault, since the
// implementation may come from a plugin the host did not write. Hosts with
// their own command signature use Invoke to build their run wrapper.
func (h *Host[F]) Invoke(name string, call func(F)) (status Status) {
	impl, ok := h.Get(name)
	if !ok {
		h.Logf(LevelError, "Command %q not found", name)
		h.metrics.observeInvocation(h.namespace, StatusNotFound, 0)

		return StatusNotFound
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			h.Logf(LevelError, "Command %q threw exception: %s", scrubName(name), faultMessage(r))
			status = StatusFault
		}
		h.metrics.observeInvocation(h.namespace, status, time.Since(start))
	}()

	call(impl)

	return StatusOK
}

// Run invokes a canonical command and stores its result in out. out may be
// nil, in which case the result is discarded. out is left untouched unless
// the status is StatusOK.
func Run(h *Host[Command], name string, out *int32) Status {
	var ret int32
	status := h.Invoke(name, func(c Command) { ret = c() })
	if status == StatusOK && out != nil {
		*out = ret
	}

	return status
}

func faultMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return "unknown exception"
	}
}
