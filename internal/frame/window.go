package frame

// WindowState is where the frame counter sits relative to the requested
// window.
type WindowState int

const (
	// WindowBefore means the counter has not reached the start frame yet.
	WindowBefore WindowState = iota
	// WindowActive means frames are inside [start, end).
	WindowActive
	// WindowDone means the counter passed the end frame. Terminal.
	WindowDone
)

// Window tracks a monotonically increasing frame index and decides which
// decoded frames get processed. Start is inclusive, End is exclusive, and
// End == 0 means unbounded. Every decoded frame advances the counter
// whether or not it is admitted.
type Window struct {
	Start uint64
	End   uint64

	index uint64
	state WindowState
}

func NewWindow(start, end uint64) *Window {
	w := &Window{Start: start, End: end}
	if start > 0 {
		w.state = WindowBefore
	} else {
		w.state = WindowActive
	}
	return w
}

// Admit evaluates the current frame against the bounds, advances the
// counter, and reports the frame's index and whether it should be
// processed. After the window closes no frame is ever admitted again.
func (w *Window) Admit() (uint64, bool) {
	idx := w.index
	switch {
	case w.End != 0 && idx >= w.End:
		w.state = WindowDone
	case idx >= w.Start:
		w.state = WindowActive
	default:
		w.state = WindowBefore
	}
	w.index++
	return idx, w.state == WindowActive
}

// Done reports whether the window has closed. The pipeline must stop
// pulling frames as soon as this returns true.
func (w *Window) Done() bool {
	return w.state == WindowDone
}

func (w *Window) State() WindowState {
	return w.state
}

// Index is the number of frames seen so far, which is also the index the
// next decoded frame will get.
func (w *Window) Index() uint64 {
	return w.index
}
