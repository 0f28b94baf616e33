package event

type waitState int

const (
	waitIdle waitState = iota
	waitPending
	waitResolved
	waitFailed
)

// wait is the single pending-call slot: idle -> pending -> resolved|failed
// -> idle. Only dispatch resolves it.
type wait struct {
	state   waitState
	name    string
	results []any
	err     error
}

func (w *wait) begin(name string) {
	*w = wait{state: waitPending, name: name}
}

func (w *wait) resolve(name string, results []any) {
	if w.state != waitPending || w.name != name {
		return
	}
	w.state = waitResolved
	w.results = results
}

func (w *wait) fail(err error) {
	if w.state != waitPending {
		return
	}
	w.state = waitFailed
	w.err = err
}

func (w *wait) reset() {
	*w = wait{}
}
