package detector

import (
	"sync"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Result is a session-tagged detection delivered by Async. Consumers must
// drop results whose Session does not match the currently active session.
type Result struct {
	Session uuid.UUID
	Seq     uint64
	Frame   *LandmarkFrame
	Err     error
}

// Async wraps a Detector with asynchronous, session-tagged delivery for
// platforms whose detector API fires callbacks instead of blocking.
//
// Delivery policy is "most recent wins": at most one detection runs at a
// time (Submit reports a drop while busy), and an unconsumed result is
// displaced by a newer one rather than queued. In-flight work is never
// cancelled on a session switch; its result arrives carrying the stale
// session tag and is discarded by the consumer.
type Async struct {
	det     Detector
	mu      sync.Mutex
	session uuid.UUID
	busy    bool
	closed  bool
	results chan Result
}

// NewAsync creates an Async wrapper around the given detector.
func NewAsync(det Detector) *Async {
	return &Async{
		det:     det,
		session: uuid.New(),
		results: make(chan Result, 1),
	}
}

// Session returns the currently active session ID.
func (a *Async) Session() uuid.UUID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Rotate switches to a fresh session and returns its ID. Results from
// detections submitted before the switch keep their old tag.
func (a *Async) Rotate() uuid.UUID {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = uuid.New()
	return a.session
}

// Submit hands a frame to the detector without blocking. It takes ownership
// of the Mat and closes it once detection completes. Returns false if the
// frame was dropped because a detection is already in flight or the wrapper
// is closed; the caller must close the Mat itself in that case.
func (a *Async) Submit(frame *gocv.Mat, seq uint64) bool {
	a.mu.Lock()
	if a.busy || a.closed {
		a.mu.Unlock()
		return false
	}
	a.busy = true
	session := a.session
	a.mu.Unlock()

	go func() {
		lf, err := a.det.Detect(frame)
		frame.Close()

		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()

		res := Result{Session: session, Seq: seq, Frame: lf, Err: err}
		for {
			select {
			case a.results <- res:
				return
			default:
				// Displace the stale unconsumed result.
				select {
				case <-a.results:
				default:
				}
			}
		}
	}()
	return true
}

// Results returns the delivery channel.
func (a *Async) Results() <-chan Result {
	return a.results
}

// Close stops accepting submissions and closes the underlying detector.
// Any in-flight detection still delivers its (stale) result.
func (a *Async) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return a.det.Close()
}
