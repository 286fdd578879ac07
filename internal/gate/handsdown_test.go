package gate

import (
	"testing"
	"time"

	"github.com/expressora/expressora/internal/detector"
)

func TestHandsDownTriggersAfterHold(t *testing.T) {
	d := NewHandsDown()
	resting := detector.RestingFrame()
	start := time.Now()

	if d.Check(resting, start) {
		t.Fatal("triggered on the first resting frame")
	}
	if d.Check(resting, start.Add(time.Second)) {
		t.Fatal("triggered before the hold elapsed")
	}
	if !d.Check(resting, start.Add(1600*time.Millisecond)) {
		t.Fatal("did not trigger after the hold elapsed")
	}
}

func TestHandsDownRaisedWristResets(t *testing.T) {
	d := NewHandsDown()
	resting := detector.RestingFrame()
	start := time.Now()

	d.Check(resting, start)

	// One wrist comes back up mid-hold.
	raised := detector.RestingFrame()
	raised.Pose.Points[detector.PoseRightWrist].Y = 0.5
	if d.Check(raised, start.Add(time.Second)) {
		t.Fatal("triggered with a raised wrist")
	}

	// The timer restarted: the original deadline no longer counts.
	if d.Check(resting, start.Add(1600*time.Millisecond)) {
		t.Fatal("triggered from a stale timer after a reset")
	}
	if !d.Check(resting, start.Add(3200*time.Millisecond)) {
		t.Fatal("did not trigger after a fresh hold")
	}
}

func TestHandsDownSigningFrameNeverTriggers(t *testing.T) {
	d := NewHandsDown()
	signing := detector.SigningFrame(detector.SideRight)
	start := time.Now()

	for i := 0; i < 10; i++ {
		if d.Check(signing, start.Add(time.Duration(i)*time.Second)) {
			t.Fatal("triggered while signing")
		}
	}
}

func TestHandsDownReset(t *testing.T) {
	d := NewHandsDown()
	resting := detector.RestingFrame()
	start := time.Now()

	d.Check(resting, start)
	d.Reset()

	if d.Check(resting, start.Add(2*time.Second)) {
		t.Fatal("triggered from pre-reset state")
	}
}
