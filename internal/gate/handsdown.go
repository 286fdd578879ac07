package gate

import (
	"time"

	"github.com/expressora/expressora/internal/detector"
)

// HandsDown detects the resting posture that signals the signer has
// finished: both wrists held in the bottom region of the frame for a
// sustained interval. The app uses it to flush the sequence accumulator.
type HandsDown struct {
	// ThresholdY is the normalized y-coordinate below which a wrist counts
	// as "down" (y grows downward; 0.9 is the bottom tenth of the frame).
	ThresholdY float64
	// Hold is how long the posture must persist before triggering.
	Hold time.Duration

	start time.Time
}

// NewHandsDown creates a detector with the production thresholds.
func NewHandsDown() *HandsDown {
	return &HandsDown{
		ThresholdY: 0.9,
		Hold:       1500 * time.Millisecond,
	}
}

// Check examines one frame and reports whether the hands-down posture has
// now persisted past Hold. The most raised wrist (smallest y) decides, so
// one hand still up resets the timer.
func (d *HandsDown) Check(frame *detector.LandmarkFrame, now time.Time) bool {
	wristY, ok := highestWristY(frame)
	if !ok || wristY <= d.ThresholdY {
		d.start = time.Time{}
		return false
	}

	if d.start.IsZero() {
		d.start = now
		return false
	}
	return now.Sub(d.start) > d.Hold
}

// Reset clears the posture timer, typically after the trigger has been
// consumed.
func (d *HandsDown) Reset() {
	d.start = time.Time{}
}

// highestWristY returns the smallest wrist y-coordinate in the frame (the
// most raised wrist), preferring pose wrists over hand wrists.
func highestWristY(frame *detector.LandmarkFrame) (float64, bool) {
	if frame.Pose != nil {
		l := frame.Pose.Points[detector.PoseLeftWrist].Y
		r := frame.Pose.Points[detector.PoseRightWrist].Y
		if r < l {
			return r, true
		}
		return l, true
	}

	found := false
	var y float64
	for i := range frame.Hands {
		wy := frame.Hands[i].Points[detector.Wrist].Y
		if !found || wy < y {
			y = wy
			found = true
		}
	}
	return y, found
}
