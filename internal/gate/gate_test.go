package gate

import (
	"testing"

	"github.com/expressora/expressora/internal/detector"
)

// movingFrames returns n copies of a signing frame, each displaced enough
// to pass the motion filter.
func movingFrames(side string, n int) []*detector.LandmarkFrame {
	base := detector.SigningFrame(side)
	frames := make([]*detector.LandmarkFrame, n)
	for i := range frames {
		frames[i] = detector.ShiftedFrame(base, 0.02*float64(i), 0)
	}
	return frames
}

func TestAcquireRequiresConsecutiveHighConfidence(t *testing.T) {
	g := New(DefaultConfig())
	frames := movingFrames(detector.SideRight, 3)

	// First qualifying frame: still searching.
	if d := g.Admit(frames[0]); d != Skip {
		t.Fatalf("decision on first frame = %v, want skip", d)
	}
	if g.Acquired(detector.SideRight) {
		t.Fatal("acquired after one frame, want two")
	}

	// Second consecutive frame at acquire confidence: acquired.
	if d := g.Admit(frames[1]); d != Process {
		t.Fatalf("decision on second frame = %v, want process", d)
	}
	if !g.Acquired(detector.SideRight) {
		t.Fatal("not acquired after two consecutive confident frames")
	}
}

// A confidence between the hold and acquire thresholds keeps an acquired
// entity but never starts one.
func TestHysteresisIsAsymmetric(t *testing.T) {
	midConfidence := 0.55 // above hold 0.4, below acquire 0.7

	t.Run("searching stays searching", func(t *testing.T) {
		g := New(DefaultConfig())
		frames := movingFrames(detector.SideRight, 4)
		for _, f := range frames {
			f.Hands[0].Score = midConfidence
			if d := g.Admit(f); d != Skip {
				t.Fatalf("decision = %v, want skip while searching", d)
			}
		}
		if g.Acquired(detector.SideRight) {
			t.Fatal("acquired at mid confidence, want searching")
		}
	})

	t.Run("acquired stays acquired", func(t *testing.T) {
		g := New(DefaultConfig())
		frames := movingFrames(detector.SideRight, 5)
		g.Admit(frames[0])
		g.Admit(frames[1])
		if !g.Acquired(detector.SideRight) {
			t.Fatal("setup failed: not acquired")
		}

		for _, f := range frames[2:] {
			f.Hands[0].Score = midConfidence
			if d := g.Admit(f); d != Process {
				t.Fatalf("decision = %v, want process while held", d)
			}
		}
		if !g.Acquired(detector.SideRight) {
			t.Fatal("lost acquisition at mid confidence, want held")
		}
	})
}

func TestHoldBreaksBelowHoldConfidence(t *testing.T) {
	g := New(DefaultConfig())
	frames := movingFrames(detector.SideRight, 3)
	g.Admit(frames[0])
	g.Admit(frames[1])

	frames[2].Hands[0].Score = 0.3 // below hold threshold
	g.Admit(frames[2])
	if g.Acquired(detector.SideRight) {
		t.Fatal("still acquired below hold confidence")
	}
}

func TestGhostHandRejected(t *testing.T) {
	g := New(DefaultConfig())

	f := detector.GhostFrame(detector.SideRight)
	if d := g.Admit(f); d != Reject {
		t.Fatalf("decision = %v, want reject for ghost hand", d)
	}
	if g.Acquired(detector.SideRight) {
		t.Fatal("ghost hand acquired")
	}
}

func TestMissingPoseAnchorRejected(t *testing.T) {
	g := New(DefaultConfig())

	f := detector.SigningFrame(detector.SideRight)
	f.Pose = nil
	if d := g.Admit(f); d != Reject {
		t.Fatalf("decision = %v, want reject without skeletal anchor", d)
	}
}

func TestLowWristVisibilityRejected(t *testing.T) {
	g := New(DefaultConfig())

	f := detector.SigningFrame(detector.SideRight)
	f.Pose.Visibility[detector.PoseRightWrist] = 0.2
	if d := g.Admit(f); d != Reject {
		t.Fatalf("decision = %v, want reject with untrusted wrist", d)
	}
}

func TestGhostDropsInProgressAcquisition(t *testing.T) {
	g := New(DefaultConfig())
	frames := movingFrames(detector.SideRight, 1)
	g.Admit(frames[0]) // one of two acquire frames

	g.Admit(detector.GhostFrame(detector.SideRight))

	// Back to square one: a single confident frame must not complete the
	// earlier half-acquisition.
	g.Admit(frames[0])
	if g.Acquired(detector.SideRight) {
		t.Fatal("acquisition survived a ghost frame")
	}
}

func TestStillHandsStopFeedingClassifier(t *testing.T) {
	g := New(DefaultConfig())
	frames := movingFrames(detector.SideRight, 2)
	g.Admit(frames[0])
	g.Admit(frames[1])

	// Identical frames: no motion. The third still frame crosses the
	// threshold and the gate withholds the frame.
	still := frames[1]
	decisions := []Decision{Process, Process, Skip, Skip}
	for i, want := range decisions {
		if d := g.Admit(still); d != want {
			t.Fatalf("still frame %d decision = %v, want %v", i, d, want)
		}
	}

	// Any movement resumes processing immediately.
	moved := detector.ShiftedFrame(still, 0.05, 0)
	if d := g.Admit(moved); d != Process {
		t.Fatalf("decision after movement = %v, want process", d)
	}
}

func TestAbsenceBreaksAcquisition(t *testing.T) {
	g := New(DefaultConfig())
	frames := movingFrames(detector.SideRight, 2)
	g.Admit(frames[0])
	g.Admit(frames[1])

	empty := &detector.LandmarkFrame{}
	if d := g.Admit(empty); d != Skip {
		t.Fatalf("decision on empty frame = %v, want skip", d)
	}
	if g.Acquired(detector.SideRight) {
		t.Fatal("still acquired after the hand vanished")
	}
}

func TestReset(t *testing.T) {
	g := New(DefaultConfig())
	frames := movingFrames(detector.SideRight, 2)
	g.Admit(frames[0])
	g.Admit(frames[1])

	g.Reset()
	if g.Acquired(detector.SideRight) {
		t.Fatal("acquired after reset")
	}
}
