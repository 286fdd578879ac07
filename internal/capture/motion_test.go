package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func solidMat(t *testing.T, value float64) *gocv.Mat {
	t.Helper()

	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(value, value, value, 0), 240, 320, gocv.MatTypeCV8UC3)
	t.Cleanup(func() {
		mat.Close()
	})
	return &mat
}

func TestMotionDetectorFirstFrameIsBaseline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	m := NewMotionDetector(1.0)
	defer m.Close()

	detected, percent := m.Detect(solidMat(t, 128))
	if detected || percent != 0 {
		t.Fatalf("first frame reported motion (%v, %f)", detected, percent)
	}
}

func TestMotionDetectorDetectsChange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	m := NewMotionDetector(1.0)
	defer m.Close()

	m.Detect(solidMat(t, 10))
	detected, percent := m.Detect(solidMat(t, 240))
	if !detected {
		t.Fatalf("dark to bright transition not detected (%.2f%%)", percent)
	}

	// Identical consecutive frames are still.
	detected, _ = m.Detect(solidMat(t, 240))
	if detected {
		t.Fatal("identical frames reported motion")
	}
}

func TestMotionDetectorReset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	m := NewMotionDetector(1.0)
	defer m.Close()

	m.Detect(solidMat(t, 10))
	m.Reset()

	// After a reset the next frame is a fresh baseline.
	detected, _ := m.Detect(solidMat(t, 240))
	if detected {
		t.Fatal("baseline frame after reset reported motion")
	}
}

func TestMotionDetectorNilAndEmptyFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	m := NewMotionDetector(1.0)
	defer m.Close()

	if detected, _ := m.Detect(nil); detected {
		t.Fatal("nil frame reported motion")
	}

	empty := gocv.NewMat()
	defer empty.Close()
	if detected, _ := m.Detect(&empty); detected {
		t.Fatal("empty frame reported motion")
	}
}

func TestSetThresholdIgnoresNonPositive(t *testing.T) {
	m := NewMotionDetector(1.0)
	defer m.Close()

	m.SetThreshold(0)
	m.SetThreshold(-5)
	if m.threshold != 1.0 {
		t.Fatalf("threshold = %f, want unchanged 1.0", m.threshold)
	}

	m.SetThreshold(2.5)
	if m.threshold != 2.5 {
		t.Fatalf("threshold = %f, want 2.5", m.threshold)
	}
}
