package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// HolisticDetector implements Detector using a Python MediaPipe holistic
// subprocess (hands + pose + reduced face mesh).
type HolisticDetector struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewHolisticDetector creates a new holistic detector.
// The Python process is started lazily on first detection.
func NewHolisticDetector(config Config) (*HolisticDetector, error) {
	scriptPath := findHolisticScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("holistic_service.py not found")
	}

	return &HolisticDetector{
		config: config,
	}, nil
}

// Detect analyzes a frame and returns the detected landmark frame.
func (d *HolisticDetector) Detect(frame *gocv.Mat) (*LandmarkFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	// Encode frame as JPEG
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	// Read JSON response
	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response jsonFrame
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return response.toLandmarkFrame(frame.Cols(), frame.Rows(), d.config.Mirrored), nil
}

// Close shuts down the Python process.
func (d *HolisticDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *HolisticDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	scriptPath := findHolisticScript()
	if scriptPath == "" {
		return fmt.Errorf("holistic_service.py not found")
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, scriptPath)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start holistic service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *HolisticDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *HolisticDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(30*time.Second, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findHolisticScript() string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/holistic_service.py",
		"../scripts/holistic_service.py",
		filepath.Join(execDir, "scripts/holistic_service.py"),
		filepath.Join(os.Getenv("HOME"), ".expressora/scripts/holistic_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
// It checks for venv/bin/python relative to the project directory.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".expressora/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonFrame represents the JSON structure from the Python service.
type jsonFrame struct {
	Hands []jsonHand `json:"hands"`
	Pose  *jsonPose  `json:"pose"`
	Face  *jsonFace  `json:"face"`
}

type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"` // raw MediaPipe label
	Score      float64     `json:"score"`
}

type jsonPose struct {
	Points     []jsonPoint `json:"points"`
	Visibility []float64   `json:"visibility"`
	Score      float64     `json:"score"`
}

type jsonFace struct {
	Anchors []jsonPoint `json:"anchors"`
	Score   float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (f jsonFrame) toLandmarkFrame(width, height int, mirrored bool) *LandmarkFrame {
	lf := &LandmarkFrame{
		Width:     width,
		Height:    height,
		Timestamp: time.Now().UnixMilli(),
	}

	for _, h := range f.Hands {
		hand := Hand{
			Side:  CanonicalSide(h.Handedness, mirrored),
			Score: h.Score,
		}
		for i := 0; i < NumHandLandmarks && i < len(h.Points); i++ {
			hand.Points[i] = Point3D{X: h.Points[i].X, Y: h.Points[i].Y, Z: h.Points[i].Z}
		}
		lf.Hands = append(lf.Hands, hand)
	}

	if f.Pose != nil {
		pose := &Pose{Score: f.Pose.Score}
		for i := 0; i < NumPoseLandmarks && i < len(f.Pose.Points); i++ {
			pose.Points[i] = Point3D{X: f.Pose.Points[i].X, Y: f.Pose.Points[i].Y, Z: f.Pose.Points[i].Z}
		}
		for i := 0; i < NumPoseLandmarks && i < len(f.Pose.Visibility); i++ {
			pose.Visibility[i] = f.Pose.Visibility[i]
		}
		lf.Pose = pose
	}

	if f.Face != nil {
		face := &Face{Score: f.Face.Score}
		for i := 0; i < NumFaceAnchors && i < len(f.Face.Anchors); i++ {
			face.Anchors[i] = Point3D{X: f.Face.Anchors[i].X, Y: f.Face.Anchors[i].Y, Z: f.Face.Anchors[i].Z}
		}
		lf.Face = face
	}

	return lf
}
