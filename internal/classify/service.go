package classify

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/expressora/expressora/internal/detector"
	"github.com/expressora/expressora/internal/feature"
)

// ServiceClassifier implements Classifier and ToneClassifier against a
// Python model service subprocess (TFLite runtime) speaking JSON lines over
// stdin/stdout. The process is started lazily on first inference.
type ServiceClassifier struct {
	variant string
	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	started bool
}

// NewServiceClassifier creates a classifier bound to the given model
// variant (e.g. "fsl-v2-lite"). Fails when the service script is missing so
// the caller can fall back to another backend.
func NewServiceClassifier(variant string) (*ServiceClassifier, error) {
	if findModelScript() == "" {
		return nil, fmt.Errorf("model_service.py not found")
	}
	return &ServiceClassifier{variant: variant}, nil
}

type serviceRequest struct {
	Op      string    `json:"op"` // "infer" or "tone"
	Variant string    `json:"variant,omitempty"`
	Window  []float64 `json:"window,omitempty"`
	Frames  int       `json:"frames,omitempty"`
	Dim     int       `json:"dim,omitempty"`
	Anchors []float64 `json:"anchors,omitempty"`
}

type serviceResponse struct {
	Label            string       `json:"label"`
	Confidence       float64      `json:"confidence"`
	Origin           string       `json:"origin"`
	OriginConfidence float64      `json:"originConfidence"`
	TopK             []LabelScore `json:"topK"`
	Error            string       `json:"error"`
}

// Infer classifies one feature window.
func (s *ServiceClassifier) Infer(w *feature.Window) (RecognitionResult, error) {
	resp, err := s.roundTrip(serviceRequest{
		Op:      "infer",
		Variant: s.variant,
		Window:  w.Data,
		Frames:  w.Frames,
		Dim:     w.Dim,
	})
	if err != nil {
		return RecognitionResult{}, err
	}
	return RecognitionResult{
		Label:            resp.Label,
		Confidence:       resp.Confidence,
		Origin:           resp.Origin,
		OriginConfidence: resp.OriginConfidence,
		TopK:             resp.TopK,
	}, nil
}

// ClassifyTone maps facial anchors to a tone tag.
func (s *ServiceClassifier) ClassifyTone(face *detector.Face) (string, float64, error) {
	anchors := make([]float64, 0, detector.NumFaceAnchors*3)
	for _, p := range face.Anchors {
		anchors = append(anchors, p.X, p.Y, p.Z)
	}
	resp, err := s.roundTrip(serviceRequest{Op: "tone", Anchors: anchors})
	if err != nil {
		return "", 0, err
	}
	return resp.Label, resp.Confidence, nil
}

// Backend identifies the execution backend.
func (s *ServiceClassifier) Backend() string {
	return "tflite-service"
}

// Variant identifies the loaded model variant.
func (s *ServiceClassifier) Variant() string {
	return s.variant
}

// Close shuts down the model service process.
func (s *ServiceClassifier) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	if s.stdin != nil {
		s.stdin.Close()
	}
	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil
	return err
}

func (s *ServiceClassifier) roundTrip(req serviceRequest) (*serviceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := s.stdin.Write(payload); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	line, err := s.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp serviceResponse
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("model service: %s", resp.Error)
	}
	return &resp, nil
}

func (s *ServiceClassifier) ensureStarted() error {
	if s.started {
		return nil
	}

	scriptPath := findModelScript()
	if scriptPath == "" {
		return fmt.Errorf("model_service.py not found")
	}

	pythonPath := "python3"
	s.cmd = exec.Command(pythonPath, scriptPath, "--variant", s.variant)

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start model service: %w", err)
	}

	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.started = true
	return nil
}

func findModelScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/model_service.py",
		"../scripts/model_service.py",
		filepath.Join(execDir, "scripts/model_service.py"),
		filepath.Join(os.Getenv("HOME"), ".expressora/scripts/model_service.py"),
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
