// Package transcriber runs a local whisper.cpp model over finished WAV
// artifacts.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"dictator/log"
)

var (
	ErrArtifactNotFound = errors.New("transcriber: artifact not found")
	ErrModelNotFound    = errors.New("transcriber: model not found")
)

// NotFoundError reports an artifact that vanished before it could be
// transcribed.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return "audio artifact not found: " + e.Path
}

func (e *NotFoundError) Is(target error) bool { return target == ErrArtifactNotFound }

// Model is a loaded speech model. Transcribe returns segments in order.
type Model interface {
	Transcribe(ctx context.Context, wavPath string) ([]string, error)
	Close() error
}

// LoadFunc loads the model stored at path.
type LoadFunc func(path string) (Model, error)

// Service loads its model on first use and keeps it for the process lifetime.
type Service struct {
	locator Locator
	load    LoadFunc

	mu    sync.Mutex
	model Model
	path  string
}

func NewService(locator Locator, load LoadFunc) *Service {
	if load == nil {
		load = DefaultLoader
	}
	return &Service{locator: locator, load: load}
}

// Model returns the loaded model, loading it if needed. Failures are not
// cached so a model provisioned later is picked up on the next call.
func (s *Service) Model() (Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		return s.model, nil
	}

	path, err := s.locator.Resolve()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	m, err := s.load(path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	log.Infof("model loaded: %s (%dms)", path, time.Since(start).Milliseconds())
	s.model = m
	s.path = path
	return m, nil
}

// ModelPath is the path of the loaded model, or "" before the first load.
func (s *Service) ModelPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Transcribe runs the model over the artifact at path and returns the
// trimmed text, or "" for silence. The artifact is removed before returning
// whatever the outcome.
func (s *Service) Transcribe(ctx context.Context, path string) (string, error) {
	defer os.Remove(path)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &NotFoundError{Path: path}
		}
		return "", fmt.Errorf("stat artifact: %w", err)
	}

	m, err := s.Model()
	if err != nil {
		return "", err
	}
	segments, err := m.Transcribe(ctx, path)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	text := strings.TrimSpace(strings.Join(segments, " "))
	if IsBlank(text) {
		return "", nil
	}
	return text, nil
}

// Close releases the model if one was loaded.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return nil
	}
	err := s.model.Close()
	s.model = nil
	return err
}

// IsBlank reports whether text is one of whisper's silence markers.
func IsBlank(text string) bool {
	t := strings.TrimSpace(text)
	if len(t) < 2 {
		return false
	}
	l, r := t[0], t[len(t)-1]
	if !(l == '[' && r == ']') && !(l == '(' && r == ')') {
		return false
	}
	inner := strings.ToUpper(strings.TrimSpace(t[1 : len(t)-1]))
	return inner == "BLANK_AUDIO" || inner == "BLANK AUDIO"
}
