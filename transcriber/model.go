package transcriber

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const DefaultModelFile = "ggml-small.en.bin"

// ModelNotFoundError lists every location searched for the model file.
type ModelNotFoundError struct {
	File     string
	Searched []string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %s not found; download it into one of: %s",
		e.File, strings.Join(e.Searched, ", "))
}

func (e *ModelNotFoundError) Is(target error) bool { return target == ErrModelNotFound }

// Locator finds the model file. Override, when set, is the only candidate.
type Locator struct {
	Override string
	File     string
	// Dirs are searched in order; DefaultSearchDirs when nil.
	Dirs []string
}

func (l Locator) file() string {
	if l.File != "" {
		return l.File
	}
	return DefaultModelFile
}

// Candidates lists the paths Resolve checks, in priority order.
func (l Locator) Candidates() []string {
	if l.Override != "" {
		return []string{l.Override}
	}
	dirs := l.Dirs
	if dirs == nil {
		dirs = DefaultSearchDirs()
	}
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, filepath.Join(d, l.file()))
	}
	return out
}

func (l Locator) Resolve() (string, error) {
	candidates := l.Candidates()
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}
	name := l.file()
	if l.Override != "" {
		name = filepath.Base(l.Override)
	}
	return "", &ModelNotFoundError{File: name, Searched: candidates}
}

// DefaultSearchDirs returns the bundled resource dirs, the project-local
// models dir and the user data dir, in that order.
func DefaultSearchDirs() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		base := filepath.Dir(exe)
		dirs = append(dirs,
			filepath.Join(base, "..", "Resources", "models"),
			filepath.Join(base, "models"),
		)
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, filepath.Join(wd, "models"))
	}
	if d := userDataDir(); d != "" {
		dirs = append(dirs, d)
	}
	return dirs
}

func userDataDir() string {
	if x := os.Getenv("XDG_DATA_HOME"); x != "" {
		return filepath.Join(x, "dictator")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "dictator")
}
