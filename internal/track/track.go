// Package track persists small per-player flags that outlive a round,
// such as whether the extended game instructions have ever been shown.
package track

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Tracker records facts about the player that span rounds. The dialogue
// engine reads IntroShown when seeding the welcome message and marks it
// after showing the extended instructions once.
type Tracker interface {
	IntroShown() bool
	MarkIntroShown()
}

// Memory is an in-memory Tracker. Zero value is ready to use; every
// fresh instance reports an unseen intro. Safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	shown bool
}

// Compile-time check that *Memory satisfies [Tracker].
var _ Tracker = (*Memory)(nil)

// IntroShown implements [Tracker].
func (m *Memory) IntroShown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown
}

// MarkIntroShown implements [Tracker].
func (m *Memory) MarkIntroShown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shown = true
}

// state is the JSON shape persisted by File.
type state struct {
	ShownInstruction bool `json:"shown_instruction"`
}

// File persists flags to a small JSON file. Reads happen once at open;
// writes happen synchronously on change. Safe for concurrent use.
type File struct {
	path string

	mu sync.Mutex
	st state
}

// Compile-time check that *File satisfies [Tracker].
var _ Tracker = (*File)(nil)

// OpenFile loads (or initialises) the state file at path. A missing file
// is not an error; it simply means a brand-new player.
func OpenFile(path string) (*File, error) {
	f := &File{path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("track: read %q: %w", path, err)
	}

	if err := json.Unmarshal(data, &f.st); err != nil {
		return nil, fmt.Errorf("track: parse %q: %w", path, err)
	}
	return f, nil
}

// IntroShown implements [Tracker].
func (f *File) IntroShown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st.ShownInstruction
}

// MarkIntroShown implements [Tracker]. The flag is persisted immediately;
// a write failure keeps the in-memory flag set so the instructions are
// not repeated within this process.
func (f *File) MarkIntroShown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.st.ShownInstruction {
		return
	}
	f.st.ShownInstruction = true
	f.saveLocked()
}

// saveLocked writes the state file, creating parent directories as needed.
func (f *File) saveLocked() {
	data, err := json.Marshal(f.st)
	if err != nil {
		return
	}
	if dir := filepath.Dir(f.path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	_ = os.WriteFile(f.path, data, 0o644)
}
