// Package history keeps every message the display has shown, with how often
// and when it was last shown, in a JSON file.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const fileName = "messages.json"

var ErrNotFound = errors.New("history: message not found")

type Message struct {
	Seq           int       `json:"seq"`
	Content       string    `json:"content"`
	Source        string    `json:"source"`
	GeneratedAt   time.Time `json:"generated_at"`
	DisplayCount  int       `json:"display_count"`
	LastDisplayed time.Time `json:"last_displayed,omitempty"`
}

type Store struct {
	baseDir string
	now     func() time.Time

	mu       sync.Mutex
	loaded   bool
	messages []Message
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) path() string { return filepath.Join(s.baseDir, fileName) }

// Init creates the base directory and loads any existing history.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return err
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return fmt.Errorf("history: decode %s: %w", s.path(), err)
	}
	s.messages = msgs
	s.loaded = true
	return nil
}

// saveLocked writes to a temp file and renames it over the old one.
func (s *Store) saveLocked() error {
	tmp := s.path() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.messages); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path())
}

// AddMessage appends a message and returns its sequence number, starting
// at 1.
func (s *Store) AddMessage(content, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return 0, err
	}
	seq := 1
	if n := len(s.messages); n > 0 {
		seq = s.messages[n-1].Seq + 1
	}
	s.messages = append(s.messages, Message{
		Seq:         seq,
		Content:     content,
		Source:      source,
		GeneratedAt: s.now(),
	})
	if err := s.saveLocked(); err != nil {
		s.messages = s.messages[:len(s.messages)-1]
		return 0, err
	}
	return seq, nil
}

// RecordDisplay bumps the display count and timestamp of seq.
func (s *Store) RecordDisplay(seq int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	i := s.indexLocked(seq)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, seq)
	}
	prev := s.messages[i]
	s.messages[i].DisplayCount++
	s.messages[i].LastDisplayed = s.now()
	if err := s.saveLocked(); err != nil {
		s.messages[i] = prev
		return err
	}
	return nil
}

func (s *Store) GetMessage(seq int) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return Message{}, err
	}
	i := s.indexLocked(seq)
	if i < 0 {
		return Message{}, fmt.Errorf("%w: %d", ErrNotFound, seq)
	}
	return s.messages[i], nil
}

// List returns all messages in sequence order.
func (s *Store) List() ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (s *Store) indexLocked(seq int) int {
	i := sort.Search(len(s.messages), func(i int) bool { return s.messages[i].Seq >= seq })
	if i < len(s.messages) && s.messages[i].Seq == seq {
		return i
	}
	return -1
}
