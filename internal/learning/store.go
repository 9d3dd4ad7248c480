package learning

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	eventsFilename   = "feedback_events.jsonl"
	snapshotFilename = "weights_snapshot.json"

	storeFilePerm = 0o644
	storeDirPerm  = 0o750
)

// Event is one recorded user verdict. Events are append-only; replaying the
// full log against the default prior reconstructs the weight state.
type Event struct {
	ID        string             `json:"id"`
	ItemKey   string             `json:"item_key"`
	Verdict   string             `json:"verdict"`
	Signals   map[string]float64 `json:"signals,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Snapshot is a periodic checkpoint of the replayed weight state. EventCount
// records how many log events the snapshot already covers, so recovery only
// replays the tail.
type Snapshot struct {
	Weights       map[string]float64 `json:"weights"`
	Support       map[string]int     `json:"support"`
	TotalFeedback int                `json:"total_feedback"`
	CorrectCount  int                `json:"correct_count"`
	EventCount    int                `json:"event_count"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Store persists the feedback event log and weight snapshots.
type Store interface {
	// AppendEvent durably appends one event to the log.
	AppendEvent(ev Event) error

	// Events returns the full event log in append order.
	Events() ([]Event, error)

	// SaveSnapshot atomically replaces the current snapshot.
	SaveSnapshot(snap Snapshot) error

	// LoadSnapshot returns the current snapshot, or nil when none exists.
	LoadSnapshot() (*Snapshot, error)
}

// FileStore keeps the event log as a JSONL file and the snapshot as a JSON
// file inside a state directory. Writes are serialized by the engine's
// single-writer discipline; the internal mutex additionally guards against
// concurrent stores sharing one directory within a process.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates (if needed) the state directory and returns a store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("state directory cannot be empty")
	}
	if err := os.MkdirAll(dir, storeDirPerm); err != nil {
		return nil, fmt.Errorf("cannot create state directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) eventsPath() string   { return filepath.Join(s.dir, eventsFilename) }
func (s *FileStore) snapshotPath() string { return filepath.Join(s.dir, snapshotFilename) }

// AppendEvent appends one JSON line to the event log. The line is written
// with a single write call so concurrent appends cannot interleave.
func (s *FileStore) AppendEvent(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode feedback event: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(s.eventsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, storeFilePerm)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append feedback event: %w", err)
	}
	return nil
}

// Events reads the full event log. A missing log file is an empty log.
func (s *FileStore) Events() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.eventsPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("corrupt feedback event at line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return events, nil
}

// SaveSnapshot writes the snapshot to a temp file and renames it into place.
func (s *FileStore) SaveSnapshot(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, snapshotFilename+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.snapshotPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the current snapshot. Reads race the rename in
// SaveSnapshot when another process swaps the file, so the read is retried a
// few times before giving up.
func (s *FileStore) LoadSnapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap *Snapshot
	err := retry.Do(
		func() error {
			data, err := os.ReadFile(s.snapshotPath())
			if os.IsNotExist(err) {
				snap = nil
				return nil
			}
			if err != nil {
				return err
			}
			var decoded Snapshot
			if err := json.Unmarshal(data, &decoded); err != nil {
				return err
			}
			snap = &decoded
			return nil
		},
		retry.Attempts(3),
		retry.Delay(10*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// MemoryStore is an in-process Store used by tests and by callers that do not
// need persistence.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	snap   *Snapshot
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AppendEvent(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *MemoryStore) Events() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

func (s *MemoryStore) SaveSnapshot(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = &snap
	return nil
}

func (s *MemoryStore) LoadSnapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, nil
	}
	copied := *s.snap
	return &copied, nil
}
