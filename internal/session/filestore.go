package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// record is one JSONL line of a conversation file. Type discriminates
// headers from messages so the format can grow without breaking readers.
type record struct {
	Type       string    `json:"_type"` // header, message
	ThreadID   string    `json:"thread_id,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	Role       string    `json:"role,omitempty"`
	Content    string    `json:"content,omitempty"`
	AuthoredBy string    `json:"authored_by,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

// FileStore mirrors conversations to one JSONL file per thread. It is an
// optional durability layer; the in-memory store stays authoritative.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the storage directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating conversation directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Append implements Sink. The first append for a thread writes a header
// line before the message.
func (f *FileStore) Append(threadID string, m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.path(threadID)
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	if fresh {
		if err := writeRecord(file, record{
			Type:      "header",
			ThreadID:  threadID,
			CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
	}

	return writeRecord(file, record{
		Type:       "message",
		Role:       m.Role,
		Content:    m.Content,
		AuthoredBy: m.AuthoredBy,
		Timestamp:  m.Timestamp,
	})
}

// Load reads a persisted conversation. Unparseable lines are skipped so a
// torn tail write cannot make a whole thread unreadable.
func (f *FileStore) Load(threadID string) ([]Message, error) {
	file, err := os.Open(f.path(threadID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var messages []Message
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec.Type != "message" {
			continue
		}
		messages = append(messages, Message{
			Role:       rec.Role,
			Content:    rec.Content,
			AuthoredBy: rec.AuthoredBy,
			Timestamp:  rec.Timestamp,
		})
	}
	return messages, scanner.Err()
}

// Threads lists all persisted thread ids.
func (f *FileStore) Threads() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".jsonl"))
	}
	return ids, nil
}

func (f *FileStore) path(threadID string) string {
	return filepath.Join(f.dir, sanitize(threadID)+".jsonl")
}

// sanitize keeps thread ids usable as file names.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

func writeRecord(file *os.File, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = file.Write(data)
	return err
}
