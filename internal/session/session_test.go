package session

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_CreatesOnFirstAccess(t *testing.T) {
	s := NewStore()
	conv := s.Get("thread-1")
	if conv == nil || conv.ID != "thread-1" {
		t.Fatalf("unexpected conversation: %+v", conv)
	}
	if s.Get("thread-1") != conv {
		t.Error("second access must return the same conversation")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 conversation, got %d", s.Len())
	}
}

func TestStore_EmptyThreadIDGetsGenerated(t *testing.T) {
	s := NewStore()
	conv := s.Get("")
	if conv.ID == "" {
		t.Error("empty thread id should receive a generated id")
	}
}

func TestConversation_AppendAndSnapshot(t *testing.T) {
	s := NewStore()
	s.Append("t", Message{Role: "user", Content: "hallo"})
	s.Append("t", Message{Role: "assistant", Content: "hi", AuthoredBy: "general"})

	snap := s.Get("t").Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(snap))
	}
	if snap[1].AuthoredBy != "general" {
		t.Errorf("authored_by not preserved: %+v", snap[1])
	}
	if snap[0].Timestamp.IsZero() {
		t.Error("timestamp should be set on append")
	}

	// Snapshot must be a copy.
	snap[0].Content = "mutated"
	if s.Get("t").Snapshot()[0].Content != "hallo" {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestStore_ConcurrentThreadsDoNotInterfere(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("thread-%d", i%4)
			for j := 0; j < 50; j++ {
				s.Append(id, Message{Role: "user", Content: "x"})
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < 4; i++ {
		total += s.Get(fmt.Sprintf("thread-%d", i)).Len()
	}
	if total != 16*50 {
		t.Errorf("lost messages: got %d, want %d", total, 16*50)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	s := NewStore()
	s.SetSink(fs)
	s.Append("claims-42", Message{Role: "user", Content: "Was steht in der neuesten E-Mail?"})
	s.Append("claims-42", Message{Role: "assistant", Content: "Zwei neue Nachrichten.", AuthoredBy: "triage_worker"})

	loaded, err := fs.Load("claims-42")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(loaded))
	}
	if loaded[1].AuthoredBy != "triage_worker" {
		t.Errorf("authored_by lost in persistence: %+v", loaded[1])
	}

	threads, err := fs.Threads()
	if err != nil || len(threads) != 1 || threads[0] != "claims-42" {
		t.Errorf("unexpected threads: %v (%v)", threads, err)
	}
}

func TestFileStore_MissingThread(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	msgs, err := fs.Load("nope")
	if err != nil || msgs != nil {
		t.Errorf("missing thread should load empty: %v %v", msgs, err)
	}
}
