// Package memory keeps the conversation log shared by every session of the process.
package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/termination"
)

const (
	HistoryHeader = "[Conversation history]"
	HistoryFooter = "[End of history]"
	EmptyHistory  = "No conversation history."
)

type Entry struct {
	Seq     int       `json:"seq"`
	Source  string    `json:"source"`
	Content string    `json:"content"`
	AddedAt time.Time `json:"added_at"`
}

// Log is append-only. Content carrying the termination phrase is never stored.
type Log struct {
	mu       sync.RWMutex
	detector termination.Detector
	entries  []Entry
	nextSeq  int
	now      func() time.Time
}

func New(detector termination.Detector) *Log {
	return &Log{
		detector: detector,
		nextSeq:  1,
		now:      time.Now,
	}
}

// Add stores content under source and reports whether it was kept.
func (l *Log) Add(content, source string) bool {
	content = strings.TrimSpace(content)
	if content == "" || l.detector.Match(content) {
		return false
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		Seq:     l.nextSeq,
		Source:  source,
		Content: content,
		AddedAt: l.now().UTC(),
	})
	l.nextSeq++
	return true
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Project renders the retained entries in insertion order.
func (l *Log) Project() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return EmptyHistory
	}

	var b strings.Builder
	b.WriteString(HistoryHeader)
	b.WriteByte('\n')
	for _, e := range l.entries {
		b.WriteString("- ")
		b.WriteString(e.Source)
		b.WriteString(": ")
		b.WriteString(e.Content)
		b.WriteByte('\n')
	}
	b.WriteString(HistoryFooter)
	return b.String()
}
