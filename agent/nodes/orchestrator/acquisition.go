package orchestratornode

import (
	"sort"
	"strings"
	"sync"
)

const (
	AcquisitionHeader = "[Data acquisition status]"
	NoAcquisitions    = "No data has been acquired yet."
)

// AcquisitionLog remembers which subject/period artifacts were persisted
// during the process lifetime.
type AcquisitionLog struct {
	mu     sync.RWMutex
	status map[string]bool
}

func NewAcquisitionLog() *AcquisitionLog {
	return &AcquisitionLog{status: make(map[string]bool)}
}

func (a *AcquisitionLog) Mark(key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status[key] = true
}

func (a *AcquisitionLog) Acquired(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status[key]
}

func (a *AcquisitionLog) Snapshot() map[string]bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]bool, len(a.status))
	for k, v := range a.status {
		out[k] = v
	}
	return out
}

// Render lists keys in lexical order so the prompt is stable between turns.
func (a *AcquisitionLog) Render() string {
	snap := a.Snapshot()

	var b strings.Builder
	b.WriteString(AcquisitionHeader)
	b.WriteByte('\n')
	if len(snap) == 0 {
		b.WriteString(NoAcquisitions)
		return b.String()
	}

	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		state := "not acquired"
		if snap[k] {
			state = "acquired"
		}
		b.WriteString("- ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(state)
	}
	return b.String()
}
