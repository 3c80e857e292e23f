// Package audit keeps a bounded in-memory trail of changes made to the
// stored network.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionImport Action = "import"
	ActionClear  Action = "clear"
)

type ResourceType string

const (
	ResourceNode    ResourceType = "node"
	ResourceRoute   ResourceType = "route"
	ResourceDataset ResourceType = "dataset"
)

// Event is one recorded change.
type Event struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Action       Action         `json:"action"`
	ResourceType ResourceType   `json:"resourceType"`
	ResourceID   string         `json:"resourceId,omitempty"`
	RequestID    string         `json:"requestId,omitempty"`
	IPAddress    string         `json:"ipAddress,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (e *Event) String() string {
	return fmt.Sprintf("[%s] %s %s %s (ip: %s)",
		e.Timestamp.Format(time.RFC3339), e.Action, e.ResourceType, e.ResourceID, e.IPAddress)
}

// Filter selects events; zero fields match everything.
type Filter struct {
	Action       Action
	ResourceType ResourceType
	ResourceID   string
	Since        time.Time
}

func (f Filter) matches(e *Event) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ResourceType != "" && e.ResourceType != f.ResourceType {
		return false
	}
	if f.ResourceID != "" && e.ResourceID != f.ResourceID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

const DefaultBufferSize = 1000

// Logger is a circular buffer of events. Once full, the oldest event is
// overwritten.
type Logger struct {
	mu         sync.RWMutex
	events     []*Event
	bufferSize int
	index      int
	count      int
	total      int64
}

func NewLogger(bufferSize int) *Logger {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Logger{events: make([]*Event, bufferSize), bufferSize: bufferSize}
}

// Log stores e, filling in ID and Timestamp when unset.
func (l *Logger) Log(e *Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events[l.index] = e
	l.index = (l.index + 1) % l.bufferSize
	if l.count < l.bufferSize {
		l.count++
	}
	l.total++
}

// Recent returns up to limit matching events, newest first. A limit <= 0
// returns every match.
func (l *Logger) Recent(f Filter, limit int) []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Event, 0, l.count)
	for i := 0; i < l.count; i++ {
		e := l.events[(l.index-1-i+l.bufferSize)%l.bufferSize]
		if !f.matches(e) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Count is the number of events currently retained.
func (l *Logger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Total is the number of events ever logged, including overwritten ones.
func (l *Logger) Total() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}
