// Package minilog is the per-render message log templates read through the
// log global (flash messages, warnings, debug notes).
package minilog

import (
	"strings"
	"sync"
	"time"
)

// Level of a message, lowest first.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelNotice
	LevelWarning
	LevelError
	LevelCritical
)

var levelNames = [...]string{"debug", "info", "notice", "warning", "error", "critical"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelCritical {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLevel accepts the lower-case names returned by String.
func ParseLevel(name string) (Level, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range levelNames {
		if candidate == name {
			return Level(i), true
		}
	}
	return 0, false
}

// Entry is one logged message.
type Entry struct {
	Channel string
	Level   Level
	Message string
	Context map[string]any
	Time    time.Time
}

// Sink receives every entry as it is logged.
type Sink func(Entry)

// Log is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	channel string
	entries []Entry
	sink    Sink
	now     func() time.Time
}

// New returns an empty log for channel. sink may be nil.
func New(channel string, sink Sink) *Log {
	if strings.TrimSpace(channel) == "" {
		channel = "master"
	}
	return &Log{channel: channel, sink: sink, now: time.Now}
}

func (l *Log) Debug(message string, ctx ...map[string]any)    { l.Add(LevelDebug, message, ctx...) }
func (l *Log) Info(message string, ctx ...map[string]any)     { l.Add(LevelInfo, message, ctx...) }
func (l *Log) Notice(message string, ctx ...map[string]any)   { l.Add(LevelNotice, message, ctx...) }
func (l *Log) Warning(message string, ctx ...map[string]any)  { l.Add(LevelWarning, message, ctx...) }
func (l *Log) Error(message string, ctx ...map[string]any)    { l.Add(LevelError, message, ctx...) }
func (l *Log) Critical(message string, ctx ...map[string]any) { l.Add(LevelCritical, message, ctx...) }

// Add records a message. Context maps are merged left to right.
func (l *Log) Add(level Level, message string, ctx ...map[string]any) {
	if l == nil || strings.TrimSpace(message) == "" {
		return
	}
	var merged map[string]any
	for _, c := range ctx {
		for k, v := range c {
			if merged == nil {
				merged = make(map[string]any, len(c))
			}
			merged[k] = v
		}
	}
	entry := Entry{Channel: l.channel, Level: level, Message: message, Context: merged, Time: l.now()}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		sink(entry)
	}
}

// Read returns entries in logging order, filtered to the named levels when
// any are given.
func (l *Log) Read(levels ...string) []Entry {
	if l == nil {
		return []Entry{}
	}
	var allowed map[Level]bool
	for _, name := range levels {
		if level, ok := ParseLevel(name); ok {
			if allowed == nil {
				allowed = make(map[Level]bool, len(levels))
			}
			allowed[level] = true
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if len(levels) > 0 && !allowed[e.Level] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Messages returns only the message text of Read(levels...).
func (l *Log) Messages(levels ...string) []string {
	entries := l.Read(levels...)
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

// Clear drops all entries.
func (l *Log) Clear() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
