package logger

import "sync"

// Entry is one captured log call.
type Entry struct {
	Level   string
	Module  string
	Message string
	Details map[string]interface{}
}

// MemoryLogger keeps every entry in memory so tests can assert on warnings.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) record(level, module, message string, details map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Module: module, Message: message, Details: details})
}

func (m *MemoryLogger) Debug(module, message string, details map[string]interface{}) {
	m.record("DEBUG", module, message, details)
}

func (m *MemoryLogger) Info(module, message string, details map[string]interface{}) {
	m.record("INFO", module, message, details)
}

func (m *MemoryLogger) Warn(module, message string, details map[string]interface{}) {
	m.record("WARN", module, message, details)
}

func (m *MemoryLogger) Error(module, message string, details map[string]interface{}) {
	m.record("ERROR", module, message, details)
}

func (m *MemoryLogger) Sync() error { return nil }

// Entries returns a copy of the entries logged at level, or all entries when level is empty.
func (m *MemoryLogger) Entries(level string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Entry
	for _, e := range m.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
