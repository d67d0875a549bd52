// Package compiledb implements the command-record table: an append-only
// list of compile commands serialized to compile_commands.json
// on completion, grounded on goplus-llar's buildCache
// append-then-serialize shape (internal/build/cache.go accumulates records
// in memory during a run and writes them out once at the end).
package compiledb

import (
	"encoding/json"
	"os"
	"sync"
)

// Command is one compile_commands.json entry.
type Command struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments"`
}

// Table is the shared, append-only command-record table: every executor
// worker calls Add concurrently, so access is guarded by a mutex.
type Table struct {
	mu       sync.Mutex
	commands []Command
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{}
}

// Add appends cmd to the table.
func (t *Table) Add(cmd Command) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commands = append(t.commands, cmd)
}

// Len reports how many commands have been recorded.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.commands)
}

// WriteFile serializes the table to path as a JSON array, but only if at
// least one command was recorded.
func (t *Table) WriteFile(path string) error {
	t.mu.Lock()
	commands := make([]Command, len(t.commands))
	copy(commands, t.commands)
	t.mu.Unlock()

	if len(commands) == 0 {
		return nil
	}

	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
