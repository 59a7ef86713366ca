// Package warnings collects advisory messages produced while extracting.
package warnings

import (
	"fmt"
	"sync"
)

// List append-only list of warnings, safe for concurrent use.
type List struct {
	mu   sync.Mutex
	msgs []string
}

// Add appends a formatted warning.
func (l *List) Add(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
}

// Messages returns a copy of the warnings in the order they were added.
func (l *List) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

// Len returns the number of warnings.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}
