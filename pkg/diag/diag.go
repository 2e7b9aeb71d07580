// Package diag accumulates per-symbol and per-declaration problems across a
// run so one bad entry never aborts the batch.
package diag

import (
	"errors"
	"fmt"
	"sync"
)

// Severity classifies an Entry.
type Severity uint8

const (
	Warning Severity = iota + 1
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", s)
}

// Entry is one recorded problem. Subject names what it is about, such as a
// mangled symbol or a declaration.
type Entry struct {
	Severity Severity
	Err      error
	Subject  string
}

func (e Entry) String() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", e.Severity, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Severity, e.Subject, e.Err)
}

// Collector is safe for concurrent use. The zero value is ready to use.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty collector.
func New() *Collector {
	return &Collector{}
}

func (c *Collector) add(sev Severity, subject string, err error) {
	if c == nil || err == nil {
		return
	}
	c.mu.Lock()
	c.entries = append(c.entries, Entry{Severity: sev, Err: err, Subject: subject})
	c.mu.Unlock()
}

// Warn records a recoverable problem.
func (c *Collector) Warn(subject string, err error) { c.add(Warning, subject, err) }

// Error records a problem the caller may treat as fatal.
func (c *Collector) Error(subject string, err error) { c.add(Error, subject, err) }

// Len is the number of recorded entries.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Collector) count(sev Severity) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.Severity == sev {
			n++
		}
	}
	return n
}

// ErrorCount is the number of Error entries.
func (c *Collector) ErrorCount() int { return c.count(Error) }

// WarningCount is the number of Warning entries.
func (c *Collector) WarningCount() int { return c.count(Warning) }

func (c *Collector) filter(sev Severity) []Entry {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Entry
	for _, e := range c.entries {
		if sev == 0 || e.Severity == sev {
			out = append(out, e)
		}
	}
	return out
}

// Entries returns a copy of every entry in recording order.
func (c *Collector) Entries() []Entry { return c.filter(0) }

// Errors returns a copy of the Error entries.
func (c *Collector) Errors() []Entry { return c.filter(Error) }

// Warnings returns a copy of the Warning entries.
func (c *Collector) Warnings() []Entry { return c.filter(Warning) }

// Err joins the Error entries, or returns nil when there are none.
func (c *Collector) Err() error {
	entries := c.Errors()
	if len(entries) == 0 {
		return nil
	}
	errs := make([]error, len(entries))
	for i, e := range entries {
		if e.Subject == "" {
			errs[i] = e.Err
			continue
		}
		errs[i] = fmt.Errorf("%s: %w", e.Subject, e.Err)
	}
	return errors.Join(errs...)
}

// Reset drops every entry.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}
