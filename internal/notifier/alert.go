package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Alert is a titled, user-facing message.
type Alert struct {
	Title string
	Body  string
}

// Alerter shows an alert to the user.
type Alerter interface {
	Alert(ctx context.Context, a Alert) error
}

// ConsoleAlerter prints alerts as a boxed block, the terminal stand-in for a modal dialog.
type ConsoleAlerter struct {
	mu  sync.Mutex
	Out io.Writer
}

// NewConsoleAlerter writes alerts to out.
func NewConsoleAlerter(out io.Writer) *ConsoleAlerter {
	return &ConsoleAlerter{Out: out}
}

func (c *ConsoleAlerter) Alert(_ context.Context, a Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	rule := strings.Repeat("─", 48)
	b.WriteString(rule + "\n")
	b.WriteString(fmt.Sprintf("  %s\n", a.Title))
	b.WriteString(rule + "\n")
	for _, line := range strings.Split(a.Body, "\n") {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString(rule + "\n")
	_, err := io.WriteString(c.Out, b.String())
	return err
}

// MultiAlerter fans an alert out to every alerter and joins their errors.
type MultiAlerter []Alerter

func (m MultiAlerter) Alert(ctx context.Context, a Alert) error {
	var errs []error
	for _, al := range m {
		if err := al.Alert(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemoryAlerter keeps alerts in memory. Useful in tests.
type MemoryAlerter struct {
	mu     sync.Mutex
	Alerts []Alert
}

func (r *MemoryAlerter) Alert(_ context.Context, a Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Alerts = append(r.Alerts, a)
	return nil
}

// Titles returns the titles of the recorded alerts in order.
func (r *MemoryAlerter) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, len(r.Alerts))
	for i, a := range r.Alerts {
		titles[i] = a.Title
	}
	return titles
}
