// Package report renders valuation results into Excel workbooks and CSV
// documents. Builders format the engine's output only — every figure in
// a report comes from the ValuationResult, never from a re-derived
// formula, so exports always agree with the interactive path.
package report

import "github.com/sirupsen/logrus"

// Notifier receives progress messages while a report is being built.
// It is injected by the caller (a UI pushes toasts, the CLI prints,
// tests capture) instead of living as a global status singleton.
type Notifier interface {
	Notify(message, level string)
}

// NopNotifier discards all progress messages.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(string, string) {}

// LogNotifier forwards progress messages to the structured logger.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(message, level string) {
	entry := logrus.WithField("component", "report")
	switch level {
	case "error":
		entry.Error(message)
	case "warn":
		entry.Warn(message)
	default:
		entry.Info(message)
	}
}
