package wizard

import "log/slog"

type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notifier receives the short operator messages the wizard emits on
// transitions and failures.
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

// SlogNotifier writes notices to a slog.Logger. A nil Logger uses slog.Default.
type SlogNotifier struct {
	Logger *slog.Logger
}

func (n SlogNotifier) Notify(kind NoticeKind, message string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch kind {
	case NoticeError:
		logger.Error(message)
	default:
		logger.Info(message, "kind", string(kind))
	}
}

type discardNotifier struct{}

func (discardNotifier) Notify(NoticeKind, string) {}
