// Package audit holds implementations of swimcore.Logger: the observable
// event sink every node writes "node added" / "node removed" events and
// free-form diagnostics to.
package audit

import (
	"log/slog"

	"swimcore"
)

// Text logs every event through log/slog at the process's configured
// default level (see swimcore's logging package for how that default
// gets installed). It is the logger a CLI run or a quick scenario test
// reaches for first.
type Text struct {
	logger *slog.Logger
}

// NewText wraps logger, or slog.Default() if logger is nil.
func NewText(logger *slog.Logger) *Text {
	if logger == nil {
		logger = slog.Default()
	}
	return &Text{logger: logger}
}

func (t *Text) LogNodeAdded(self, peer swimcore.Address) {
	t.logger.Info("node added", "self", self.String(), "peer", peer.String())
}

func (t *Text) LogNodeRemoved(self, peer swimcore.Address) {
	t.logger.Info("node removed", "self", self.String(), "peer", peer.String())
}

func (t *Text) Log(self swimcore.Address, message string) {
	t.logger.Debug(message, "self", self.String())
}
