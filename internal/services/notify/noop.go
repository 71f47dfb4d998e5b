package notify

import "github.com/ternarybob/mbedbridge/internal/interfaces"

// Noop accepts every toolchain notification and discards it. The build
// orchestrator reports progress on its own.
type Noop struct{}

var _ interfaces.Notifier = Noop{}

// NewNoop creates a notifier that discards everything
func NewNoop() Noop {
	return Noop{}
}

func (Noop) Info(string) {}
func (Noop) Debug(string) {}
func (Noop) Warning(string) {}
func (Noop) Progress(string, string, float64) {}
func (Noop) ToolchainCommand(string) {}
