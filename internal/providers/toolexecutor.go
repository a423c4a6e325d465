package providers

import (
	"context"

	"github.com/vianexus/agent-sdk-go/internal/orchestrator"
	"github.com/vianexus/agent-sdk-go/internal/toolchannel"
)

// ToolChannelExecutor adapts a *toolchannel.Manager to
// orchestrator.ToolExecutor.
type ToolChannelExecutor struct {
	manager *toolchannel.Manager
}

// NewToolChannelExecutor wraps manager for use by the orchestrator.
func NewToolChannelExecutor(manager *toolchannel.Manager) *ToolChannelExecutor {
	return &ToolChannelExecutor{manager: manager}
}

func (e *ToolChannelExecutor) Invoke(ctx context.Context, name string, arguments map[string]any) (string, bool, error) {
	return e.manager.Invoke(ctx, name, arguments)
}

func (e *ToolChannelExecutor) Tools() []orchestrator.ToolSpecDescriptor {
	descriptors := e.manager.Tools()
	out := make([]orchestrator.ToolSpecDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, orchestrator.ToolSpecDescriptor{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema,
		})
	}
	return out
}
