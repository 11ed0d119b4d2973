package ollama

import (
	"context"

	"github.com/acrobyte007/Sustainability/internal/infrastructure/resilience"
)

// call runs one request through the executor and tags retryable failures
// as temporary.
func (c *Client) call(ctx context.Context, operation, path string, payload, out any) error {
	err := c.executor.Execute(ctx, "ollama."+operation, func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, payload, out, operation)
	}, resilience.ClassifyRemote)
	return resilience.WrapTemporary("ollama "+operation, err)
}
