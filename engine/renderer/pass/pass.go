// Package pass records the two render passes of a clustered-deferred frame: the
// geometry pass that fills the G-buffer, and the resolve pass that lights it onto
// the surface. Each pass is recorded into its own command buffer and submitted on
// its own.
package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
)

// Stats counts the draw work recorded by one pass.
type Stats struct {
	Draws   int
	Indices int
}

// Submit records one command buffer and submits it. The encoder and command buffer
// are released after submission; a finish failure submits nothing.
//
// Parameters:
//   - ctx: the GPU context whose queue receives the work
//   - label: the command encoder label
//   - record: records the passes
//
// Returns:
//   - error: an error if the encoder could not be created or finished
func Submit(ctx gpu.Context, label string, record func(encoder gpu.CommandEncoder)) error {
	encoder, err := ctx.CreateCommandEncoder(label)
	if err != nil {
		return fmt.Errorf("%s: create command encoder: %w", label, err)
	}
	defer encoder.Release()

	record(encoder)

	commandBuffer, err := encoder.Finish()
	if err != nil {
		return fmt.Errorf("%s: finish: %w", label, err)
	}
	ctx.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}
