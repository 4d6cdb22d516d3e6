package pass

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
)

// NewFullscreenQuad uploads the screen-covering quad drawn by the resolve pass:
// 4 vertices in the common vertex layout and 6 indices.
//
// Parameters:
//   - ctx: the GPU context to create the buffers on
//
// Returns:
//   - model.Model: the uploaded quad, released by the caller
//   - error: an error if the buffers cannot be created
func NewFullscreenQuad(ctx gpu.Context) (model.Model, error) {
	quad := model.NewModel(model.WithName("fullscreen quad"), model.WithMesh(model.FullscreenQuad()))
	if err := quad.Init(ctx); err != nil {
		return nil, err
	}
	return quad, nil
}
