package light

// ClusteredLightsBuilderOption configures the clustering stage during NewClusteredLights.
type ClusteredLightsBuilderOption func(*clusteredLights)

// WithLights sets the initial light list.
//
// Parameters:
//   - lights: the lights to cluster
//
// Returns:
//   - ClusteredLightsBuilderOption: a function that sets the light list
func WithLights(lights ...Light) ClusteredLightsBuilderOption {
	return func(cl *clusteredLights) {
		cl.lights = append(cl.lights, lights...)
	}
}

// WithLabel sets the label prefix of the stage's layout, buffers and pipeline.
func WithLabel(label string) ClusteredLightsBuilderOption {
	return func(cl *clusteredLights) {
		if label != "" {
			cl.label = label
		}
	}
}
