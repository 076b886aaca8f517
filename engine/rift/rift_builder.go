package rift

// PipelineBuilderOption is a functional option applied to a Pipeline during construction via NewPipeline.
type PipelineBuilderOption func(*riftPipeline)

// WithToggles sets the configuration the first frame renders with.
//
// Parameters:
//   - toggles: the initial configuration
//
// Returns:
//   - PipelineBuilderOption: a function that sets the initial toggles
func WithToggles(toggles Toggles) PipelineBuilderOption {
	return func(p *riftPipeline) {
		p.toggles = toggles
	}
}

// WithKeyBindings replaces the default Super+5 to Super+0 chords.
//
// Parameters:
//   - bindings: the chord for each toggle command
//
// Returns:
//   - PipelineBuilderOption: a function that sets the key bindings
func WithKeyBindings(bindings KeyBindings) PipelineBuilderOption {
	return func(p *riftPipeline) {
		p.bindings = bindings
	}
}

// WithCommandBuffer sets how many toggle commands can queue between two frames.
//
// Parameters:
//   - size: the channel capacity
//
// Returns:
//   - PipelineBuilderOption: a function that sets the command buffer size
func WithCommandBuffer(size int) PipelineBuilderOption {
	return func(p *riftPipeline) {
		p.commandBuffer = size
	}
}
