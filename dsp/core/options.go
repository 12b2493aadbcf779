package core

import "fmt"

// DefaultQuantum is the number of frames in one render quantum. Parameter
// changes queued by a host are applied at quantum boundaries.
const DefaultQuantum = 128

// RenderConfig defines the settings of one rendering context.
type RenderConfig struct {
	SampleRate float64
	Channels   int
	Quantum    int
}

// RenderOption mutates a RenderConfig.
type RenderOption func(*RenderConfig)

// DefaultRenderConfig returns a stereo 48 kHz config with the default quantum.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		SampleRate: 48000,
		Channels:   2,
		Quantum:    DefaultQuantum,
	}
}

// WithSampleRate sets the rendering sample rate. See [RenderConfig.Validate].
func WithSampleRate(sampleRate float64) RenderOption {
	return func(cfg *RenderConfig) { cfg.SampleRate = sampleRate }
}

// WithChannels sets the channel count.
func WithChannels(channels int) RenderOption {
	return func(cfg *RenderConfig) { cfg.Channels = channels }
}

// WithQuantum sets the render quantum size in frames.
func WithQuantum(frames int) RenderOption {
	return func(cfg *RenderConfig) { cfg.Quantum = frames }
}

// Validate reports the first field a context cannot render with.
func (cfg RenderConfig) Validate() error {
	switch {
	case cfg.SampleRate <= 0 || !IsFinite(cfg.SampleRate):
		return fmt.Errorf("sample rate must be positive and finite: %f", cfg.SampleRate)
	case cfg.Channels <= 0:
		return fmt.Errorf("channel count must be positive: %d", cfg.Channels)
	case cfg.Quantum <= 0:
		return fmt.Errorf("quantum must be positive: %d", cfg.Quantum)
	}

	return nil
}

// ApplyRenderOptions applies zero or more options to the default config.
func ApplyRenderOptions(opts ...RenderOption) RenderConfig {
	cfg := DefaultRenderConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
