package rack

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-rack/rack/fifo"
)

// FatalFunc handles unrecoverable host conditions. It is expected not to
// return.
type FatalFunc func(msg string, err error)

// Config holds the settings a Context is constructed against.
type Config struct {
	Channels      int
	SampleRate    float64
	BufferSize    int
	QueueCapacity int

	Loader Loader
	Ports  PortRegistrar
	Logger *slog.Logger
	Fatal  FatalFunc
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns a stereo 48 kHz configuration with 1024-frame
// cycles and no loader or port registrar.
func DefaultConfig() Config {
	return Config{
		Channels:      2,
		SampleRate:    48000,
		BufferSize:    1024,
		QueueCapacity: fifo.DefaultCapacity,
	}
}

// WithChannels sets the host channel count.
func WithChannels(channels int) Option {
	return func(cfg *Config) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBufferSize sets the number of frames per cycle.
func WithBufferSize(frames int) Option {
	return func(cfg *Config) {
		if frames > 0 {
			cfg.BufferSize = frames
		}
	}
}

// WithQueueCapacity sets the slot count of every parameter queue.
func WithQueueCapacity(capacity int) Option {
	return func(cfg *Config) {
		if capacity > 0 {
			cfg.QueueCapacity = capacity
		}
	}
}

// WithLoader sets the module loader used by Instantiate.
func WithLoader(l Loader) Option {
	return func(cfg *Config) { cfg.Loader = l }
}

// WithPorts enables auxiliary routing through the given registrar.
func WithPorts(r PortRegistrar) Option {
	return func(cfg *Config) { cfg.Ports = r }
}

// WithLogger sets the control-path logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *Config) { cfg.Logger = l }
}

// WithFatalHandler replaces the handler invoked on unrecoverable
// conditions. The default logs and panics.
func WithFatalHandler(f FatalFunc) Option {
	return func(cfg *Config) { cfg.Fatal = f }
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Fatal == nil {
		cfg.Fatal = panicFatal(cfg.Logger)
	}

	return cfg
}

func panicFatal(logger *slog.Logger) FatalFunc {
	return func(msg string, err error) {
		logger.Error(msg, "err", err)
		panic(fmt.Sprintf("rack: %s: %v", msg, err))
	}
}

func (cfg Config) validate() error {
	if cfg.Channels <= 0 {
		return fmt.Errorf("%w: %d channels", ErrConfig, cfg.Channels)
	}

	if cfg.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %v", ErrConfig, cfg.SampleRate)
	}

	if cfg.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer size %d", ErrConfig, cfg.BufferSize)
	}

	return nil
}
