package log

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is the interface the application components use to log.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	// WithValues returns a logger that stamps every line with the given
	// key/value context.
	WithValues(values map[string]interface{}) Logger
}

// Dummy is a no-op logger.
var Dummy = &dummy{}

type dummy struct{}

func (d *dummy) Infof(format string, args ...interface{})  {}
func (d *dummy) Warnf(format string, args ...interface{})  {}
func (d *dummy) Errorf(format string, args ...interface{}) {}
func (d *dummy) Debugf(format string, args ...interface{}) {}
func (d *dummy) WithValues(map[string]interface{}) Logger  { return d }

// Config is the configuration of the default logger.
type Config struct {
	Output io.Writer
	Debug  bool
}

type logger struct {
	zerolog.Logger
}

// New returns a zerolog based logger.
func New(cfg Config) Logger {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: cfg.Output}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
	if cfg.Debug {
		zl = zl.Level(zerolog.DebugLevel)
	}

	return logger{Logger: zl}
}

func (l logger) Infof(format string, args ...interface{}) {
	l.Info().Msgf(format, args...)
}

func (l logger) Warnf(format string, args ...interface{}) {
	l.Warn().Msgf(format, args...)
}

func (l logger) Errorf(format string, args ...interface{}) {
	l.Error().Msgf(format, args...)
}

func (l logger) Debugf(format string, args ...interface{}) {
	l.Debug().Msgf(format, args...)
}

func (l logger) WithValues(values map[string]interface{}) Logger {
	return logger{Logger: l.Logger.With().Fields(values).Logger()}
}
