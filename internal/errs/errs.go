// Package errs defines the sentinel error kinds from the fault model:
// faults local to one epoch or one metric never stop the pipeline,
// faults against the driver session pause it, and only a config
// failure or an explicit quit ends the process.
package errs

import "errors"

var (
	// ErrConfig marks a fatal startup misconfiguration.
	ErrConfig = errors.New("config error")
	// ErrDevice marks a driver session or stream failure.
	ErrDevice = errors.New("device error")
	// ErrDsp marks a numeric failure isolated to one channel/metric.
	ErrDsp = errors.New("dsp error")
	// ErrSink marks a fan-out delivery failure.
	ErrSink = errors.New("sink error")
	// ErrProtocol marks a malformed control-channel message.
	ErrProtocol = errors.New("protocol error")
)

// Config wraps err as a ConfigError with context.
func Config(format string, err error) error {
	return wrap(ErrConfig, format, err)
}

// Device wraps err as a DeviceError with context.
func Device(format string, err error) error {
	return wrap(ErrDevice, format, err)
}

// Dsp wraps err as a DspError with context.
func Dsp(format string, err error) error {
	return wrap(ErrDsp, format, err)
}

// Sink wraps err as a SinkError with context.
func Sink(format string, err error) error {
	return wrap(ErrSink, format, err)
}

// Protocol wraps err as a ProtocolError with context.
func Protocol(format string, err error) error {
	return wrap(ErrProtocol, format, err)
}

func wrap(kind error, msg string, err error) error {
	if err == nil {
		return &kindErr{kind: kind, msg: msg}
	}

	return &kindErr{kind: kind, msg: msg + ": " + err.Error(), cause: err}
}

type kindErr struct {
	kind  error
	msg   string
	cause error
}

func (e *kindErr) Error() string { return e.msg }

func (e *kindErr) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}

	return []error{e.kind, e.cause}
}
