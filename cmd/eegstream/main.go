// Command eegstream is the EEG acquisition-to-feature pipeline's
// entry point: it parses configuration, wires the Ring, DSP Chain,
// Epoch Scheduler, Sink Fan-out, Control Channel and Lifecycle
// Controller together, and runs until a quit command or SIGINT/SIGTERM,
// generalizing the teacher's process-level os.Exit conventions
// (src/appserver.go) to this pipeline's exit-code contract.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/eegstream/eegstream/internal/board"
	"github.com/eegstream/eegstream/internal/config"
	"github.com/eegstream/eegstream/internal/control"
	"github.com/eegstream/eegstream/internal/dsp"
	"github.com/eegstream/eegstream/internal/features"
	"github.com/eegstream/eegstream/internal/lifecycle"
	"github.com/eegstream/eegstream/internal/logging"
	"github.com/eegstream/eegstream/internal/lsl"
	"github.com/eegstream/eegstream/internal/scheduler"
	"github.com/eegstream/eegstream/internal/sink"
	"github.com/eegstream/eegstream/internal/sink/broadcast"
	"github.com/eegstream/eegstream/internal/sink/mqttsink"
	"github.com/eegstream/eegstream/internal/sink/sideband"
	"github.com/eegstream/eegstream/internal/sink/tsdb"
)

// fallbackSamplingRateHz is used to design a session's DSP chain when
// the driver session can't yet report its real rate (board.Unimplemented
// has none; a wired vendor SDK session always does, via
// board.Session.SamplingRate).
const fallbackSamplingRateHz = 250.0

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := config.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := logging.New(os.Stderr, opts.Verbose)

	if opts.SerialPort == "" && opts.AutoDiscoverSerialPort {
		if port, err := board.DiscoverSerialPort(); err != nil {
			logger.Warn("serial port auto-discovery failed", "err", err)
		} else {
			logger.Info("auto-discovered serial port", "port", port)
			opts.SerialPort = port
		}
	}

	trigger, err := board.OpenTrigger(opts.TriggerGPIOChip, opts.TriggerGPIOLine)
	if err != nil {
		logger.Warn("stimulus-sync trigger unavailable", "err", err)
		trigger = &board.Trigger{}
	}
	defer trigger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tsdbSink, sideSink, mqttSink, closeSinks := buildOptionalSinks(opts, logger)
	defer closeSinks()

	quitCh := make(chan struct{})

	// The control Server needs the lifecycle Controller as its Commands,
	// and the Controller needs the Server as its EventSink: build the
	// Server once the Controller exists, then hand the Server back to the
	// Controller's constructor. Neither side is used until ListenAndServe
	// and the first Start below, so this one-step-late wiring is safe.
	server := control.New(nil, func() { close(quitCh) }, logging.Component(logger, "control"))

	sinks := []sink.Sink{tsdbSink, broadcast.New(server)}
	if sideSink != nil {
		sinks = append(sinks, sideSink)
	}

	if mqttSink != nil {
		sinks = append(sinks, mqttSink)
	}

	fanOut := sink.New(sinks, logging.Component(logger, "sink"))
	defer fanOut.Close()

	sched := scheduler.New(fanOutAdapter{fanOut}, logging.Component(logger, "scheduler"))

	controller := lifecycle.New(board.Unimplemented{}, server, lifecycle.Config{
		BoardID:         opts.BoardID,
		SerialPort:      opts.SerialPort,
		Channels:        opts.Channels,
		SamplesPerEpoch: opts.SamplesPerEpoch,
		OutputDir:       opts.OutputDir,
		Streamer:        opts.Streamer,
	}, logging.Component(logger, "lifecycle"))

	if opts.LSL {
		streamer := lsl.Unimplemented{}
		if err := streamer.Open(); err != nil {
			logger.Warn("lsl outlet unavailable", "err", err)
		} else {
			defer streamer.Close()
		}
	}

	starter := sessionStarter{controller: controller, sched: sched, opts: opts, trigger: trigger, logger: logging.Component(logger, "glue")}
	server.SetCommands(starter)

	if opts.DNSSDName != "" {
		if err := control.AnnounceDNSSD(ctx, opts.DNSSDName, opts.WebsocketPort, logger); err != nil {
			logger.Warn("dns-sd announce failed", "err", err)
		}
	}

	serveErrCh := make(chan error, 1)

	go func() {
		serveErrCh <- control.ListenAndServe(ctx, fmt.Sprintf(":%d", opts.WebsocketPort), server, opts.SSLCert, opts.SSLKey)
	}()

	go sched.Run(ctx)

	if !opts.WaitForCommands && !opts.JustWait {
		if err := starter.Start(ctx, nil); err != nil {
			logger.Error("initial start failed", "err", err)
		}
	}

	select {
	case <-ctx.Done():
	case <-quitCh:
	case err := <-serveErrCh:
		if err != nil {
			logger.Error("control server stopped", "err", err)
		}
	}

	sched.Stop()
	_ = starter.Quit(context.Background())

	return 0
}

// sessionStarter adapts the lifecycle Controller and scheduler into
// the control.Commands surface, owning the glue between "a session
// reached STREAMING" and "the scheduler has a live Source".
type sessionStarter struct {
	controller *lifecycle.Controller
	sched      *scheduler.Scheduler
	opts       config.Options
	trigger    *board.Trigger
	logger     *log.Logger
}

func (s sessionStarter) Start(ctx context.Context, overrideChannels []string) error {
	if err := s.controller.Start(ctx, overrideChannels); err != nil {
		return err
	}

	if err := s.trigger.Pulse(); err != nil && s.logger != nil {
		s.logger.Warn("trigger pulse on start failed", "err", err)
	}

	labels := s.opts.Channels
	if len(overrideChannels) > 0 {
		labels = overrideChannels
	}

	idx := s.controller.Ring().Channels()

	order := make([]features.Channel, 0, len(idx))
	for i, chIdx := range idx {
		name := fmt.Sprintf("ch%d", chIdx)
		if i < len(labels) {
			name = labels[i]
		}

		order = append(order, features.Channel{Index: chIdx, Name: name})
	}

	rate := s.controller.Rate()
	if rate <= 0 {
		rate = fallbackSamplingRateHz
	}

	s.sched.SetSource(&scheduler.Source{
		Bursts:          s.controller.Bursts(),
		Ring:            s.controller.Ring(),
		Order:           order,
		Chain:           dsp.NewChain(rate, s.logger),
		Rate:            rate,
		SamplesPerEpoch: s.opts.SamplesPerEpoch,
	})

	return nil
}

func (s sessionStarter) Stop(ctx context.Context) error {
	s.sched.SetSource(nil)

	if err := s.trigger.Pulse(); err != nil && s.logger != nil {
		s.logger.Warn("trigger pulse on stop failed", "err", err)
	}

	return s.controller.Stop(ctx)
}

func (s sessionStarter) Quit(ctx context.Context) error {
	s.sched.SetSource(nil)
	return s.controller.Quit(ctx)
}

// fanOutAdapter adapts *sink.FanOut to scheduler.EpochSink.
type fanOutAdapter struct{ fanOut *sink.FanOut }

func (f fanOutAdapter) Submit(batch features.EpochBatch) { f.fanOut.Submit(batch) }

// buildOptionalSinks constructs the three sinks whose presence depends
// on configuration; each is safe to include unconditionally into the
// fan-out (tsdb.Sink no-ops with a zero Config), except sideband and
// mqtt which are only added when configured, since neither has a
// meaningful no-op form.
func buildOptionalSinks(opts config.Options, logger *log.Logger) (*tsdb.Sink, sink.Sink, sink.Sink, func()) {
	var closers []func()

	tsdbSink, err := tsdb.New(tsdb.Config{
		URL:        opts.InfluxURL,
		Database:   opts.InfluxDatabase,
		Username:   opts.InfluxUsername,
		Password:   opts.InfluxPassword,
		RawSamples: opts.InfluxRawSamples,
	})
	if err != nil {
		logger.Error("tsdb sink unavailable, disabling it", "err", err)
		tsdbSink = &tsdb.Sink{}
	} else {
		closers = append(closers, func() { _ = tsdbSink.Close() })
	}

	var sideSink sink.Sink

	if opts.OutputDir != "" {
		s, err := sideband.Open(opts.OutputDir)
		if err != nil {
			logger.Warn("sideband sink disabled", "err", err)
		} else {
			sideSink = s
			closers = append(closers, func() { _ = s.Close() })
		}
	}

	var mqttS sink.Sink

	if opts.MQTTBroker != "" {
		m, err := mqttsink.New(opts.MQTTBroker, "eegstream")
		if err != nil {
			logger.Warn("mqtt sink disabled", "err", err)
		} else {
			mqttS = m
			closers = append(closers, func() { m.Close() })
		}
	}

	return tsdbSink, sideSink, mqttS, func() {
		for _, c := range closers {
			c()
		}
	}
}
