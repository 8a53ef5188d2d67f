// Package tsdb implements the TSDB fan-out sink: one batched write per
// epoch, one point per channel, measurement brainwave_epoch, following
// the original reference implementation's batched-write behavior
// rather than one write call per channel.
package tsdb

import (
	"context"
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/eegstream/eegstream/internal/errs"
	"github.com/eegstream/eegstream/internal/features"
)

// Config is the subset of connection options validated by
// internal/config (all four set together, or none).
type Config struct {
	URL      string
	Database string
	Username string
	Password string

	// RawSamples enables the disabled-by-default raw-per-sample write
	// path, per the "raw-sample TSDB writes" design note.
	RawSamples bool
}

// Sink writes one influxdb1-client batch per epoch.
type Sink struct {
	cfg Config
	c   client.Client
}

// New opens the HTTP client for cfg. A zero Config (no Influx
// configured) is valid; Submit then becomes a no-op, so the fan-out
// can always include a tsdb.Sink unconditionally.
func New(cfg Config) (*Sink, error) {
	if cfg.URL == "" {
		return &Sink{cfg: cfg}, nil
	}

	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, errs.Sink("tsdb: open client", err)
	}

	return &Sink{cfg: cfg, c: c}, nil
}

func (s *Sink) Name() string { return "tsdb" }

// Submit batches one point per channel into a single write call,
// timestamped at the epoch's end, millisecond precision.
func (s *Sink) Submit(_ context.Context, batch features.EpochBatch) error {
	if s.c == nil {
		return nil
	}

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  s.cfg.Database,
		Precision: "ms",
	})
	if err != nil {
		return errs.Sink("tsdb: new batch", err)
	}

	ts := time.UnixMilli(batch.EpochEndMs)

	for _, pc := range batch.Channels {
		fields := make(map[string]interface{}, 8+len(pc.Complexity.Fields()))

		for k, v := range pc.BandPowers.Fields() {
			fields[k] = v
		}

		for k, v := range pc.Complexity.Fields() {
			fields[k] = v
		}

		fields["over_threshold"] = len(pc.OverThresholdIndices)

		tags := map[string]string{"channel": pc.ChannelName}

		pt, err := client.NewPoint("brainwave_epoch", tags, fields, ts)
		if err != nil {
			return errs.Sink(fmt.Sprintf("tsdb: new point channel=%s", pc.ChannelName), err)
		}

		bp.AddPoint(pt)

		if s.cfg.RawSamples {
			rawFields := map[string]interface{}{"raw": pc.Raw, "filtered": pc.Filtered}

			rawPt, err := client.NewPoint("brainwave_raw", tags, rawFields, ts)
			if err != nil {
				return errs.Sink(fmt.Sprintf("tsdb: new raw point channel=%s", pc.ChannelName), err)
			}

			bp.AddPoint(rawPt)
		}
	}

	if err := s.c.Write(bp); err != nil {
		return errs.Sink("tsdb: write batch", err)
	}

	return nil
}

// Close releases the underlying HTTP client.
func (s *Sink) Close() error {
	if s.c == nil {
		return nil
	}

	return s.c.Close()
}
