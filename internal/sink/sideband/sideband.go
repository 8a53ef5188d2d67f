// Package sideband implements a second, timestamped CSV persistence
// path alongside the driver's own raw-sample streamer registered via
// board.Session.AddStreamer at session start (§4.5). This sink writes
// the derived per-epoch band-power fan-out instead of raw samples,
// since the raw file itself is written by the vendor SDK session,
// which is outside this module's boundary (see DESIGN.md); it shares
// the same timestamped naming convention via BuildTimestampedPath.
// The file-writing shape itself is the same "build the name once,
// stream file lines" as the teacher's src/waypoint.go log-file writer.
package sideband

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/eegstream/eegstream/internal/errs"
	"github.com/eegstream/eegstream/internal/features"
)

// filenamePattern matches spec §6's CSV persistence path:
// <output_dir>/<YYYY-MM-DD-HH-MM-SS>.brainflow.csv
const filenamePattern = "%Y-%m-%d-%H-%M-%S.brainflow.csv"

// Sink appends one row per channel per epoch to a single timestamped
// CSV file opened once, when the Sink is built by Open.
type Sink struct {
	w    *csv.Writer
	f    *os.File
	name string
}

// BuildTimestampedPath returns <outputDir>/<YYYY-MM-DD-HH-MM-SS>.brainflow.csv
// for the current instant. lifecycle.Controller.Start calls this too, to
// register the driver's own raw-sample streamer (§4.5) under the same
// naming convention as this package's feature-dump file.
func BuildTimestampedPath(outputDir string) (string, error) {
	name, err := strftime.Format(filenamePattern, time.Now())
	if err != nil {
		return "", errs.Sink("sideband: format filename", err)
	}

	return filepath.Join(outputDir, name), nil
}

// FileStreamerURI builds the driver add_streamer URI for path, in
// write mode.
func FileStreamerURI(path string) string {
	return fmt.Sprintf("file://%s:w", path)
}

// Open creates <outputDir>/<timestamped name>.brainflow.csv in
// append mode and writes the header row.
func Open(outputDir string) (*Sink, error) {
	path, err := BuildTimestampedPath(outputDir)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errs.Sink(fmt.Sprintf("sideband: open %s", path), err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{"epochEndMs", "channel", "sdelta", "fdelta", "theta", "alpha", "sigma", "beta", "overThreshold"}); err != nil {
		f.Close()
		return nil, errs.Sink("sideband: write header", err)
	}

	w.Flush()

	return &Sink{w: w, f: f, name: filepath.Base(path)}, nil
}

func (s *Sink) Name() string { return "sideband" }

// Submit appends one row per channel, flushing after every epoch so a
// tail -f sees the stream promptly.
func (s *Sink) Submit(_ context.Context, batch features.EpochBatch) error {
	for _, pc := range batch.Channels {
		bp := pc.BandPowers

		row := []string{
			strconv.FormatInt(batch.EpochEndMs, 10),
			pc.ChannelName,
			strconv.FormatFloat(bp.SDelta, 'g', -1, 64),
			strconv.FormatFloat(bp.FDelta, 'g', -1, 64),
			strconv.FormatFloat(bp.Theta, 'g', -1, 64),
			strconv.FormatFloat(bp.Alpha, 'g', -1, 64),
			strconv.FormatFloat(bp.Sigma, 'g', -1, 64),
			strconv.FormatFloat(bp.Beta, 'g', -1, 64),
			strconv.Itoa(len(pc.OverThresholdIndices)),
		}

		if err := s.w.Write(row); err != nil {
			return errs.Sink("sideband: write row", err)
		}
	}

	s.w.Flush()

	return s.w.Error()
}

// Close flushes and closes the underlying file.
func (s *Sink) Close() error {
	s.w.Flush()
	return s.f.Close()
}
