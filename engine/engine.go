// Package engine drives registered detectors over a packet capture file and
// assembles the final report.  Processing is single-threaded and
// deterministic: packets are dispatched in capture order and each detector
// owns its state exclusively.
package engine

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/gopacket/pcapgo"
	"github.com/valyala/gozstd"

	"github.com/m-lab/tcp-health/metrics"
	"github.com/m-lab/tcp-health/schema"
)

// Detector consumes raw captured packets and produces a report payload.
// OnPacket is called once per packet in capture order with the capture
// timestamp in microseconds; Finalize is called exactly once afterwards.
type Detector interface {
	Name() string
	OnPacket(data []byte, tsMicros uint64)
	Finalize() interface{}
}

// Engine owns the registered detectors for one run.
type Engine struct {
	detectors []Detector
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{}
}

// Register adds a detector.  Detectors are finalized in registration order.
func (e *Engine) Register(d Detector) {
	e.detectors = append(e.detectors, d)
}

// openCapture opens the capture file, transparently decompressing .gz and
// .zst archives.  The returned closer releases all wrapped readers.
func openCapture(path string) (io.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return gz, func() { gz.Close(); f.Close() }, nil
	case strings.HasSuffix(path, ".zst"):
		zr := gozstd.NewReader(f)
		return zr, func() { zr.Release(); f.Close() }, nil
	default:
		return f, func() { f.Close() }, nil
	}
}

// Run processes the capture at path and returns the assembled report.
// A missing or unreadable capture is fatal; per-packet parse failures are
// the detectors' concern and never abort the run.
func (e *Engine) Run(path string) (*schema.Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		metrics.CaptureCount.WithLabelValues("missing").Inc()
		return nil, fmt.Errorf("capture file does not exist: %s", path)
	}

	r, closer, err := openCapture(path)
	if err != nil {
		metrics.CaptureCount.WithLabelValues("open_error").Inc()
		return nil, fmt.Errorf("cannot open capture: %v", err)
	}
	defer closer()

	pcap, err := pcapgo.NewReader(r)
	if err != nil {
		metrics.CaptureCount.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("cannot read capture: %v", err)
	}

	var packetsTotal uint64
	var firstTS, lastTS uint64
	for data, ci, err := pcap.ReadPacketData(); err == nil; data, ci, err = pcap.ReadPacketData() {
		ts := uint64(0)
		if us := ci.Timestamp.UnixMicro(); us > 0 {
			ts = uint64(us)
		}
		if packetsTotal == 0 {
			firstTS = ts
		}
		lastTS = ts
		packetsTotal++
		for _, d := range e.detectors {
			d.OnPacket(data, ts)
		}
	}

	// Duration comes from the capture itself, not the wall clock, so two
	// runs over one file agree.
	var durationMS uint64
	if packetsTotal >= 2 && lastTS >= firstTS {
		durationMS = (lastTS - firstTS) / 1000
	}
	bytesTotal := uint64(info.Size())
	throughput := 0.0
	if durationMS > 0 {
		durationSecs := float64(durationMS) / 1000.0
		throughput = float64(bytesTotal) * 8 / durationSecs / 1e6
	}

	report := &schema.Report{
		Summary: schema.Summary{
			Schema:         schema.SchemaVersion,
			File:           path,
			PacketsTotal:   packetsTotal,
			DurationMS:     durationMS,
			BytesTotal:     bytesTotal,
			ThroughputMbps: throughput,
		},
		Detectors: make(map[string]interface{}, len(e.detectors)),
	}
	for _, d := range e.detectors {
		report.Detectors[d.Name()] = d.Finalize()
	}

	metrics.CaptureCount.WithLabelValues("ok").Inc()
	metrics.CapturePacketCount.Observe(float64(packetsTotal))
	return report, nil
}
