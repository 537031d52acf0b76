// Package metrics defines the Prometheus instrumentation for the analyzer.
//
// When defining new metrics, these are helpful values to track:
//   - things coming into or out of the system: packets, captures, reports.
//   - the success or error status of any of the above.
//   - distributions: packets per capture, conversations per capture.
package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketCount counts packets by disposition ("tcp", "skipped").
	// Example usage:
	//   metrics.PacketCount.WithLabelValues("tcp").Inc()
	PacketCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcphealth_packet_count",
			Help: "Number of packets observed, by disposition.",
		}, []string{"status"})

	// WarningCount counts tolerated anomalies by detector and kind.
	// Example usage:
	//   metrics.WarningCount.WithLabelValues("tcp_health", "parse_failure").Inc()
	WarningCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcphealth_warning_count",
			Help: "Number of tolerated anomalies, by detector and kind.",
		}, []string{"detector", "kind"})

	// CaptureCount counts capture files processed, by outcome.
	CaptureCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tcphealth_capture_count",
			Help: "Number of capture files processed, by outcome.",
		}, []string{"status"})

	// CapturePacketCount observes the distribution of packets per capture.
	CapturePacketCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "tcphealth_capture_packet_count",
			Help: "Distribution of packet counts per capture.",
			Buckets: []float64{
				1, 2, 3, 5,
				10, 18, 32, 56,
				100, 178, 316, 562,
				1000, 1780, 3160, 5620,
				10000, 17800, 31600, 56200, math.Inf(1),
			},
		})

	// ConversationCount observes the distribution of TCP conversations per
	// capture.
	ConversationCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "tcphealth_conversation_count",
			Help: "Distribution of TCP conversation counts per capture.",
			Buckets: []float64{
				1, 2, 3, 5,
				10, 18, 32, 56,
				100, 178, 316, 562,
				1000, 1780, 3160, 5620, math.Inf(1),
			},
		})
)
