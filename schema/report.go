// Package schema defines the report document emitted at the end of a run.
// Field names are a wire contract; changes require a new schema version.
package schema

// SchemaVersion tags the summary block of every report.
const SchemaVersion = "v1"

// Report is the top-level document: one summary plus one payload per
// registered detector, keyed by detector name.
type Report struct {
	Summary   Summary                `json:"summary"`
	Detectors map[string]interface{} `json:"detectors"`
}

// Summary describes the capture as a whole.
type Summary struct {
	Schema         string  `json:"schema"`
	File           string  `json:"file"`
	PacketsTotal   uint64  `json:"packets_total"`
	DurationMS     uint64  `json:"duration_ms"`
	BytesTotal     uint64  `json:"bytes_total"`
	ThroughputMbps float64 `json:"throughput_mbps"`
}

// TCPHealth is the tcp_health detector payload.  TopFlows aliases
// TopBySeverity for legacy consumers.
type TCPHealth struct {
	ConversationsTotal uint64        `json:"conversations_total"`
	TopBySeverity      []Entry       `json:"top_by_severity"`
	TopByPackets       []PacketEntry `json:"top_by_packets"`
	TopFlows           []Entry       `json:"top_flows"`
}

// Score is the severity verdict for one conversation.
type Score struct {
	Value uint32 `json:"value"`
	Level string `json:"level"`
}

// RTTms summarizes the RTT samples of one direction, in milliseconds.
type RTTms struct {
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
	Samples uint64  `json:"samples"`
}

// DirStats holds the per-direction counters of one conversation.
type DirStats struct {
	Packets            uint32 `json:"packets"`
	Retransmissions    uint32 `json:"retransmissions"`
	OutOfOrder         uint32 `json:"out_of_order"`
	ZeroWindowEvents   uint32 `json:"zero_window_events"`
	DuplicateAckEvents uint32 `json:"duplicate_ack_events"`
	RTTms              RTTms  `json:"rtt_ms"`
}

// Entry is one conversation in the severity-ordered top list.
type Entry struct {
	Flow    string   `json:"flow"`
	Score   Score    `json:"score"`
	Reasons []string `json:"reasons"`
	C2S     DirStats `json:"c2s"`
	S2C     DirStats `json:"s2c"`
}

// PacketEntry is one conversation in the volume-ordered top list.
type PacketEntry struct {
	Flow         string   `json:"flow"`
	TotalPackets uint32   `json:"total_packets"`
	C2S          DirStats `json:"c2s"`
	S2C          DirStats `json:"s2c"`
}
