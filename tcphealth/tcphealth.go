// Package tcphealth implements the tcp_health detector: a per-conversation
// TCP state machine that turns a stream of captured segments into health
// signals (retransmissions, out-of-order delivery, zero-window stalls,
// duplicate-ACK storms, RTT percentiles) and a scored report.
package tcphealth

import (
	"log"
	"os"
	"sort"
	"time"

	"github.com/m-lab/go/logx"

	"github.com/m-lab/tcp-health/metrics"
	"github.com/m-lab/tcp-health/schema"
	"github.com/m-lab/tcp-health/tcp"
	"github.com/m-lab/tcp-health/tcpip"
)

// DetectorName is the key under which the payload appears in the report.
const DetectorName = "tcp_health"

var (
	sparseLogger = log.New(os.Stdout, "sparse: ", log.LstdFlags|log.Lshortfile)
	sparseSkip   = logx.NewLogEvery(sparseLogger, 500*time.Millisecond)
)

// Detector accumulates conversation state across OnPacket calls.  It is not
// safe for concurrent use; the engine dispatches packets sequentially.
type Detector struct {
	conversations tcp.ConversationMap
	lastTS        uint64
	lastTSSet     bool
}

// New returns an empty detector.
func New() *Detector {
	return &Detector{conversations: make(tcp.ConversationMap)}
}

// Name implements engine.Detector.
func (d *Detector) Name() string {
	return DetectorName
}

// OnPacket parses one captured frame and updates the owning conversation.
// Non-IPv4, non-TCP, and truncated packets are counted and skipped.
func (d *Detector) OnPacket(data []byte, tsMicros uint64) {
	fields, err := tcpip.Parse(data)
	if err != nil {
		metrics.PacketCount.WithLabelValues("skipped").Inc()
		return
	}
	metrics.PacketCount.WithLabelValues("tcp").Inc()

	// Capture-quality signal only; RTT samples still saturate at zero.
	if d.lastTSSet && tsMicros < d.lastTS {
		metrics.WarningCount.WithLabelValues(DetectorName, "non_monotonic_timestamp").Inc()
		sparseSkip.Printf("timestamp went backwards: %d -> %d", d.lastTS, tsMicros)
	}
	d.lastTS = tsMicros
	d.lastTSSet = true

	conv := d.conversations.Get(fields.Flow)
	fwd, rev := conv.Streams(fields.Flow)

	fwd.Update(fields.Seq, fields.Ack, fields.Window, fields.PayloadLen, fields.Flags, tsMicros)

	// Cumulative ACKs confirm the peer's outstanding segments.  ACKs may
	// piggyback on data, so there is no payload-length gate here.
	fl := fields.Flags
	if fl.ACK() && !fl.SYN() && !fl.FIN() && !fl.RST() {
		rev.AckOutstanding(fields.Ack, tsMicros)
	}
}

// Finalize builds the report payload.  It only reads conversation state.
func (d *Detector) Finalize() interface{} {
	convs := make([]*tcp.Conversation, 0, len(d.conversations))
	for _, c := range d.conversations {
		convs = append(convs, c)
	}

	bySeverity := make([]schema.Entry, 0, len(convs))
	for _, c := range convs {
		score, level, reasons := tcp.Severity(&c.C2S, &c.S2C)
		bySeverity = append(bySeverity, schema.Entry{
			Flow:    c.Flow.String(),
			Score:   schema.Score{Value: score, Level: level},
			Reasons: reasons,
			C2S:     dirStats(&c.C2S),
			S2C:     dirStats(&c.S2C),
		})
	}
	// Score descending, flow string ascending: a stable total order, so
	// the report never depends on map iteration order.
	sort.Slice(bySeverity, func(i, j int) bool {
		if bySeverity[i].Score.Value != bySeverity[j].Score.Value {
			return bySeverity[i].Score.Value > bySeverity[j].Score.Value
		}
		return bySeverity[i].Flow < bySeverity[j].Flow
	})

	byPackets := make([]*tcp.Conversation, len(convs))
	copy(byPackets, convs)
	sort.Slice(byPackets, func(i, j int) bool {
		ti := byPackets[i].C2S.PacketCount + byPackets[i].S2C.PacketCount
		tj := byPackets[j].C2S.PacketCount + byPackets[j].S2C.PacketCount
		if ti != tj {
			return ti > tj
		}
		return byPackets[i].Flow.SortKey().Less(byPackets[j].Flow.SortKey())
	})
	byPacketsJSON := make([]schema.PacketEntry, 0, len(byPackets))
	for _, c := range byPackets {
		byPacketsJSON = append(byPacketsJSON, schema.PacketEntry{
			Flow:         c.Flow.String(),
			TotalPackets: c.C2S.PacketCount + c.S2C.PacketCount,
			C2S:          dirStats(&c.C2S),
			S2C:          dirStats(&c.S2C),
		})
	}

	metrics.ConversationCount.Observe(float64(len(convs)))

	return schema.TCPHealth{
		ConversationsTotal: uint64(len(d.conversations)),
		TopBySeverity:      bySeverity,
		TopByPackets:       byPacketsJSON,
		TopFlows:           bySeverity,
	}
}

func dirStats(s *tcp.StreamState) schema.DirStats {
	p50, p95 := s.RTT().PercentilesMS()
	return schema.DirStats{
		Packets:            s.PacketCount,
		Retransmissions:    s.RetransmissionCount,
		OutOfOrder:         s.OutOfOrderCount,
		ZeroWindowEvents:   s.ZeroWindowEvents,
		DuplicateAckEvents: s.DuplicateAckEvents,
		RTTms: schema.RTTms{
			P50:     p50,
			P95:     p95,
			Samples: s.RTT().Count(),
		},
	}
}
