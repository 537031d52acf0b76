package tcp_test

import (
	"strings"
	"testing"

	"github.com/m-lab/tcp-health/tcp"
)

func severityOf(c2s tcp.StreamState) (uint32, string, []string) {
	var s2c tcp.StreamState
	return tcp.Severity(&c2s, &s2c)
}

func TestSeverityQuietFlowIsLow(t *testing.T) {
	_, level, reasons := severityOf(tcp.StreamState{PacketCount: 500})
	if level != tcp.LevelLow {
		t.Errorf("level = %s, want %s", level, tcp.LevelLow)
	}
	if len(reasons) != 0 {
		t.Errorf("reasons = %v, want none", reasons)
	}
}

func TestSeverityModerateRetransmissions(t *testing.T) {
	_, level, reasons := severityOf(tcp.StreamState{PacketCount: 100, RetransmissionCount: 5})
	if level != tcp.LevelMedium {
		t.Errorf("level = %s, want %s", level, tcp.LevelMedium)
	}
	found := false
	for _, r := range reasons {
		if strings.Contains(r, "moderate retransmissions (5)") {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons = %v, want moderate retransmissions", reasons)
	}
}

func TestSeverityHighRetransmissions(t *testing.T) {
	_, level, reasons := severityOf(tcp.StreamState{PacketCount: 1000, RetransmissionCount: 20})
	if level != tcp.LevelHigh {
		t.Errorf("level = %s, want %s", level, tcp.LevelHigh)
	}
	found := false
	for _, r := range reasons {
		if strings.Contains(r, "high retransmissions (20)") {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons = %v, want high retransmissions", reasons)
	}
}

func TestSeverityZeroWindow(t *testing.T) {
	_, level, reasons := severityOf(tcp.StreamState{PacketCount: 50, ZeroWindowEvents: 1})
	if level != tcp.LevelMedium {
		t.Errorf("level = %s, want %s", level, tcp.LevelMedium)
	}
	if len(reasons) == 0 || !strings.Contains(reasons[0], "zero window (1)") {
		t.Errorf("reasons = %v, want zero window", reasons)
	}

	_, level, _ = severityOf(tcp.StreamState{PacketCount: 50, ZeroWindowEvents: 2})
	if level != tcp.LevelHigh {
		t.Errorf("level = %s, want %s for two zero-window events", level, tcp.LevelHigh)
	}
}

func TestSeverityDupAckOnlyNeverHigh(t *testing.T) {
	// Heavy dup-ACK evidence with no retransmissions or zero windows must
	// be capped below the top level, and the score clamped.
	score, level, reasons := severityOf(tcp.StreamState{PacketCount: 60, DuplicateAckEvents: 40})
	if level == tcp.LevelHigh {
		t.Errorf("level = %s, want below %s", level, tcp.LevelHigh)
	}
	if score > 80 {
		t.Errorf("score = %d, want <= 80 after the cap", score)
	}
	found := false
	for _, r := range reasons {
		if strings.Contains(r, "many dup-ACKs without retransmissions (40)") {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons = %v, want the dup-ACK-without-retransmissions reason", reasons)
	}
}

func TestSeverityDupAckWithRetransmissions(t *testing.T) {
	_, _, reasons := severityOf(tcp.StreamState{
		PacketCount: 100, RetransmissionCount: 6, DuplicateAckEvents: 4,
	})
	found := false
	for _, r := range reasons {
		if strings.Contains(r, "duplicate-ACK events (≥3) (4)") {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons = %v, want duplicate-ACK events reason", reasons)
	}
}

func TestSeverityOutOfOrderBoundary(t *testing.T) {
	// Exactly 2% stays low; above 2% is at least medium.
	_, level, _ := severityOf(tcp.StreamState{PacketCount: 100, OutOfOrderCount: 2})
	if level != tcp.LevelLow {
		t.Errorf("level at 2.0%% = %s, want %s", level, tcp.LevelLow)
	}
	_, level, reasons := severityOf(tcp.StreamState{PacketCount: 100, OutOfOrderCount: 3})
	if level != tcp.LevelMedium {
		t.Errorf("level at 3.0%% = %s, want %s", level, tcp.LevelMedium)
	}
	if len(reasons) == 0 || !strings.Contains(reasons[0], "out-of-order 3.0% (~3)") {
		t.Errorf("reasons = %v, want out-of-order 3.0%% (~3)", reasons)
	}
}

func TestSeverityScoreMonotonicInRetransmissions(t *testing.T) {
	var prev uint32
	for retr := uint32(0); retr <= 40; retr++ {
		score, _, _ := severityOf(tcp.StreamState{PacketCount: 2000, RetransmissionCount: retr})
		if score < prev {
			t.Fatalf("score decreased: retr=%d score=%d prev=%d", retr, score, prev)
		}
		prev = score
	}
}

func TestSeverityLevelNeverDropsWhenCountersGrow(t *testing.T) {
	rank := map[string]int{tcp.LevelLow: 0, tcp.LevelMedium: 1, tcp.LevelHigh: 2}
	base := tcp.StreamState{PacketCount: 100, RetransmissionCount: 5}
	var s2c tcp.StreamState
	_, level, _ := tcp.Severity(&base, &s2c)
	grown := base
	grown.RetransmissionCount += 20
	grown.ZeroWindowEvents++
	_, levelGrown, _ := tcp.Severity(&grown, &s2c)
	if rank[levelGrown] < rank[level] {
		t.Errorf("level dropped from %s to %s when counters grew", level, levelGrown)
	}
}
