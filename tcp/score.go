package tcp

import (
	"fmt"
	"math"
)

// Severity levels, worst first.
const (
	LevelHigh   = "ALTA"
	LevelMedium = "MEDIA"
	LevelLow    = "BAJA"
)

// Severity maps the two streams of a conversation to a score, a level, and
// human-readable reasons.  It only reads counters, so it can be evaluated
// from synthesized states in tests.
func Severity(c2s, s2c *StreamState) (score uint32, level string, reasons []string) {
	totalPkts := c2s.PacketCount + s2c.PacketCount
	retr := c2s.RetransmissionCount + s2c.RetransmissionCount
	dup := c2s.DuplicateAckEvents + s2c.DuplicateAckEvents
	zwin := c2s.ZeroWindowEvents + s2c.ZeroWindowEvents
	ooo := c2s.OutOfOrderCount + s2c.OutOfOrderCount

	oooPct := 0.0
	if totalPkts > 0 {
		oooPct = float64(ooo) / float64(totalPkts) * 100.0
	}

	// Normalize event counts per 1000 packets.
	pktsK := math.Max(float64(totalPkts)/1000.0, 1.0)
	retrK := float64(retr) / pktsK
	dupK := float64(dup) / pktsK
	zwinK := float64(zwin) / pktsK

	scoreF := 12.0*retrK + 9.0*zwinK + 4.0*dupK + 2.0*oooPct
	score = uint32(math.Round(scoreF))

	reasons = []string{}
	if retr >= 20 {
		reasons = append(reasons, fmt.Sprintf("high retransmissions (%d)", retr))
	} else if retr >= 5 {
		reasons = append(reasons, fmt.Sprintf("moderate retransmissions (%d)", retr))
	}
	if zwin >= 1 {
		reasons = append(reasons, fmt.Sprintf("zero window (%d)", zwin))
	}
	if dup >= 3 {
		if retr == 0 && zwin == 0 {
			reasons = append(reasons, fmt.Sprintf("many dup-ACKs without retransmissions (%d)", dup))
		} else {
			reasons = append(reasons, fmt.Sprintf("duplicate-ACK events (≥3) (%d)", dup))
		}
	}
	if oooPct > 2.0 {
		reasons = append(reasons, fmt.Sprintf("out-of-order %.1f%% (~%d)", oooPct, ooo))
	}

	switch {
	case score >= 120 || retr >= 20 || zwin >= 2:
		level = LevelHigh
	case score >= 50 || retr >= 5 || zwin >= 1 || dup >= 5 || oooPct > 2.0:
		level = LevelMedium
	default:
		level = LevelLow
	}

	// Dup-ACK-only evidence is not enough for the top level.
	if level == LevelHigh && retr < 3 && zwin == 0 {
		level = LevelMedium
		if score > 80 {
			score = 80
		}
	}

	return score, level, reasons
}
