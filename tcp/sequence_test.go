package tcp_test

import (
	"testing"

	"github.com/m-lab/tcp-health/tcp"
)

func TestSeqPredicates(t *testing.T) {
	tests := []struct {
		name         string
		a, b         uint32
		gt, lt, lte  bool
	}{
		{"equal", 100, 100, false, false, true},
		{"simple less", 100, 200, false, true, true},
		{"simple greater", 200, 100, true, false, false},
		{"wrap: a just before wrap, b after", 0xFFFFFF00, 0x10, false, true, true},
		{"wrap: a after wrap, b before", 0x10, 0xFFFFFF00, true, false, false},
		{"zero vs max", 0, 0xFFFFFFFF, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tcp.SeqGT(tt.a, tt.b); got != tt.gt {
				t.Errorf("SeqGT(%#x, %#x) = %v, want %v", tt.a, tt.b, got, tt.gt)
			}
			if got := tcp.SeqLT(tt.a, tt.b); got != tt.lt {
				t.Errorf("SeqLT(%#x, %#x) = %v, want %v", tt.a, tt.b, got, tt.lt)
			}
			if got := tcp.SeqLTE(tt.a, tt.b); got != tt.lte {
				t.Errorf("SeqLTE(%#x, %#x) = %v, want %v", tt.a, tt.b, got, tt.lte)
			}
		})
	}
}

func TestForwardDistance(t *testing.T) {
	tests := []struct {
		name     string
		from, to uint32
		want     uint64
	}{
		{"zero", 5000, 5000, 0},
		{"simple", 1000, 2500, 1500},
		{"across wrap", 0xFFFFFFF0, 0x10, 0x20},
		{"backward is the long way around", 2500, 1000, (1 << 32) - 1500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tcp.ForwardDistance(tt.from, tt.to); got != tt.want {
				t.Errorf("ForwardDistance(%#x, %#x) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

// The predicates depend only on the modular difference, so shifting every
// sequence number by a constant must not change any comparison.
func TestPredicatesInvariantUnderShift(t *testing.T) {
	pairs := [][2]uint32{
		{100, 200}, {200, 100}, {0xFFFFFF00, 0x2C}, {0, 0x7FFFFFFF},
	}
	shifts := []uint32{1, 0x1000, 0x80000000, 0xFFFFFFFF}
	for _, p := range pairs {
		for _, k := range shifts {
			a, b := p[0], p[1]
			if tcp.SeqLT(a, b) != tcp.SeqLT(a+k, b+k) {
				t.Errorf("SeqLT not shift-invariant for (%#x, %#x) + %#x", a, b, k)
			}
			if tcp.SeqGT(a, b) != tcp.SeqGT(a+k, b+k) {
				t.Errorf("SeqGT not shift-invariant for (%#x, %#x) + %#x", a, b, k)
			}
		}
	}
}
