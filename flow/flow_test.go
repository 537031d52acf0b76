package flow_test

import (
	"testing"

	"github.com/m-lab/tcp-health/flow"
)

func TestReverse(t *testing.T) {
	f := flow.Flow{
		SrcIP:   [4]byte{192, 168, 1, 10},
		SrcPort: 44123,
		DstIP:   [4]byte{93, 184, 216, 34},
		DstPort: 443,
	}
	r := f.Reverse()
	if r.SrcIP != f.DstIP || r.SrcPort != f.DstPort || r.DstIP != f.SrcIP || r.DstPort != f.SrcPort {
		t.Errorf("Reverse() = %+v", r)
	}
	if r.Reverse() != f {
		t.Error("Reverse is not an involution")
	}
}

func TestString(t *testing.T) {
	f := flow.Flow{
		SrcIP:   [4]byte{192, 168, 1, 10},
		SrcPort: 44123,
		DstIP:   [4]byte{93, 184, 216, 34},
		DstPort: 443,
	}
	want := "192.168.1.10:44123 <-> 93.184.216.34:443/TCP"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMapKeyBothDirections(t *testing.T) {
	f := flow.Flow{SrcIP: [4]byte{1, 2, 3, 4}, SrcPort: 1, DstIP: [4]byte{5, 6, 7, 8}, DstPort: 2}
	m := map[flow.Flow]int{f: 1}
	if _, ok := m[f.Reverse()]; ok {
		t.Error("a flow and its reverse must be distinct keys")
	}
	if m[f] != 1 {
		t.Error("flow did not round-trip as a map key")
	}
}

func TestKeyLess(t *testing.T) {
	a := flow.Flow{SrcIP: [4]byte{10, 0, 0, 1}, SrcPort: 80, DstIP: [4]byte{10, 0, 0, 2}, DstPort: 90}
	b := flow.Flow{SrcIP: [4]byte{10, 0, 0, 1}, SrcPort: 81, DstIP: [4]byte{10, 0, 0, 2}, DstPort: 90}
	c := flow.Flow{SrcIP: [4]byte{10, 0, 0, 2}, SrcPort: 1, DstIP: [4]byte{10, 0, 0, 2}, DstPort: 90}
	if !a.SortKey().Less(b.SortKey()) {
		t.Error("port should break the tie")
	}
	if !a.SortKey().Less(c.SortKey()) {
		t.Error("source IP string should order first")
	}
	if a.SortKey().Less(a.SortKey()) {
		t.Error("Less must be irreflexive")
	}
}
