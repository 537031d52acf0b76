// Package flow defines the 4-tuple key that identifies a TCP conversation.
// A conversation is addressable by the key of either direction; the first
// direction observed is the canonical one.
package flow

import (
	"fmt"
	"net"

	"github.com/google/gopacket/layers"
)

// Flow is an immutable IPv4 4-tuple.  It is comparable, so it can be used
// directly as a map key.
type Flow struct {
	SrcIP   [4]byte
	SrcPort layers.TCPPort
	DstIP   [4]byte
	DstPort layers.TCPPort
}

// Reverse returns the flow for the opposite direction.
func (f Flow) Reverse() Flow {
	return Flow{
		SrcIP:   f.DstIP,
		SrcPort: f.DstPort,
		DstIP:   f.SrcIP,
		DstPort: f.SrcPort,
	}
}

// Src returns the source address as a net.IP.
func (f Flow) Src() net.IP {
	ip := make(net.IP, 4)
	copy(ip, f.SrcIP[:])
	return ip
}

// Dst returns the destination address as a net.IP.
func (f Flow) Dst() net.IP {
	ip := make(net.IP, 4)
	copy(ip, f.DstIP[:])
	return ip
}

// String formats the flow the way it appears in reports.
func (f Flow) String() string {
	return fmt.Sprintf("%s:%d <-> %s:%d/TCP", f.Src(), uint16(f.SrcPort), f.Dst(), uint16(f.DstPort))
}

// Key is the lexicographic tiebreak tuple used when ordering conversations
// with equal packet counts.
type Key struct {
	SrcIP   string
	SrcPort uint16
	DstIP   string
	DstPort uint16
}

// SortKey returns the tiebreak tuple for this flow.
func (f Flow) SortKey() Key {
	return Key{
		SrcIP:   f.Src().String(),
		SrcPort: uint16(f.SrcPort),
		DstIP:   f.Dst().String(),
		DstPort: uint16(f.DstPort),
	}
}

// Less orders keys by (SrcIP, SrcPort, DstIP, DstPort) ascending.
func (k Key) Less(o Key) bool {
	if k.SrcIP != o.SrcIP {
		return k.SrcIP < o.SrcIP
	}
	if k.SrcPort != o.SrcPort {
		return k.SrcPort < o.SrcPort
	}
	if k.DstIP != o.DstIP {
		return k.DstIP < o.DstIP
	}
	return k.DstPort < o.DstPort
}
