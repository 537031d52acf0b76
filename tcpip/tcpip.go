// Package tcpip extracts the TCP fields the health detector consumes from
// raw ethernet frames.  Only ethernet → IPv4 → TCP is handled; anything
// else returns an error and the caller skips the packet.
package tcpip

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket/layers"

	"github.com/m-lab/tcp-health/flow"
	"github.com/m-lab/tcp-health/tcp"
)

var (
	ErrTruncatedEthernetHeader = fmt.Errorf("truncated Ethernet header")
	ErrTruncatedIPHeader       = fmt.Errorf("truncated IP header")
	ErrTruncatedTCPHeader      = fmt.Errorf("truncated TCP header")
	ErrNoIPLayer               = fmt.Errorf("no IP layer")
	ErrNotIPv4                 = fmt.Errorf("not an IPv4 packet")
	ErrNotTCP                  = fmt.Errorf("not a TCP packet")
)

const (
	ethernetHeaderSize = 14
	ipv4HeaderMinSize  = 20
	tcpHeaderMinSize   = 20
)

// Fields holds the decoded values for one TCP segment.
type Fields struct {
	Flow       flow.Flow
	Seq        uint32
	Ack        uint32
	Window     uint16
	PayloadLen int // application bytes, excluding TCP options
	Flags      tcp.Flags
}

// Parse decodes an ethernet frame down to the TCP header.  The payload
// length is derived from the IPv4 total length and the TCP data offset, so
// it excludes both IP and TCP options.
func Parse(data []byte) (Fields, error) {
	var f Fields
	if len(data) < ethernetHeaderSize {
		return f, ErrTruncatedEthernetHeader
	}
	etherType := layers.EthernetType(binary.BigEndian.Uint16(data[12:14]))
	switch etherType {
	case layers.EthernetTypeIPv4:
	case layers.EthernetTypeIPv6:
		return f, ErrNotIPv4
	default:
		return f, ErrNoIPLayer
	}

	ip := data[ethernetHeaderSize:]
	if len(ip) < ipv4HeaderMinSize {
		return f, ErrTruncatedIPHeader
	}
	if ip[0]>>4 != 4 {
		return f, ErrNotIPv4
	}
	ihl := int(ip[0]&0x0f) * 4
	if ihl < ipv4HeaderMinSize || len(ip) < ihl {
		return f, ErrTruncatedIPHeader
	}
	if layers.IPProtocol(ip[9]) != layers.IPProtocolTCP {
		return f, ErrNotTCP
	}
	totalLength := int(binary.BigEndian.Uint16(ip[2:4]))
	if totalLength < ihl || totalLength > len(ip) {
		return f, ErrTruncatedIPHeader
	}
	tcpSegment := ip[ihl:totalLength]
	if len(tcpSegment) < tcpHeaderMinSize {
		return f, ErrTruncatedTCPHeader
	}

	dataOffset := int(tcpSegment[12]>>4) * 4
	if dataOffset < tcpHeaderMinSize || dataOffset > len(tcpSegment) {
		return f, ErrTruncatedTCPHeader
	}

	copy(f.Flow.SrcIP[:], ip[12:16])
	copy(f.Flow.DstIP[:], ip[16:20])
	f.Flow.SrcPort = layers.TCPPort(binary.BigEndian.Uint16(tcpSegment[0:2]))
	f.Flow.DstPort = layers.TCPPort(binary.BigEndian.Uint16(tcpSegment[2:4]))
	f.Seq = binary.BigEndian.Uint32(tcpSegment[4:8])
	f.Ack = binary.BigEndian.Uint32(tcpSegment[8:12])
	f.Window = binary.BigEndian.Uint16(tcpSegment[14:16])
	f.Flags = tcp.Flags(tcpSegment[13])
	f.PayloadLen = len(tcpSegment) - dataOffset
	return f, nil
}
