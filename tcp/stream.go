package tcp

const (
	// SeenWindowBytes is how far behind the highest observed seq end a
	// tracked sequence number may fall before it is evicted.
	SeenWindowBytes = 16 * 1024 * 1024

	// SeenMaxTracked is the hard cap on tracked sequence numbers per
	// direction.  When exceeded, the oldest quarter is dropped.
	SeenMaxTracked = 200000
)

// Flags holds the TCP flag bits of one segment.
type Flags uint8

// Flag bit positions match the TCP header flag byte.
const (
	flagFIN Flags = 1 << iota
	flagSYN
	flagRST
	flagPSH
	flagACK
)

func (f Flags) FIN() bool { return f&flagFIN != 0 }
func (f Flags) SYN() bool { return f&flagSYN != 0 }
func (f Flags) RST() bool { return f&flagRST != 0 }
func (f Flags) PSH() bool { return f&flagPSH != 0 }
func (f Flags) ACK() bool { return f&flagACK != 0 }

// MakeFlags builds a Flags value from individual bits.  Useful for callers
// that decode headers themselves and for tests.
func MakeFlags(syn, fin, rst, ack bool) Flags {
	var f Flags
	if syn {
		f |= flagSYN
	}
	if fin {
		f |= flagFIN
	}
	if rst {
		f |= flagRST
	}
	if ack {
		f |= flagACK
	}
	return f
}

// outstandingSegment is a payload-bearing segment waiting for a cumulative
// ACK from the peer.
type outstandingSegment struct {
	seqEnd uint32 // seq + payload length
	tsUS   uint64 // capture timestamp when sent
}

// segmentQueue is a FIFO of outstanding segments.  A head index avoids
// reallocating on every pop; the backing array is compacted when the dead
// prefix grows large.
type segmentQueue struct {
	q    []outstandingSegment
	head int
}

func (s *segmentQueue) push(seg outstandingSegment) {
	s.q = append(s.q, seg)
}

func (s *segmentQueue) front() (outstandingSegment, bool) {
	if s.head >= len(s.q) {
		return outstandingSegment{}, false
	}
	return s.q[s.head], true
}

func (s *segmentQueue) pop() {
	s.head++
	if s.head > 1024 && s.head > len(s.q)/2 {
		s.q = append(s.q[:0], s.q[s.head:]...)
		s.head = 0
	}
}

func (s *segmentQueue) len() int {
	return len(s.q) - s.head
}

// seqQueue is a FIFO of sequence numbers, in arrival order, used to evict
// entries from the seen-sequence set.
type seqQueue struct {
	q    []uint32
	head int
}

func (s *seqQueue) push(seq uint32) {
	s.q = append(s.q, seq)
}

func (s *seqQueue) front() (uint32, bool) {
	if s.head >= len(s.q) {
		return 0, false
	}
	return s.q[s.head], true
}

func (s *seqQueue) pop() {
	s.head++
	if s.head > 1024 && s.head > len(s.q)/2 {
		s.q = append(s.q[:0], s.q[s.head:]...)
		s.head = 0
	}
}

func (s *seqQueue) len() int {
	return len(s.q) - s.head
}

// StreamState tracks one direction of a TCP conversation.
type StreamState struct {
	PacketCount         uint32
	RetransmissionCount uint32
	OutOfOrderCount     uint32
	ZeroWindowEvents    uint32
	DuplicateAckEvents  uint32

	// Retransmission detection: payload-bearing sequence numbers seen in
	// this direction, bounded by SeenWindowBytes/SeenMaxTracked.
	seenSeqNumbers map[uint32]struct{}
	seenSeqQueue   seqQueue

	// Modular max of seq+len observed; later segments starting before it
	// are out of order.
	highestSeqEnd    uint32
	highestSeqEndSet bool

	// Duplicate-ACK tracking over pure ACKs.
	lastAckSeen      uint32
	lastAckSeenSet   bool
	lastWindowSeen   uint16
	lastWindowSet    bool
	DupAckStreak     uint32

	outstanding segmentQueue
	rtt         RTTStats
}

// RTT returns the RTT sampler for this direction.
func (s *StreamState) RTT() *RTTStats {
	return &s.rtt
}

// HighestSeqEnd returns the watermark and whether it has been set.
func (s *StreamState) HighestSeqEnd() (uint32, bool) {
	return s.highestSeqEnd, s.highestSeqEndSet
}

// SeenCount returns the number of tracked sequence numbers.  The set and
// its eviction queue always hold the same keys.
func (s *StreamState) SeenCount() (set, queue int) {
	return len(s.seenSeqNumbers), s.seenSeqQueue.len()
}

// OutstandingCount returns the number of segments awaiting a cumulative ACK.
func (s *StreamState) OutstandingCount() int {
	return s.outstanding.len()
}

// Update consumes one segment sent in this direction.
func (s *StreamState) Update(seq, ack uint32, window uint16, payloadLen int, flags Flags, tsMicros uint64) {
	s.PacketCount++

	// Zero window: an ACK (not SYN/RST) advertising win=0.
	if flags.ACK() && !flags.SYN() && !flags.RST() && window == 0 {
		s.ZeroWindowEvents++
	}

	// Duplicate ACKs: compare against the values seen before this packet.
	sameAck := s.lastAckSeenSet && s.lastAckSeen == ack
	sameWin := s.lastWindowSet && s.lastWindowSeen == window

	if payloadLen == 0 && flags.ACK() && !flags.SYN() && !flags.FIN() && !flags.RST() {
		if sameAck && sameWin {
			s.DupAckStreak++
			// The event fires once, when the streak reaches three.
			if s.DupAckStreak == 3 {
				s.DuplicateAckEvents++
			}
		} else {
			s.lastAckSeen = ack
			s.lastAckSeenSet = true
			s.lastWindowSeen = window
			s.lastWindowSet = true
			s.DupAckStreak = 1
		}
	} else {
		s.DupAckStreak = 0
	}

	// The window value is refreshed on every packet, streak or not.
	s.lastWindowSeen = window
	s.lastWindowSet = true

	s.onData(seq, payloadLen, flags, tsMicros)
}

// onData applies the payload heuristics: retransmission, out-of-order,
// watermark advance, and the outstanding queue feeding RTT estimation.
func (s *StreamState) onData(seq uint32, payloadLen int, flags Flags, tsMicros uint64) {
	isRetx := false

	// Retransmission: repeated seq with payload.  SYN/FIN/RST are ignored
	// so connection-control retries don't count.
	if payloadLen > 0 && !flags.SYN() && !flags.FIN() && !flags.RST() {
		if _, seen := s.seenSeqNumbers[seq]; seen {
			s.RetransmissionCount++
			isRetx = true
		}
	}

	if payloadLen > 0 && !isRetx {
		if s.seenSeqNumbers == nil {
			s.seenSeqNumbers = make(map[uint32]struct{})
		}
		if _, ok := s.seenSeqNumbers[seq]; !ok {
			s.seenSeqNumbers[seq] = struct{}{}
			s.seenSeqQueue.push(seq)
		}
	}

	if payloadLen > 0 {
		segEnd := seq + uint32(payloadLen) // wraps at 2^32
		if !s.highestSeqEndSet {
			s.highestSeqEnd = segEnd
			s.highestSeqEndSet = true
		} else {
			// A retransmitted segment is counted once, as a retransmit.
			if !isRetx && SeqLT(seq, s.highestSeqEnd) {
				s.OutOfOrderCount++
			}
			if SeqGT(segEnd, s.highestSeqEnd) {
				s.highestSeqEnd = segEnd
			}
		}

		s.outstanding.push(outstandingSegment{seqEnd: segEnd, tsUS: tsMicros})

		s.maintainSeenWindow()
	}
}

// AckOutstanding consumes all outstanding segments confirmed by a cumulative
// ACK from the peer, recording an RTT sample for each.  Capture timestamps
// are not guaranteed monotone, so the subtraction saturates at zero.
func (s *StreamState) AckOutstanding(ack uint32, tsMicros uint64) {
	for {
		front, ok := s.outstanding.front()
		if !ok || !SeqLTE(front.seqEnd, ack) {
			break
		}
		var sample uint64
		if tsMicros > front.tsUS {
			sample = tsMicros - front.tsUS
		}
		s.rtt.AddSample(sample)
		s.outstanding.pop()
	}
}

// maintainSeenWindow bounds the seen-sequence set for long-lived flows:
// entries more than SeenWindowBytes behind the watermark are evicted in
// arrival order, and the set never exceeds SeenMaxTracked.
func (s *StreamState) maintainSeenWindow() {
	if s.highestSeqEndSet {
		for {
			front, ok := s.seenSeqQueue.front()
			if !ok || ForwardDistance(front, s.highestSeqEnd) <= SeenWindowBytes {
				break
			}
			s.seenSeqQueue.pop()
			delete(s.seenSeqNumbers, front)
		}
	}
	if len(s.seenSeqNumbers) > SeenMaxTracked {
		drop := len(s.seenSeqNumbers) / 4
		for i := 0; i < drop; i++ {
			front, ok := s.seenSeqQueue.front()
			if !ok {
				break
			}
			s.seenSeqQueue.pop()
			delete(s.seenSeqNumbers, front)
		}
	}
}
