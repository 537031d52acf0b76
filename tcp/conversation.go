package tcp

import "github.com/m-lab/tcp-health/flow"

// Conversation pairs the two directed streams of a TCP connection under the
// canonical flow key, which is the first direction observed.
type Conversation struct {
	Flow flow.Flow
	C2S  StreamState
	S2C  StreamState
}

// Streams returns the (forward, reverse) stream pair for a packet observed
// on flow f.  Packets matching the canonical direction update C2S.
func (c *Conversation) Streams(f flow.Flow) (fwd, rev *StreamState) {
	if f == c.Flow {
		return &c.C2S, &c.S2C
	}
	return &c.S2C, &c.C2S
}

// ConversationMap indexes conversations by canonical flow.  Lookups probe
// both directions before inserting, so either endpoint's key resolves to
// the same conversation.
type ConversationMap map[flow.Flow]*Conversation

// Get returns the conversation for f, creating it with f as the canonical
// direction when neither f nor its reverse is present.
func (m ConversationMap) Get(f flow.Flow) *Conversation {
	if c, ok := m[f]; ok {
		return c
	}
	if c, ok := m[f.Reverse()]; ok {
		return c
	}
	c := &Conversation{Flow: f}
	m[f] = c
	return c
}
