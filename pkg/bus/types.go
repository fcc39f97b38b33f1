package bus

// InboundMessage is one raw directive message handed over by a channel
// adapter, still undecoded. Payload carries the JSON envelope as delivered by
// the transport.
type InboundMessage struct {
	Channel   string            `json:"channel"`
	MessageID string            `json:"message_id"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
