package models

// Endpoint is a live, addressable connection to one client.
// It is owned by the transport; everything else holds it by reference only.
type Endpoint interface {
	ID() string
	Principal() Principal
	// Send queues msg without waiting for delivery. A non-nil error means the
	// message was dropped.
	Send(msg OutboundMessage) error
}
