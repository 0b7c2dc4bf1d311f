package network

import (
	"context"

	"broadphase/server/logging"
)

const (
	// EventClientSubscribed is emitted when a websocket client joins the feed.
	EventClientSubscribed logging.EventType = "network.client_subscribed"
	// EventClientDropped is emitted when a client disconnects or a write fails.
	EventClientDropped logging.EventType = "network.client_dropped"
)

// ClientPayload carries connection bookkeeping for subscribe/drop events.
type ClientPayload struct {
	Subscribers int    `json:"subscribers"`
	Reason      string `json:"reason,omitempty"`
}

// ClientSubscribed publishes a feed subscription event.
func ClientSubscribed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ClientPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventClientSubscribed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

// ClientDropped publishes a disconnect event.
func ClientDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ClientPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventClientDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
