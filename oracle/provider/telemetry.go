package provider

import (
	metrics "github.com/armon/go-metrics"

	"github.com/ojo-network/refprice-feeder/oracle/types"
)

// MessageType classifies a websocket frame for telemetry purposes.
type MessageType string

const (
	MessageTypeSnapshot  = MessageType("snapshot")
	MessageTypeAck       = MessageType("ack")
	MessageTypeHeartbeat = MessageType("heartbeat")
	MessageTypeUnknown   = MessageType("unknown")
)

// String casts a MessageType to string.
func (mt MessageType) String() string {
	return string(mt)
}

func venueLabel(v types.Venue) metrics.Label {
	return metrics.Label{Name: "venue", Value: v.String()}
}

func messageTypeLabel(mt MessageType) metrics.Label {
	return metrics.Label{Name: "type", Value: mt.String()}
}

// telemetryWebsocketReconnect records a `refprice_feeder_websocket_reconnect`
// counter increment for the given venue.
func telemetryWebsocketReconnect(v types.Venue) {
	metrics.IncrCounterWithLabels(
		[]string{"websocket", "reconnect"},
		1,
		[]metrics.Label{venueLabel(v)},
	)
}

// telemetryWebsocketSubscribe records a `refprice_feeder_websocket_subscribe`
// counter increment for the given venue.
func telemetryWebsocketSubscribe(v types.Venue, incr int) {
	metrics.IncrCounterWithLabels(
		[]string{"websocket", "subscribe"},
		float32(incr),
		[]metrics.Label{venueLabel(v)},
	)
}

// telemetryWebsocketMessage records a
// `refprice_feeder_websocket_message{type="x", venue="x"}` counter increment.
func telemetryWebsocketMessage(v types.Venue, mt MessageType) {
	metrics.IncrCounterWithLabels(
		[]string{"websocket", "message"},
		1,
		[]metrics.Label{venueLabel(v), messageTypeLabel(mt)},
	)
}

// TelemetryFailure records a `refprice_feeder_failure{type="x", venue="x"}`
// counter increment.
func TelemetryFailure(v types.Venue, mt MessageType) {
	metrics.IncrCounterWithLabels(
		[]string{"failure"},
		1,
		[]metrics.Label{venueLabel(v), messageTypeLabel(mt)},
	)
}
