/*
Package metrics defines the Prometheus collectors exported by the chat client.

Decode failures are the observability signal for dropped frames; the remaining
counters track traffic in both directions.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesReceived counts text frames delivered by the transport.
	FramesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatview_frames_received_total",
			Help: "Total frames received from the chat server",
		},
	)

	// FramesApplied counts frames that changed the room state, by message type.
	FramesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatview_frames_applied_total",
			Help: "Total frames that changed room state",
		},
		[]string{"message_type"},
	)

	// DecodeErrors counts frames dropped because they could not be decoded.
	DecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatview_decode_errors_total",
			Help: "Total frames dropped due to decode errors",
		},
		[]string{"kind"}, // "envelope" or "payload"
	)

	// FramesSent counts frames handed to the transport, by message type.
	FramesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatview_frames_sent_total",
			Help: "Total frames queued for sending",
		},
		[]string{"message_type"},
	)

	// SendFailures counts frames the transport refused.
	SendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatview_send_failures_total",
			Help: "Total frames the transport refused to queue",
		},
	)

	// RosterSize is the number of members in the latest roster snapshot.
	RosterSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatview_roster_size",
			Help: "Members in the latest roster snapshot",
		},
	)

	// BusSubscribers is the number of live frame bus subscriptions.
	BusSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatview_bus_subscribers",
			Help: "Live frame bus subscriptions",
		},
	)
)
