package meter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPacketsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meter_packets_dispatched_total",
		Help: "Packets routed through the dispatch handler, by opcode.",
	}, []string{"opcode"})

	metricDecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meter_packet_decode_failures_total",
		Help: "Payloads dropped because they failed to parse.",
	})

	metricDecryptFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meter_damage_decrypt_failures_total",
		Help: "Damage events excluded because decryption failed.",
	})

	metricSnapshotsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meter_snapshots_published_total",
		Help: "Encounter snapshots emitted to the presentation layer.",
	})
)
