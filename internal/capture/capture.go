// Package capture turns raw network traffic into the decoded frame stream
// the tracking loop consumes. Sources share one wire format: each game frame
// is [u16 length][u16 opcode][payload], little-endian, where length counts
// the opcode and payload bytes.
package capture

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"frostmeter/internal/protocol"
)

// Frame is one decoded game packet with its arrival timestamp (ms).
type Frame struct {
	Op      protocol.Opcode
	Payload []byte
	TS      int64
}

// Source produces the frame stream for one capture session. The returned
// channel closes when the session ends; a failure to start is fatal to the
// session.
type Source interface {
	Start(ctx context.Context) (<-chan Frame, error)
}

// Bounded hand-off between the capture goroutine and the processing loop.
const frameChanSize = 4096

var (
	metricFramesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capture_frames_total",
		Help: "Game frames extracted from the transport stream.",
	})
	metricBytesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capture_bytes_total",
		Help: "Reassembled payload bytes seen by the frame splitter.",
	})
	metricFramingErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capture_framing_errors_total",
		Help: "Stream resyncs after a corrupt length prefix.",
	})
)

// frameSplitter accumulates reassembled stream bytes and cuts complete
// frames out of them.
type frameSplitter struct {
	buf []byte
	out chan<- Frame
}

// feed appends stream bytes and emits every complete frame. A length prefix
// too short to hold an opcode means the stream is out of sync; the buffer is
// dropped and splitting resumes at the next packet boundary.
func (s *frameSplitter) feed(data []byte, ts time.Time) {
	metricBytesCaptured.Add(float64(len(data)))
	s.buf = append(s.buf, data...)
	for {
		if len(s.buf) < 2 {
			return
		}
		frameLen := int(binary.LittleEndian.Uint16(s.buf))
		if frameLen < 2 {
			metricFramingErrors.Inc()
			s.buf = nil
			return
		}
		if len(s.buf) < 2+frameLen {
			return
		}
		op := protocol.Opcode(binary.LittleEndian.Uint16(s.buf[2:]))
		payload := make([]byte, frameLen-2)
		copy(payload, s.buf[4:2+frameLen])
		s.buf = s.buf[2+frameLen:]

		metricFramesCaptured.Inc()
		s.out <- Frame{Op: op, Payload: payload, TS: ts.UnixMilli()}
	}
}
