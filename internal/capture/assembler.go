package capture

import (
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/tcpassembly"
)

// gameStreamFactory builds one frame splitter per reassembled TCP stream.
// All streams feed the same output channel; in practice only the game server
// connection matches the capture filter.
type gameStreamFactory struct {
	out chan<- Frame
}

func (f *gameStreamFactory) New(_, _ gopacket.Flow) tcpassembly.Stream {
	return &gameStream{splitter: frameSplitter{out: f.out}}
}

type gameStream struct {
	splitter frameSplitter
}

func (s *gameStream) Reassembled(segments []tcpassembly.Reassembly) {
	for _, seg := range segments {
		if len(seg.Bytes) == 0 {
			continue
		}
		ts := seg.Seen
		if ts.IsZero() {
			ts = time.Now()
		}
		s.splitter.feed(seg.Bytes, ts)
	}
}

func (s *gameStream) ReassemblyComplete() {}

// runAssembly drains a packet source into a TCP assembler until it is
// exhausted or the done channel closes. Flush ticks bound how long partial
// streams are held.
func runAssembly(packets *gopacket.PacketSource, out chan<- Frame, done <-chan struct{}) {
	assembler := tcpassembly.NewAssembler(tcpassembly.NewStreamPool(&gameStreamFactory{out: out}))
	flush := time.NewTicker(30 * time.Second)
	defer flush.Stop()

	for {
		select {
		case <-done:
			return
		case <-flush.C:
			assembler.FlushOlderThan(time.Now().Add(-time.Minute))
		case pkt, ok := <-packets.Packets():
			if !ok {
				assembler.FlushAll()
				return
			}
			tcpLayer := pkt.Layer(layers.LayerTypeTCP)
			if tcpLayer == nil {
				continue
			}
			tcp := tcpLayer.(*layers.TCP)
			assembler.AssembleWithTimestamp(pkt.NetworkLayer().NetworkFlow(), tcp, pkt.Metadata().Timestamp)
		}
	}
}
