package capture

import (
	"context"
	"fmt"
	"log"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// LiveSource sniffs the game connection off a network device.
type LiveSource struct {
	Device string
	Port   uint16
}

func NewLiveSource(device string, port uint16) *LiveSource {
	return &LiveSource{Device: device, Port: port}
}

func (s *LiveSource) Start(ctx context.Context) (<-chan Frame, error) {
	handle, err := pcap.OpenLive(s.Device, 65535, false, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("open device %s: %w", s.Device, err)
	}
	if err := handle.SetBPFFilter(fmt.Sprintf("tcp and port %d", s.Port)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("set capture filter: %w", err)
	}

	out := make(chan Frame, frameChanSize)
	packets := gopacket.NewPacketSource(handle, handle.LinkType())
	go func() {
		defer close(out)
		defer handle.Close()
		log.Printf("📡 capturing on %s port %d", s.Device, s.Port)
		runAssembly(packets, out, ctx.Done())
		log.Printf("📡 capture on %s stopped", s.Device)
	}()
	return out, nil
}
