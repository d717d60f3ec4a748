package capture

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
)

// FileSource replays a recorded session from a pcap file, mostly for demos
// and regression captures. Frames carry the recorded timestamps, so replayed
// encounters keep their original pacing in the stats.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Start(ctx context.Context) (<-chan Frame, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}
	reader, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read capture file %s: %w", s.Path, err)
	}

	out := make(chan Frame, frameChanSize)
	packets := gopacket.NewPacketSource(reader, reader.LinkType())
	go func() {
		defer close(out)
		defer f.Close()
		log.Printf("📼 replaying %s", s.Path)
		runAssembly(packets, out, ctx.Done())
		log.Printf("📼 replay of %s finished", s.Path)
	}()
	return out, nil
}

// StaticSource serves a pre-built frame list, for tests and dry runs.
type StaticSource struct {
	FramesList []Frame
}

func (s *StaticSource) Start(ctx context.Context) (<-chan Frame, error) {
	out := make(chan Frame, len(s.FramesList))
	go func() {
		defer close(out)
		for _, f := range s.FramesList {
			select {
			case <-ctx.Done():
				return
			case out <- f:
			}
		}
	}()
	return out, nil
}
