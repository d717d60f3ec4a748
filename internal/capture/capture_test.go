package capture

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"frostmeter/internal/protocol"
)

func frameBytes(op protocol.Opcode, payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint16(buf, uint16(2+len(payload)))
	binary.LittleEndian.PutUint16(buf[2:], uint16(op))
	copy(buf[4:], payload)
	return buf
}

func drain(out chan Frame) []Frame {
	var frames []Frame
	for {
		select {
		case f := <-out:
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

// TestSplitterSingleFrame tests cutting one complete frame
func TestSplitterSingleFrame(t *testing.T) {
	out := make(chan Frame, 16)
	s := &frameSplitter{out: out}
	ts := time.UnixMilli(123_456)

	s.feed(frameBytes(protocol.OpRaidBegin, []byte{1, 2, 3, 4}), ts)

	frames := drain(out)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	f := frames[0]
	if f.Op != protocol.OpRaidBegin || len(f.Payload) != 4 || f.TS != 123_456 {
		t.Errorf("frame wrong: %+v", f)
	}
}

// TestSplitterPartialDelivery tests frames split across stream segments
func TestSplitterPartialDelivery(t *testing.T) {
	out := make(chan Frame, 16)
	s := &frameSplitter{out: out}
	ts := time.UnixMilli(1000)

	full := frameBytes(protocol.OpDeathNotify, []byte{9, 9, 9, 9, 9, 9, 9, 9})
	s.feed(full[:3], ts)
	if len(drain(out)) != 0 {
		t.Fatal("incomplete frame must not emit")
	}
	s.feed(full[3:], ts)

	frames := drain(out)
	if len(frames) != 1 || frames[0].Op != protocol.OpDeathNotify {
		t.Fatalf("reassembled frame wrong: %+v", frames)
	}
}

// TestSplitterBackToBackFrames tests multiple frames in one segment
func TestSplitterBackToBackFrames(t *testing.T) {
	out := make(chan Frame, 16)
	s := &frameSplitter{out: out}
	ts := time.UnixMilli(1000)

	data := append(frameBytes(protocol.OpRaidBegin, []byte{1, 1, 1, 1}), frameBytes(protocol.OpRaidResult, nil)...)
	s.feed(data, ts)

	frames := drain(out)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].Op != protocol.OpRaidBegin || frames[1].Op != protocol.OpRaidResult {
		t.Errorf("frame order wrong: %+v", frames)
	}
	if len(frames[1].Payload) != 0 {
		t.Error("payload-less frame should decode empty")
	}
}

// TestSplitterResyncOnCorruptLength tests dropping the buffer on a bad prefix
func TestSplitterResyncOnCorruptLength(t *testing.T) {
	out := make(chan Frame, 16)
	s := &frameSplitter{out: out}
	ts := time.UnixMilli(1000)

	// A length prefix of 1 cannot hold an opcode: the stream is out of sync.
	s.feed([]byte{0x01, 0x00, 0xAA, 0xBB}, ts)
	if len(drain(out)) != 0 {
		t.Fatal("corrupt stream must not emit")
	}

	// The splitter recovers on the next clean segment.
	s.feed(frameBytes(protocol.OpRaidBegin, []byte{1, 2, 3, 4}), ts)
	frames := drain(out)
	if len(frames) != 1 || frames[0].Op != protocol.OpRaidBegin {
		t.Errorf("splitter should resync: %+v", frames)
	}
}

// TestStaticSourceServesFrames tests the fixed-list source used for dry runs
func TestStaticSourceServesFrames(t *testing.T) {
	src := &StaticSource{FramesList: []Frame{
		{Op: protocol.OpRaidBegin, TS: 1},
		{Op: protocol.OpRaidResult, TS: 2},
	}}

	out, err := src.Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	var got []Frame
	for f := range out {
		got = append(got, f)
	}
	if len(got) != 2 || got[0].Op != protocol.OpRaidBegin || got[1].TS != 2 {
		t.Errorf("frames wrong: %+v", got)
	}
}

// TestStaticSourceHonorsCancel tests that cancellation stops the feed
func TestStaticSourceHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &StaticSource{FramesList: make([]Frame, 100)}
	out, err := src.Start(ctx)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	n := 0
	for range out {
		n++
	}
	if n == 100 {
		t.Error("cancelled source should stop early")
	}
}
