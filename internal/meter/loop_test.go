package meter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"frostmeter/internal/capture"
	"frostmeter/internal/crypt"
	"frostmeter/internal/protocol"
)

type countingHeartbeat struct {
	beats atomic.Int32
}

func (h *countingHeartbeat) Beat() { h.beats.Add(1) }

func runEngine(t *testing.T, e *Engine, frames chan capture.Frame) chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background(), frames) }()
	return done
}

func waitEngine(t *testing.T, done chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
		return nil
	}
}

// TestEngineProcessesFrames tests the frame channel end to end
func TestEngineProcessesFrames(t *testing.T) {
	em := &recordingEmitter{}
	sender := NewSender(em, false)
	handler := NewHandler(testTables(), crypt.Passthrough{}, nil, nil, sender)
	engine := NewEngine(handler, NewCommandListener(), sender, &countingHeartbeat{})

	frames := make(chan capture.Frame, 8)
	frames <- capture.Frame{Op: protocol.OpNewNpc, Payload: bossSpawnPayload(fxBossObjectID, fxBossTypeID, 60_000_000), TS: 1000}
	frames <- capture.Frame{Op: protocol.OpSkillDamageNotify, Payload: damagePayload(fxLocalEntityID, fxSkillID, protocol.SkillDamageEvent{
		TargetID: fxBossObjectID, Damage: 1000, CurHP: 1,
	}), TS: 2000}
	close(frames)

	done := runEngine(t, engine, frames)
	if err := waitEngine(t, done); err != nil {
		t.Fatalf("closed channel should end cleanly: %v", err)
	}
	if handler.State.Encounter.FightStart != 2000 {
		t.Errorf("frames were not dispatched, fight start %d", handler.State.Encounter.FightStart)
	}
	if !em.waitCount(EventEncounterUpdate, 1, 2*time.Second) {
		t.Error("the loop should publish after dispatch")
	}
}

// TestEngineContextCancel tests shutdown via context
func TestEngineContextCancel(t *testing.T) {
	sender := NewSender(&recordingEmitter{}, false)
	handler := NewHandler(testTables(), crypt.Passthrough{}, nil, nil, sender)
	engine := NewEngine(handler, NewCommandListener(), sender, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx, make(chan capture.Frame)) }()
	cancel()

	if err := waitEngine(t, done); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestEngineResetCommand tests that a reset flag rewinds every tracker
func TestEngineResetCommand(t *testing.T) {
	sender := NewSender(&recordingEmitter{}, false)
	handler := NewHandler(testTables(), crypt.Passthrough{}, nil, nil, sender)
	listener := NewCommandListener()
	engine := NewEngine(handler, listener, sender, nil)

	// Unbuffered channel: each send completes only once the loop is back at
	// its select, so the frame before it has been fully processed.
	frames := make(chan capture.Frame)
	done := runEngine(t, engine, frames)

	frames <- capture.Frame{Op: protocol.OpInitPC, Payload: protocol.EncodeInitPC(protocol.PKTInitPC{
		PlayerID: fxLocalEntityID, CharacterID: fxLocalCharID, Name: "Frostbite", ClassID: 102,
	}), TS: 1000}
	frames <- capture.Frame{Op: protocol.OpNewNpc, Payload: bossSpawnPayload(fxBossObjectID, fxBossTypeID, 60_000_000), TS: 1010}
	frames <- capture.Frame{Op: protocol.OpSkillDamageNotify, Payload: damagePayload(fxLocalEntityID, fxSkillID, protocol.SkillDamageEvent{
		TargetID: fxBossObjectID, Damage: 1000, CurHP: 1,
	}), TS: 2000}
	frames <- capture.Frame{Op: protocol.OpRaidBegin, Payload: protocol.EncodeRaidBegin(protocol.PKTRaidBegin{RaidID: 1}), TS: 2500}

	listener.RequestReset()
	// The reset is consumed before this frame dispatches.
	frames <- capture.Frame{Op: protocol.OpZoneMemberLoadStatusNotify, Payload: protocol.EncodeZoneMemberLoadStatusNotify(protocol.PKTZoneMemberLoadStatusNotify{}), TS: 3000}
	close(frames)

	waitEngine(t, done)

	if handler.State.Encounter.FightStart != 0 {
		t.Error("reset should rewind the encounter")
	}
	if handler.Registry.LocalEntityID != fxLocalEntityID {
		t.Errorf("reset keeps the local anchor, got %d", handler.Registry.LocalEntityID)
	}
	if _, ok := handler.Registry.Get(fxBossObjectID); ok {
		t.Error("reset drops non-local entities")
	}
}

// TestEnginePauseCommand tests that paused frames are skipped
func TestEnginePauseCommand(t *testing.T) {
	sender := NewSender(&recordingEmitter{}, false)
	handler := NewHandler(testTables(), crypt.Passthrough{}, nil, nil, sender)
	listener := NewCommandListener()
	engine := NewEngine(handler, listener, sender, nil)

	listener.RequestPauseToggle()
	frames := make(chan capture.Frame, 4)
	frames <- capture.Frame{Op: protocol.OpSkillDamageNotify, Payload: damagePayload(fxLocalEntityID, fxSkillID, protocol.SkillDamageEvent{
		TargetID: fxBossObjectID, Damage: 1000, CurHP: 1,
	}), TS: 1000}
	close(frames)

	done := runEngine(t, engine, frames)
	waitEngine(t, done)

	if handler.State.Encounter.FightStart != 0 {
		t.Error("paused loop must not dispatch")
	}
}

// TestEngineBossOnlyCommand tests live boss-only switching
func TestEngineBossOnlyCommand(t *testing.T) {
	sender := NewSender(&recordingEmitter{}, false)
	handler := NewHandler(testTables(), crypt.Passthrough{}, nil, nil, sender)
	listener := NewCommandListener()
	engine := NewEngine(handler, listener, sender, nil)

	listener.RequestBossOnly(true)
	frames := make(chan capture.Frame, 4)
	frames <- capture.Frame{Op: protocol.OpRaidBegin, Payload: protocol.EncodeRaidBegin(protocol.PKTRaidBegin{RaidID: 1}), TS: 1000}
	close(frames)

	done := runEngine(t, engine, frames)
	waitEngine(t, done)

	if !handler.State.Encounter.BossOnlyDamage {
		t.Error("boss-only flag should apply before dispatch")
	}
}

// TestEngineFinishReset tests that a pending soft reset completes after publish
func TestEngineFinishReset(t *testing.T) {
	sender := NewSender(&recordingEmitter{}, false)
	handler := NewHandler(testTables(), crypt.Passthrough{}, nil, nil, sender)
	engine := NewEngine(handler, NewCommandListener(), sender, nil)

	frames := make(chan capture.Frame, 8)
	frames <- capture.Frame{Op: protocol.OpNewNpc, Payload: bossSpawnPayload(fxBossObjectID, fxBossTypeID, 60_000_000), TS: 1000}
	frames <- capture.Frame{Op: protocol.OpSkillDamageNotify, Payload: damagePayload(fxLocalEntityID, fxSkillID, protocol.SkillDamageEvent{
		TargetID: fxBossObjectID, Damage: 1000, CurHP: 1,
	}), TS: 2000}
	// Wipe sets Resetting; the loop finishes the reset after publishing.
	frames <- capture.Frame{Op: protocol.OpTriggerStartNotify, Payload: protocol.EncodeTriggerStartNotify(protocol.PKTTriggerStartNotify{Signal: 58}), TS: 3000}
	close(frames)

	done := runEngine(t, engine, frames)
	waitEngine(t, done)

	if handler.State.Resetting || handler.State.PartyFreeze {
		t.Error("pending reset should complete")
	}
	if handler.State.Encounter.FightStart != 0 {
		t.Error("the encounter should have rewound")
	}
}
