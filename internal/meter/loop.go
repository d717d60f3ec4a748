package meter

import (
	"context"
	"log"
	"time"

	"frostmeter/internal/capture"
)

// Heartbeater sends the periodic liveness ping. Beats run fire-and-forget on
// their own goroutine.
type Heartbeater interface {
	Beat()
}

const heartbeatInterval = 15 * time.Minute

// Engine runs the packet loop: one goroutine that owns every tracker, reading
// frames off the capture channel and processing them to completion one at a
// time. Command flags are checked once per iteration, before dispatch.
type Engine struct {
	Handler  *Handler
	Listener *CommandListener
	Sender   *Sender

	heartbeat Heartbeater
	paused    bool
}

func NewEngine(handler *Handler, listener *CommandListener, sender *Sender, heartbeat Heartbeater) *Engine {
	return &Engine{
		Handler:   handler,
		Listener:  listener,
		Sender:    sender,
		heartbeat: heartbeat,
	}
}

// Run processes frames until the capture channel closes or the context is
// cancelled. Resets happen in place; the loop itself never restarts.
func (e *Engine) Run(ctx context.Context, frames <-chan capture.Frame) error {
	log.Println("🚀 tracking engine started")

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	if e.heartbeat != nil {
		go e.heartbeat.Beat()
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 tracking engine stopped")
			return ctx.Err()

		case <-ticker.C:
			if e.heartbeat != nil {
				go e.heartbeat.Beat()
			}

		case frame, ok := <-frames:
			if !ok {
				log.Println("🛑 capture ended, tracking engine stopped")
				return nil
			}
			e.consumeFlags()
			if e.paused {
				continue
			}
			e.Handler.Dispatch(frame.Op, frame.Payload, frame.TS)
			e.Sender.Publish(e.Handler.State, e.Handler.Party, frame.TS)
			e.finishReset()
		}
	}
}

// consumeFlags applies any pending external commands.
func (e *Engine) consumeFlags() {
	h := e.Handler
	if e.Listener.ConsumeReset() {
		log.Println("🔄 manual reset")
		h.State.SoftReset()
		h.IDs.Reset()
		h.Party.Reset()
		h.Status.Reset()
		h.Skills.Reset()
		h.Registry.InitEnv(h.Registry.LocalEntityID)
		e.Sender.InvalidateParty()
	}
	if e.Listener.ConsumeSave() {
		log.Println("💾 manual save")
		h.State.RequestSave()
	}
	if e.Listener.ConsumePauseToggle() {
		e.paused = !e.paused
		log.Printf("⏸️ paused=%v", e.paused)
	}
	if e.Listener.ConsumeDetailsToggle() {
		h.EmitDetails = !h.EmitDetails
	}
	if v, set := e.Listener.ConsumeBossOnly(); set {
		h.State.Encounter.BossOnlyDamage = v
	}
}

// finishReset completes a pending soft reset after the final snapshot of the
// old encounter went out.
func (e *Engine) finishReset() {
	state := e.Handler.State
	if !state.Resetting {
		return
	}
	state.SoftReset()
	state.Resetting = false
	state.PartyFreeze = false
}
