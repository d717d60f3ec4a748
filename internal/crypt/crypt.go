// Package crypt exposes the damage-value deobfuscation capability. Damage
// numbers arrive XOR-masked with a per-zone key; the tracker only sees a
// decrypt-in-place call that either succeeds or reports failure.
package crypt

import (
	"encoding/binary"

	"frostmeter/internal/protocol"
)

// Handler decrypts obfuscated damage events in place. A false return means
// the event must still count as received but be excluded from valid totals.
type Handler interface {
	DecryptDamageEvent(ev *protocol.SkillDamageEvent) bool
	UpdateZoneInstanceID(id uint32)
}

// XORHandler unmasks damage values with a per-zone 8-byte key. Events from a
// zone whose key is not in the ring cannot be decrypted.
type XORHandler struct {
	keys map[uint32][8]byte
	zone uint32
}

func NewXORHandler(keys map[uint32][8]byte) *XORHandler {
	if keys == nil {
		keys = make(map[uint32][8]byte)
	}
	return &XORHandler{keys: keys}
}

// AddZoneKey registers the key for a zone instance.
func (h *XORHandler) AddZoneKey(zone uint32, key [8]byte) {
	h.keys[zone] = key
}

// UpdateZoneInstanceID switches the active zone key on zone transit.
func (h *XORHandler) UpdateZoneInstanceID(id uint32) {
	h.zone = id
}

// DecryptDamageEvent unmasks the damage field using the active zone key.
func (h *XORHandler) DecryptDamageEvent(ev *protocol.SkillDamageEvent) bool {
	if ev.Flags&protocol.DamageFlagEncrypted == 0 {
		return true
	}
	key, ok := h.keys[h.zone]
	if !ok {
		return false
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(ev.Damage))
	for i := range buf {
		buf[i] ^= key[i]
	}
	ev.Damage = int64(binary.LittleEndian.Uint64(buf[:]))
	ev.Flags &^= protocol.DamageFlagEncrypted
	return true
}

// Passthrough accepts every event unchanged. Useful for replayed captures
// that were recorded post-decryption.
type Passthrough struct{}

func (Passthrough) DecryptDamageEvent(ev *protocol.SkillDamageEvent) bool {
	ev.Flags &^= protocol.DamageFlagEncrypted
	return true
}

func (Passthrough) UpdateZoneInstanceID(uint32) {}
