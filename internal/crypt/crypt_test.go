package crypt

import (
	"encoding/binary"
	"testing"

	"frostmeter/internal/protocol"
)

func maskDamage(value int64, key [8]byte) int64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(value))
	for i := range buf {
		buf[i] ^= key[i]
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// TestXORHandlerDecrypts tests that a masked damage value unmasks with the
// active zone key and the encrypted flag clears.
func TestXORHandlerDecrypts(t *testing.T) {
	key := [8]byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04}
	h := NewXORHandler(map[uint32][8]byte{42: key})
	h.UpdateZoneInstanceID(42)

	ev := protocol.SkillDamageEvent{
		Damage:   maskDamage(123456, key),
		Modifier: protocol.HitFlagCrit,
		Flags:    protocol.DamageFlagEncrypted,
	}
	if !h.DecryptDamageEvent(&ev) {
		t.Fatal("decrypt should succeed with a registered zone key")
	}
	if ev.Damage != 123456 {
		t.Errorf("damage = %d, want 123456", ev.Damage)
	}
	if ev.Flags&protocol.DamageFlagEncrypted != 0 {
		t.Error("encrypted flag should be cleared")
	}
	if ev.Modifier&protocol.HitFlagCrit == 0 {
		t.Error("hit modifiers should survive decryption")
	}
}

// TestXORHandlerUnknownZone tests that events from an unkeyed zone report
// failure and stay untouched.
func TestXORHandlerUnknownZone(t *testing.T) {
	h := NewXORHandler(nil)
	h.UpdateZoneInstanceID(7)
	ev := protocol.SkillDamageEvent{Damage: 999, Flags: protocol.DamageFlagEncrypted}
	if h.DecryptDamageEvent(&ev) {
		t.Fatal("decrypt should fail without a zone key")
	}
	if ev.Damage != 999 {
		t.Errorf("failed decrypt mutated damage: %d", ev.Damage)
	}
}

// TestXORHandlerPlainEvent tests that unencrypted events pass through without
// touching the key ring.
func TestXORHandlerPlainEvent(t *testing.T) {
	h := NewXORHandler(nil)
	ev := protocol.SkillDamageEvent{Damage: 5000}
	if !h.DecryptDamageEvent(&ev) {
		t.Fatal("plain event should always succeed")
	}
	if ev.Damage != 5000 {
		t.Errorf("plain event mutated: %d", ev.Damage)
	}
}

// TestXORHandlerZoneSwitch tests that switching zones selects the right key.
func TestXORHandlerZoneSwitch(t *testing.T) {
	keyA := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	keyB := [8]byte{9, 9, 9, 9, 9, 9, 9, 9}
	h := NewXORHandler(nil)
	h.AddZoneKey(1, keyA)
	h.AddZoneKey(2, keyB)

	h.UpdateZoneInstanceID(2)
	ev := protocol.SkillDamageEvent{Damage: maskDamage(777, keyB), Flags: protocol.DamageFlagEncrypted}
	if !h.DecryptDamageEvent(&ev) {
		t.Fatal("decrypt failed after zone switch")
	}
	if ev.Damage != 777 {
		t.Errorf("damage = %d, want 777", ev.Damage)
	}
}

// TestPassthrough tests that the passthrough handler accepts everything and
// strips the encrypted flag.
func TestPassthrough(t *testing.T) {
	var h Passthrough
	ev := protocol.SkillDamageEvent{Damage: 42, Flags: protocol.DamageFlagEncrypted}
	if !h.DecryptDamageEvent(&ev) {
		t.Fatal("passthrough must always succeed")
	}
	if ev.Damage != 42 {
		t.Errorf("passthrough mutated damage: %d", ev.Damage)
	}
	if ev.Flags&protocol.DamageFlagEncrypted != 0 {
		t.Error("passthrough should clear the encrypted flag")
	}
}
