package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Payload fields are little-endian. Strings are a u16 byte length followed by
// UTF-8 bytes, lists a u16 count followed by elements, optionals a u8 presence
// flag. A short or oversized payload fails decoding; malformed packets are the
// caller's problem to drop (never fatal).

const (
	maxListLen   = 4096
	maxStringLen = 512
)

type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("truncated %s at offset %d", what, r.off)
	}
}

func (r *reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.fail(what)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8(what string) uint8 {
	b := r.take(1, what)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16(what string) uint16 {
	b := r.take(2, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32(what string) uint32 {
	b := r.take(4, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64(what string) uint64 {
	b := r.take(8, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) i32(what string) int32 { return int32(r.u32(what)) }
func (r *reader) i64(what string) int64 { return int64(r.u64(what)) }

func (r *reader) f32(what string) float32 {
	return math.Float32frombits(r.u32(what))
}

func (r *reader) str(what string) string {
	n := int(r.u16(what))
	if n > maxStringLen {
		r.fail(what)
		return ""
	}
	b := r.take(n, what)
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *reader) count(what string) int {
	n := int(r.u16(what))
	if n > maxListLen {
		r.fail(what)
		return 0
	}
	return n
}

func (r *reader) present(what string) bool {
	return r.u8(what) != 0
}

func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return fmt.Errorf("trailing %d bytes after payload", len(r.buf)-r.off)
	}
	return nil
}

func (r *reader) statPairs() []StatPair {
	n := r.count("stat pair count")
	pairs := make([]StatPair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, StatPair{
			StatType: r.u8("stat type"),
			Value:    r.i64("stat value"),
		})
	}
	return pairs
}

func (r *reader) statusEffectData() StatusEffectData {
	return StatusEffectData{
		InstanceID:     r.u32("effect instance id"),
		EffectID:       r.u32("effect id"),
		SourceID:       r.u64("effect source id"),
		Value:          r.u64("effect value"),
		ExpirationTick: r.u64("effect expiration"),
	}
}

func (r *reader) statusEffectList() []StatusEffectData {
	n := r.count("status effect count")
	effects := make([]StatusEffectData, 0, n)
	for i := 0; i < n; i++ {
		effects = append(effects, r.statusEffectData())
	}
	return effects
}

func (r *reader) skillDamageEvent() SkillDamageEvent {
	return SkillDamageEvent{
		TargetID:     r.u64("target id"),
		Damage:       r.i64("damage"),
		ShieldDamage: r.i64("shield damage"),
		Modifier:     r.i32("modifier"),
		CurHP:        r.i64("cur hp"),
		MaxHP:        r.i64("max hp"),
		DamageAttr:   r.u8("damage attr"),
		DamageType:   r.u8("damage type"),
		Flags:        r.u8("damage flags"),
	}
}

func (r *reader) pcStruct() PCStruct {
	return PCStruct{
		PlayerID:      r.u64("player id"),
		CharacterID:   r.u64("character id"),
		Name:          r.str("name"),
		ClassID:       r.u16("class id"),
		GearLevel:     r.f32("gear level"),
		StatPairs:     r.statPairs(),
		StatusEffects: r.statusEffectList(),
	}
}

func (r *reader) npcStruct() NpcStruct {
	return NpcStruct{
		ObjectID:      r.u64("object id"),
		TypeID:        r.u32("npc type id"),
		StatPairs:     r.statPairs(),
		StatusEffects: r.statusEffectList(),
	}
}

func DecodeCounterAttackNotify(data []byte) (PKTCounterAttackNotify, error) {
	r := &reader{buf: data}
	pkt := PKTCounterAttackNotify{SourceID: r.u64("source id")}
	return pkt, r.done()
}

func DecodeDeathNotify(data []byte) (PKTDeathNotify, error) {
	r := &reader{buf: data}
	pkt := PKTDeathNotify{TargetID: r.u64("target id")}
	return pkt, r.done()
}

func DecodeIdentityGaugeChangeNotify(data []byte) (PKTIdentityGaugeChangeNotify, error) {
	r := &reader{buf: data}
	pkt := PKTIdentityGaugeChangeNotify{
		PlayerID: r.u64("player id"),
		Gauge1:   r.i32("gauge1"),
		Gauge2:   r.i32("gauge2"),
		Gauge3:   r.i32("gauge3"),
	}
	return pkt, r.done()
}

func DecodeInitEnv(data []byte) (PKTInitEnv, error) {
	r := &reader{buf: data}
	pkt := PKTInitEnv{PlayerID: r.u64("player id")}
	return pkt, r.done()
}

func DecodeInitPC(data []byte) (PKTInitPC, error) {
	r := &reader{buf: data}
	pkt := PKTInitPC{
		PlayerID:      r.u64("player id"),
		CharacterID:   r.u64("character id"),
		Name:          r.str("name"),
		ClassID:       r.u16("class id"),
		GearLevel:     r.f32("gear level"),
		StatPairs:     r.statPairs(),
		StatusEffects: r.statusEffectList(),
	}
	return pkt, r.done()
}

func DecodeNewPC(data []byte) (PKTNewPC, error) {
	r := &reader{buf: data}
	pkt := PKTNewPC{PCStruct: r.pcStruct()}
	return pkt, r.done()
}

func DecodeNewVehicle(data []byte) (PKTNewVehicle, error) {
	r := &reader{buf: data}
	var pkt PKTNewVehicle
	if r.present("pc struct flag") {
		pc := r.pcStruct()
		pkt.PCStruct = &pc
	}
	return pkt, r.done()
}

func DecodeNewNpc(data []byte) (PKTNewNpc, error) {
	r := &reader{buf: data}
	pkt := PKTNewNpc{NpcStruct: r.npcStruct()}
	return pkt, r.done()
}

func DecodeNewNpcSummon(data []byte) (PKTNewNpcSummon, error) {
	r := &reader{buf: data}
	pkt := PKTNewNpcSummon{
		OwnerID:   r.u64("owner id"),
		NpcStruct: r.npcStruct(),
	}
	return pkt, r.done()
}

func DecodeNewProjectile(data []byte) (PKTNewProjectile, error) {
	r := &reader{buf: data}
	pkt := PKTNewProjectile{ProjectileInfo: ProjectileInfo{
		ProjectileID:  r.u64("projectile id"),
		OwnerID:       r.u64("owner id"),
		SkillID:       r.u32("skill id"),
		SkillEffectID: r.u32("skill effect id"),
	}}
	return pkt, r.done()
}

func DecodeNewTrap(data []byte) (PKTNewTrap, error) {
	r := &reader{buf: data}
	pkt := PKTNewTrap{TrapStruct: TrapStruct{
		ObjectID:      r.u64("object id"),
		OwnerID:       r.u64("owner id"),
		SkillID:       r.u32("skill id"),
		SkillEffectID: r.u32("skill effect id"),
	}}
	return pkt, r.done()
}

func DecodeNewTransit(data []byte) (PKTNewTransit, error) {
	r := &reader{buf: data}
	pkt := PKTNewTransit{
		ChannelID:      r.u32("channel id"),
		ZoneInstanceID: r.u32("zone instance id"),
	}
	return pkt, r.done()
}

func DecodePartyInfo(data []byte) (PKTPartyInfo, error) {
	r := &reader{buf: data}
	pkt := PKTPartyInfo{
		RaidInstanceID:  r.u32("raid instance id"),
		PartyInstanceID: r.u32("party instance id"),
	}
	n := r.count("member count")
	pkt.Members = make([]PartyMemberData, 0, n)
	for i := 0; i < n; i++ {
		pkt.Members = append(pkt.Members, PartyMemberData{
			Name:        r.str("member name"),
			CharacterID: r.u64("member character id"),
			ClassID:     r.u16("member class id"),
			GearLevel:   r.f32("member gear level"),
		})
	}
	return pkt, r.done()
}

func DecodePartyLeaveResult(data []byte) (PKTPartyLeaveResult, error) {
	r := &reader{buf: data}
	pkt := PKTPartyLeaveResult{
		PartyInstanceID: r.u32("party instance id"),
		Name:            r.str("name"),
	}
	return pkt, r.done()
}

func DecodePartyStatusEffectAddNotify(data []byte) (PKTPartyStatusEffectAddNotify, error) {
	r := &reader{buf: data}
	pkt := PKTPartyStatusEffectAddNotify{
		CharacterID:   r.u64("character id"),
		StatusEffects: r.statusEffectList(),
	}
	return pkt, r.done()
}

func DecodePartyStatusEffectRemoveNotify(data []byte) (PKTPartyStatusEffectRemoveNotify, error) {
	r := &reader{buf: data}
	pkt := PKTPartyStatusEffectRemoveNotify{CharacterID: r.u64("character id")}
	n := r.count("instance id count")
	pkt.InstanceIDs = make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		pkt.InstanceIDs = append(pkt.InstanceIDs, r.u32("instance id"))
	}
	pkt.Reason = r.u8("reason")
	return pkt, r.done()
}

func DecodePartyStatusEffectResultNotify(data []byte) (PKTPartyStatusEffectResultNotify, error) {
	r := &reader{buf: data}
	pkt := PKTPartyStatusEffectResultNotify{
		RaidInstanceID:  r.u32("raid instance id"),
		PartyInstanceID: r.u32("party instance id"),
		CharacterID:     r.u64("character id"),
	}
	return pkt, r.done()
}

func DecodeRaidBegin(data []byte) (PKTRaidBegin, error) {
	r := &reader{buf: data}
	pkt := PKTRaidBegin{RaidID: r.u32("raid id")}
	return pkt, r.done()
}

func DecodeRemoveObject(data []byte) (PKTRemoveObject, error) {
	r := &reader{buf: data}
	var pkt PKTRemoveObject
	n := r.count("object count")
	pkt.ObjectIDs = make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		pkt.ObjectIDs = append(pkt.ObjectIDs, r.u64("object id"))
	}
	return pkt, r.done()
}

func DecodeSkillCastNotify(data []byte) (PKTSkillCastNotify, error) {
	r := &reader{buf: data}
	pkt := PKTSkillCastNotify{
		SourceID: r.u64("source id"),
		SkillID:  r.u32("skill id"),
	}
	return pkt, r.done()
}

func DecodeSkillCooldownNotify(data []byte) (PKTSkillCooldownNotify, error) {
	r := &reader{buf: data}
	pkt := PKTSkillCooldownNotify{SkillCooldown: SkillCooldownStruct{
		SkillID:          r.u32("skill id"),
		CooldownDuration: r.f32("cooldown duration"),
	}}
	return pkt, r.done()
}

func DecodeSkillStartNotify(data []byte) (PKTSkillStartNotify, error) {
	r := &reader{buf: data}
	pkt := PKTSkillStartNotify{
		SourceID: r.u64("source id"),
		SkillID:  r.u32("skill id"),
	}
	if r.present("tripod flag") {
		pkt.SkillOption.TripodIndex = &TripodIndex{
			First:  r.u8("tripod first"),
			Second: r.u8("tripod second"),
			Third:  r.u8("tripod third"),
		}
	}
	return pkt, r.done()
}

func DecodeSkillDamageNotify(data []byte) (PKTSkillDamageNotify, error) {
	r := &reader{buf: data}
	pkt := PKTSkillDamageNotify{
		SourceID:      r.u64("source id"),
		SkillID:       r.u32("skill id"),
		SkillEffectID: r.u32("skill effect id"),
	}
	n := r.count("event count")
	pkt.Events = make([]SkillDamageEvent, 0, n)
	for i := 0; i < n; i++ {
		pkt.Events = append(pkt.Events, r.skillDamageEvent())
	}
	return pkt, r.done()
}

func DecodeSkillDamageAbnormalMoveNotify(data []byte) (PKTSkillDamageAbnormalMoveNotify, error) {
	r := &reader{buf: data}
	pkt := PKTSkillDamageAbnormalMoveNotify{
		SourceID:      r.u64("source id"),
		SkillID:       r.u32("skill id"),
		SkillEffectID: r.u32("skill effect id"),
	}
	n := r.count("event count")
	pkt.Events = make([]SkillDamageAbnormalMoveEvent, 0, n)
	for i := 0; i < n; i++ {
		ev := SkillDamageAbnormalMoveEvent{Event: r.skillDamageEvent()}
		if r.present("down time flag") {
			ev.Move.HasDownTime = true
			ev.Move.DownTime = r.f32("down time")
		}
		pkt.Events = append(pkt.Events, ev)
	}
	return pkt, r.done()
}

func DecodeStatusEffectAddNotify(data []byte) (PKTStatusEffectAddNotify, error) {
	r := &reader{buf: data}
	pkt := PKTStatusEffectAddNotify{
		ObjectID:     r.u64("object id"),
		StatusEffect: r.statusEffectData(),
	}
	return pkt, r.done()
}

func DecodeStatusEffectRemoveNotify(data []byte) (PKTStatusEffectRemoveNotify, error) {
	r := &reader{buf: data}
	pkt := PKTStatusEffectRemoveNotify{ObjectID: r.u64("object id")}
	n := r.count("instance id count")
	pkt.InstanceIDs = make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		pkt.InstanceIDs = append(pkt.InstanceIDs, r.u32("instance id"))
	}
	pkt.Reason = r.u8("reason")
	return pkt, r.done()
}

func DecodeStatusEffectSyncDataNotify(data []byte) (PKTStatusEffectSyncDataNotify, error) {
	r := &reader{buf: data}
	pkt := PKTStatusEffectSyncDataNotify{
		ObjectID:    r.u64("object id"),
		InstanceID:  r.u32("instance id"),
		CharacterID: r.u64("character id"),
		Value:       r.u64("value"),
	}
	return pkt, r.done()
}

func DecodeTriggerStartNotify(data []byte) (PKTTriggerStartNotify, error) {
	r := &reader{buf: data}
	pkt := PKTTriggerStartNotify{Signal: r.u32("signal")}
	return pkt, r.done()
}

func DecodeTroopMemberUpdateMinNotify(data []byte) (PKTTroopMemberUpdateMinNotify, error) {
	r := &reader{buf: data}
	pkt := PKTTroopMemberUpdateMinNotify{
		CharacterID:   r.u64("character id"),
		CurHP:         r.i64("cur hp"),
		MaxHP:         r.i64("max hp"),
		StatusEffects: r.statusEffectList(),
	}
	return pkt, r.done()
}

func DecodeZoneMemberLoadStatusNotify(data []byte) (PKTZoneMemberLoadStatusNotify, error) {
	r := &reader{buf: data}
	pkt := PKTZoneMemberLoadStatusNotify{
		ZoneID:    r.u32("zone id"),
		ZoneLevel: r.u32("zone level"),
	}
	return pkt, r.done()
}

func DecodeZoneObjectUnpublishNotify(data []byte) (PKTZoneObjectUnpublishNotify, error) {
	r := &reader{buf: data}
	pkt := PKTZoneObjectUnpublishNotify{ObjectID: r.u64("object id")}
	return pkt, r.done()
}
