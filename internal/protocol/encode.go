package protocol

import (
	"encoding/binary"
	"math"
)

// Encoders mirror the decoders. They exist for the replay/demo packet source
// and for tests; the live capture path never encodes.

type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)  { w.buf = append(w.buf, v) }
func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *writer) i32(v int32)  { w.u32(uint32(v)) }
func (w *writer) i64(v int64)  { w.u64(uint64(v)) }
func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *writer) str(s string) {
	w.u16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) flag(present bool) {
	if present {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) statPairs(pairs []StatPair) {
	w.u16(uint16(len(pairs)))
	for _, p := range pairs {
		w.u8(p.StatType)
		w.i64(p.Value)
	}
}

func (w *writer) statusEffectData(se StatusEffectData) {
	w.u32(se.InstanceID)
	w.u32(se.EffectID)
	w.u64(se.SourceID)
	w.u64(se.Value)
	w.u64(se.ExpirationTick)
}

func (w *writer) statusEffectList(list []StatusEffectData) {
	w.u16(uint16(len(list)))
	for _, se := range list {
		w.statusEffectData(se)
	}
}

func (w *writer) skillDamageEvent(ev SkillDamageEvent) {
	w.u64(ev.TargetID)
	w.i64(ev.Damage)
	w.i64(ev.ShieldDamage)
	w.i32(ev.Modifier)
	w.i64(ev.CurHP)
	w.i64(ev.MaxHP)
	w.u8(ev.DamageAttr)
	w.u8(ev.DamageType)
	w.u8(ev.Flags)
}

func (w *writer) pcStruct(pc PCStruct) {
	w.u64(pc.PlayerID)
	w.u64(pc.CharacterID)
	w.str(pc.Name)
	w.u16(pc.ClassID)
	w.f32(pc.GearLevel)
	w.statPairs(pc.StatPairs)
	w.statusEffectList(pc.StatusEffects)
}

func (w *writer) npcStruct(npc NpcStruct) {
	w.u64(npc.ObjectID)
	w.u32(npc.TypeID)
	w.statPairs(npc.StatPairs)
	w.statusEffectList(npc.StatusEffects)
}

func EncodeCounterAttackNotify(pkt PKTCounterAttackNotify) []byte {
	w := &writer{}
	w.u64(pkt.SourceID)
	return w.buf
}

func EncodeDeathNotify(pkt PKTDeathNotify) []byte {
	w := &writer{}
	w.u64(pkt.TargetID)
	return w.buf
}

func EncodeIdentityGaugeChangeNotify(pkt PKTIdentityGaugeChangeNotify) []byte {
	w := &writer{}
	w.u64(pkt.PlayerID)
	w.i32(pkt.Gauge1)
	w.i32(pkt.Gauge2)
	w.i32(pkt.Gauge3)
	return w.buf
}

func EncodeInitEnv(pkt PKTInitEnv) []byte {
	w := &writer{}
	w.u64(pkt.PlayerID)
	return w.buf
}

func EncodeInitPC(pkt PKTInitPC) []byte {
	w := &writer{}
	w.u64(pkt.PlayerID)
	w.u64(pkt.CharacterID)
	w.str(pkt.Name)
	w.u16(pkt.ClassID)
	w.f32(pkt.GearLevel)
	w.statPairs(pkt.StatPairs)
	w.statusEffectList(pkt.StatusEffects)
	return w.buf
}

func EncodeNewPC(pkt PKTNewPC) []byte {
	w := &writer{}
	w.pcStruct(pkt.PCStruct)
	return w.buf
}

func EncodeNewVehicle(pkt PKTNewVehicle) []byte {
	w := &writer{}
	w.flag(pkt.PCStruct != nil)
	if pkt.PCStruct != nil {
		w.pcStruct(*pkt.PCStruct)
	}
	return w.buf
}

func EncodeNewNpc(pkt PKTNewNpc) []byte {
	w := &writer{}
	w.npcStruct(pkt.NpcStruct)
	return w.buf
}

func EncodeNewNpcSummon(pkt PKTNewNpcSummon) []byte {
	w := &writer{}
	w.u64(pkt.OwnerID)
	w.npcStruct(pkt.NpcStruct)
	return w.buf
}

func EncodeNewProjectile(pkt PKTNewProjectile) []byte {
	w := &writer{}
	w.u64(pkt.ProjectileInfo.ProjectileID)
	w.u64(pkt.ProjectileInfo.OwnerID)
	w.u32(pkt.ProjectileInfo.SkillID)
	w.u32(pkt.ProjectileInfo.SkillEffectID)
	return w.buf
}

func EncodeNewTrap(pkt PKTNewTrap) []byte {
	w := &writer{}
	w.u64(pkt.TrapStruct.ObjectID)
	w.u64(pkt.TrapStruct.OwnerID)
	w.u32(pkt.TrapStruct.SkillID)
	w.u32(pkt.TrapStruct.SkillEffectID)
	return w.buf
}

func EncodeNewTransit(pkt PKTNewTransit) []byte {
	w := &writer{}
	w.u32(pkt.ChannelID)
	w.u32(pkt.ZoneInstanceID)
	return w.buf
}

func EncodePartyInfo(pkt PKTPartyInfo) []byte {
	w := &writer{}
	w.u32(pkt.RaidInstanceID)
	w.u32(pkt.PartyInstanceID)
	w.u16(uint16(len(pkt.Members)))
	for _, m := range pkt.Members {
		w.str(m.Name)
		w.u64(m.CharacterID)
		w.u16(m.ClassID)
		w.f32(m.GearLevel)
	}
	return w.buf
}

func EncodePartyLeaveResult(pkt PKTPartyLeaveResult) []byte {
	w := &writer{}
	w.u32(pkt.PartyInstanceID)
	w.str(pkt.Name)
	return w.buf
}

func EncodePartyStatusEffectAddNotify(pkt PKTPartyStatusEffectAddNotify) []byte {
	w := &writer{}
	w.u64(pkt.CharacterID)
	w.statusEffectList(pkt.StatusEffects)
	return w.buf
}

func EncodePartyStatusEffectRemoveNotify(pkt PKTPartyStatusEffectRemoveNotify) []byte {
	w := &writer{}
	w.u64(pkt.CharacterID)
	w.u16(uint16(len(pkt.InstanceIDs)))
	for _, id := range pkt.InstanceIDs {
		w.u32(id)
	}
	w.u8(pkt.Reason)
	return w.buf
}

func EncodePartyStatusEffectResultNotify(pkt PKTPartyStatusEffectResultNotify) []byte {
	w := &writer{}
	w.u32(pkt.RaidInstanceID)
	w.u32(pkt.PartyInstanceID)
	w.u64(pkt.CharacterID)
	return w.buf
}

func EncodeRaidBegin(pkt PKTRaidBegin) []byte {
	w := &writer{}
	w.u32(pkt.RaidID)
	return w.buf
}

func EncodeRemoveObject(pkt PKTRemoveObject) []byte {
	w := &writer{}
	w.u16(uint16(len(pkt.ObjectIDs)))
	for _, id := range pkt.ObjectIDs {
		w.u64(id)
	}
	return w.buf
}

func EncodeSkillCastNotify(pkt PKTSkillCastNotify) []byte {
	w := &writer{}
	w.u64(pkt.SourceID)
	w.u32(pkt.SkillID)
	return w.buf
}

func EncodeSkillCooldownNotify(pkt PKTSkillCooldownNotify) []byte {
	w := &writer{}
	w.u32(pkt.SkillCooldown.SkillID)
	w.f32(pkt.SkillCooldown.CooldownDuration)
	return w.buf
}

func EncodeSkillStartNotify(pkt PKTSkillStartNotify) []byte {
	w := &writer{}
	w.u64(pkt.SourceID)
	w.u32(pkt.SkillID)
	w.flag(pkt.SkillOption.TripodIndex != nil)
	if t := pkt.SkillOption.TripodIndex; t != nil {
		w.u8(t.First)
		w.u8(t.Second)
		w.u8(t.Third)
	}
	return w.buf
}

func EncodeSkillDamageNotify(pkt PKTSkillDamageNotify) []byte {
	w := &writer{}
	w.u64(pkt.SourceID)
	w.u32(pkt.SkillID)
	w.u32(pkt.SkillEffectID)
	w.u16(uint16(len(pkt.Events)))
	for _, ev := range pkt.Events {
		w.skillDamageEvent(ev)
	}
	return w.buf
}

func EncodeSkillDamageAbnormalMoveNotify(pkt PKTSkillDamageAbnormalMoveNotify) []byte {
	w := &writer{}
	w.u64(pkt.SourceID)
	w.u32(pkt.SkillID)
	w.u32(pkt.SkillEffectID)
	w.u16(uint16(len(pkt.Events)))
	for _, ev := range pkt.Events {
		w.skillDamageEvent(ev.Event)
		w.flag(ev.Move.HasDownTime)
		if ev.Move.HasDownTime {
			w.f32(ev.Move.DownTime)
		}
	}
	return w.buf
}

func EncodeStatusEffectAddNotify(pkt PKTStatusEffectAddNotify) []byte {
	w := &writer{}
	w.u64(pkt.ObjectID)
	w.statusEffectData(pkt.StatusEffect)
	return w.buf
}

func EncodeStatusEffectRemoveNotify(pkt PKTStatusEffectRemoveNotify) []byte {
	w := &writer{}
	w.u64(pkt.ObjectID)
	w.u16(uint16(len(pkt.InstanceIDs)))
	for _, id := range pkt.InstanceIDs {
		w.u32(id)
	}
	w.u8(pkt.Reason)
	return w.buf
}

func EncodeStatusEffectSyncDataNotify(pkt PKTStatusEffectSyncDataNotify) []byte {
	w := &writer{}
	w.u64(pkt.ObjectID)
	w.u32(pkt.InstanceID)
	w.u64(pkt.CharacterID)
	w.u64(pkt.Value)
	return w.buf
}

func EncodeTriggerStartNotify(pkt PKTTriggerStartNotify) []byte {
	w := &writer{}
	w.u32(pkt.Signal)
	return w.buf
}

func EncodeTroopMemberUpdateMinNotify(pkt PKTTroopMemberUpdateMinNotify) []byte {
	w := &writer{}
	w.u64(pkt.CharacterID)
	w.i64(pkt.CurHP)
	w.i64(pkt.MaxHP)
	w.statusEffectList(pkt.StatusEffects)
	return w.buf
}

func EncodeZoneMemberLoadStatusNotify(pkt PKTZoneMemberLoadStatusNotify) []byte {
	w := &writer{}
	w.u32(pkt.ZoneID)
	w.u32(pkt.ZoneLevel)
	return w.buf
}

func EncodeZoneObjectUnpublishNotify(pkt PKTZoneObjectUnpublishNotify) []byte {
	w := &writer{}
	w.u64(pkt.ObjectID)
	return w.buf
}
