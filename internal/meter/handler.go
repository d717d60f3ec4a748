package meter

import (
	"log"

	"frostmeter/internal/crypt"
	"frostmeter/internal/gamedata"
	"frostmeter/internal/protocol"
)

// PlayerStore persists the name/character-id cache across sessions so
// identity resolution is warm on reconnect.
type PlayerStore interface {
	Record(characterID uint64, name string)
	Name(characterID uint64) (string, bool)
}

// Raid ids that pin the difficulty label regardless of zone level.
var (
	trialRaidIDs     = map[uint32]bool{308226: true, 308227: true, 308239: true, 308339: true}
	challengeRaidIDs = map[uint32]bool{308418: true, 308419: true, 308420: true, 308428: true, 308429: true, 308430: true}
)

// Zone-level difficulty labels. Ordered by rank: a lobby re-entry must not
// downgrade an already-detected harder difficulty.
var zoneLevelDifficulty = map[uint32]string{
	0: "Normal",
	1: "Hard",
	2: "Inferno",
	3: "Challenge",
	4: "Solo",
	5: "The First",
}

var difficultyRank = map[string]int{
	"Normal": 1, "Hard": 2, "Inferno": 3, "Challenge": 4, "Solo": 5, "The First": 6, "Trial": 7,
}

// Trigger signals announcing the outcome of a raid gate.
var (
	clearSignals = map[uint32]bool{57: true, 59: true, 61: true, 63: true, 74: true, 76: true}
	wipeSignals  = map[uint32]bool{58: true, 60: true, 62: true, 64: true, 75: true, 77: true}
)

// Gate bosses whose mid-fight battle-status triggers must not rewind the
// encounter.
var gateResetExempt = map[string]bool{"Saydon": true}

// Handler is the packet dispatcher: one branch per opcode, each updating the
// trackers and the encounter state machine. Malformed payloads are logged and
// dropped; nothing here is fatal.
type Handler struct {
	tables   *gamedata.Tables
	IDs      *IDTracker
	Party    *PartyTracker
	Status   *StatusTracker
	Skills   *SkillTracker
	Registry *Registry
	State    *EncounterState

	crypt  crypt.Handler
	store  PlayerStore
	sender *Sender

	// EmitDetails gates the low-volume extras (identity gauge) behind an
	// explicit toggle from the presentation layer.
	EmitDetails bool
}

func NewHandler(tables *gamedata.Tables, cryptHandler crypt.Handler, store PlayerStore, saver Saver, sender *Sender) *Handler {
	return &Handler{
		tables:   tables,
		IDs:      NewIDTracker(),
		Party:    NewPartyTracker(),
		Status:   NewStatusTracker(tables),
		Skills:   NewSkillTracker(),
		Registry: NewRegistry(tables),
		State:    NewEncounterState(tables, saver),
		crypt:    cryptHandler,
		store:    store,
		sender:   sender,
	}
}

// Dispatch routes one decoded packet. now is the arrival timestamp in ms;
// packets are processed strictly in arrival order on a single goroutine.
func (h *Handler) Dispatch(op protocol.Opcode, payload []byte, now int64) {
	metricPacketsDispatched.WithLabelValues(op.String()).Inc()

	switch op {
	case protocol.OpCounterAttackNotify:
		pkt, err := protocol.DecodeCounterAttackNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		h.State.OnCounterattack(h.Registry.GetOrCreate(pkt.SourceID))

	case protocol.OpDeathNotify:
		pkt, err := protocol.DecodeDeathNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		h.State.OnDeath(h.Registry.GetOrCreate(pkt.TargetID), now)

	case protocol.OpIdentityGaugeChangeNotify:
		pkt, err := protocol.DecodeIdentityGaugeChangeNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		if h.EmitDetails && pkt.PlayerID == h.Registry.LocalEntityID && h.sender != nil {
			h.sender.EmitIdentity(pkt.Gauge1, pkt.Gauge2, pkt.Gauge3)
		}

	case protocol.OpInitEnv:
		pkt, err := protocol.DecodeInitEnv(payload)
		if h.dropBad(op, err) {
			return
		}
		h.onInitEnv(pkt)

	case protocol.OpInitPC:
		pkt, err := protocol.DecodeInitPC(payload)
		if h.dropBad(op, err) {
			return
		}
		h.onInitPC(pkt, now)

	case protocol.OpNewPC:
		pkt, err := protocol.DecodeNewPC(payload)
		if h.dropBad(op, err) {
			return
		}
		h.onNewPC(pkt.PCStruct, now)

	case protocol.OpNewVehicle:
		pkt, err := protocol.DecodeNewVehicle(payload)
		if h.dropBad(op, err) {
			return
		}
		if pkt.PCStruct != nil {
			h.onNewPC(*pkt.PCStruct, now)
		}

	case protocol.OpNewNpc:
		pkt, err := protocol.DecodeNewNpc(payload)
		if h.dropBad(op, err) {
			return
		}
		h.onNewNpc(pkt.NpcStruct, 0, now)

	case protocol.OpNewNpcSummon:
		pkt, err := protocol.DecodeNewNpcSummon(payload)
		if h.dropBad(op, err) {
			return
		}
		h.onNewNpc(pkt.NpcStruct, pkt.OwnerID, now)

	case protocol.OpNewProjectile:
		pkt, err := protocol.DecodeNewProjectile(payload)
		if h.dropBad(op, err) {
			return
		}
		info := pkt.ProjectileInfo
		h.Registry.NewProjectile(info)
		if h.Registry.IDIsPlayer(info.OwnerID) {
			h.Skills.LinkSpawn(info.ProjectileID, info.OwnerID, info.SkillID)
		}

	case protocol.OpNewTrap:
		pkt, err := protocol.DecodeNewTrap(payload)
		if h.dropBad(op, err) {
			return
		}
		t := pkt.TrapStruct
		h.Registry.NewTrap(t)
		if h.Registry.IDIsPlayer(t.OwnerID) {
			h.Skills.LinkSpawn(t.ObjectID, t.OwnerID, t.SkillID)
		}

	case protocol.OpNewTransit:
		pkt, err := protocol.DecodeNewTransit(payload)
		if h.dropBad(op, err) {
			return
		}
		h.crypt.UpdateZoneInstanceID(pkt.ZoneInstanceID)

	case protocol.OpPartyInfo:
		pkt, err := protocol.DecodePartyInfo(payload)
		if h.dropBad(op, err) {
			return
		}
		for _, m := range pkt.Members {
			h.Party.Add(pkt.RaidInstanceID, pkt.PartyInstanceID, PartyMember{
				CharacterID: m.CharacterID,
				Name:        m.Name,
				ClassID:     m.ClassID,
				GearLevel:   m.GearLevel,
			})
		}
		h.partyChanged()

	case protocol.OpPartyLeaveResult:
		pkt, err := protocol.DecodePartyLeaveResult(payload)
		if h.dropBad(op, err) {
			return
		}
		h.Party.Remove(pkt.PartyInstanceID, pkt.Name)
		h.partyChanged()

	case protocol.OpPartyStatusEffectAddNotify:
		pkt, err := protocol.DecodePartyStatusEffectAddNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		for _, data := range pkt.StatusEffects {
			h.onStatusAdd(data, pkt.CharacterID, StatusTargetParty, now)
		}

	case protocol.OpPartyStatusEffectRemoveNotify:
		pkt, err := protocol.DecodePartyStatusEffectRemoveNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		res := h.Status.Remove(pkt.CharacterID, pkt.InstanceIDs, pkt.Reason, StatusTargetParty)
		h.onStatusRemoved(res, pkt.CharacterID, StatusTargetParty, now)

	case protocol.OpPartyStatusEffectResultNotify:
		pkt, err := protocol.DecodePartyStatusEffectResultNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		h.Party.Add(pkt.RaidInstanceID, pkt.PartyInstanceID, PartyMember{CharacterID: pkt.CharacterID})

	case protocol.OpRaidBegin:
		pkt, err := protocol.DecodeRaidBegin(payload)
		if h.dropBad(op, err) {
			return
		}
		h.onRaidBegin(pkt.RaidID)

	case protocol.OpRaidBossKillNotify:
		h.snapshotParty()
		h.State.OnPhaseTransition(PhaseCodeBossKill, now)

	case protocol.OpRaidResult:
		h.snapshotParty()
		h.State.OnPhaseTransition(PhaseCodeResult, now)

	case protocol.OpRemoveObject:
		pkt, err := protocol.DecodeRemoveObject(payload)
		if h.dropBad(op, err) {
			return
		}
		for _, id := range pkt.ObjectIDs {
			h.Status.RemoveLocalObject(id)
		}

	case protocol.OpSkillCastNotify:
		pkt, err := protocol.DecodeSkillCastNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		source := h.Registry.GetOrCreate(pkt.SourceID)
		h.Registry.GuessIsPlayer(source, pkt.SkillID)
		h.Skills.NewCast(pkt.SourceID, pkt.SkillID, now)

	case protocol.OpSkillCooldownNotify:
		pkt, err := protocol.DecodeSkillCooldownNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		h.Skills.RecordCooldown(pkt.SkillCooldown.SkillID, pkt.SkillCooldown.CooldownDuration, now)

	case protocol.OpSkillStartNotify:
		pkt, err := protocol.DecodeSkillStartNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		h.onSkillStart(pkt, now)

	case protocol.OpSkillDamageNotify:
		pkt, err := protocol.DecodeSkillDamageNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		if h.State.Suppressed(now) {
			return
		}
		for i := range pkt.Events {
			h.onDamageEvent(pkt.SourceID, pkt.SkillID, &pkt.Events[i], len(pkt.Events), now)
		}

	case protocol.OpSkillDamageAbnormalMoveNotify:
		pkt, err := protocol.DecodeSkillDamageAbnormalMoveNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		if h.State.Suppressed(now) {
			return
		}
		for i := range pkt.Events {
			ev := &pkt.Events[i]
			h.onDamageEvent(pkt.SourceID, pkt.SkillID, &ev.Event, len(pkt.Events), now)
			if ev.Move.HasDownTime {
				h.State.OnKnockdown(h.Registry.GetOrCreate(ev.Event.TargetID))
			}
		}

	case protocol.OpStatusEffectAddNotify:
		pkt, err := protocol.DecodeStatusEffectAddNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		h.onStatusAdd(pkt.StatusEffect, pkt.ObjectID, StatusTargetLocal, now)

	case protocol.OpStatusEffectRemoveNotify:
		pkt, err := protocol.DecodeStatusEffectRemoveNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		res := h.Status.Remove(pkt.ObjectID, pkt.InstanceIDs, pkt.Reason, StatusTargetLocal)
		h.onStatusRemoved(res, pkt.ObjectID, StatusTargetLocal, now)

	case protocol.OpStatusEffectSyncDataNotify:
		pkt, err := protocol.DecodeStatusEffectSyncDataNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		h.onStatusSync(pkt)

	case protocol.OpTriggerBossBattleStatus:
		if gateResetExempt[h.State.Encounter.CurrentBossName] {
			return
		}
		h.State.OnPhaseTransition(PhaseCodeReset, now)

	case protocol.OpTriggerStartNotify:
		pkt, err := protocol.DecodeTriggerStartNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		switch {
		case clearSignals[pkt.Signal]:
			h.snapshotParty()
			h.State.OnPhaseTransition(PhaseCodeClear, now)
		case wipeSignals[pkt.Signal]:
			h.snapshotParty()
			h.State.OnPhaseTransition(PhaseCodeWipe, now)
		}

	case protocol.OpTroopMemberUpdateMinNotify:
		pkt, err := protocol.DecodeTroopMemberUpdateMinNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		h.onTroopUpdate(pkt, now)

	case protocol.OpZoneMemberLoadStatusNotify:
		pkt, err := protocol.DecodeZoneMemberLoadStatusNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		h.onZoneLoad(pkt)

	case protocol.OpZoneObjectUnpublishNotify:
		pkt, err := protocol.DecodeZoneObjectUnpublishNotify(payload)
		if h.dropBad(op, err) {
			return
		}
		h.Status.RemoveLocalObject(pkt.ObjectID)

	default:
		log.Printf("⚠️ unhandled opcode %d", op)
	}
}

// dropBad logs and swallows a malformed payload.
func (h *Handler) dropBad(op protocol.Opcode, err error) bool {
	if err == nil {
		return false
	}
	metricDecodeFailures.Inc()
	log.Printf("⚠️ dropping malformed %s: %v", op, err)
	return true
}

func (h *Handler) partyChanged() {
	if h.sender != nil {
		h.sender.InvalidateParty()
	}
}

// snapshotParty pins the current party roster onto the live encounter before
// a raid-end transition, so the persisted record keeps it even though members
// start zoning out immediately after.
func (h *Handler) snapshotParty() {
	if h.sender != nil {
		if groups, ok := h.sender.CachedParty(); ok {
			h.State.Encounter.PartyInfo = groups
			return
		}
	}
	if groups := h.Party.Groups(); len(groups) > 0 {
		h.State.Encounter.PartyInfo = groups
	}
}

func (h *Handler) onInitEnv(pkt protocol.PKTInitEnv) {
	local := h.Registry.InitEnv(pkt.PlayerID)
	h.Party.Reset()
	h.Status.Reset()
	h.Skills.Reset()
	h.State.OnInitEnv(local)
	h.partyChanged()
	log.Printf("🌍 zone entered, local entity %d", pkt.PlayerID)
}

func (h *Handler) onInitPC(pkt protocol.PKTInitPC, now int64) {
	// Some captures start mid-session and miss the name; the persistent cache
	// fills it in from a previous run.
	if pkt.Name == "" && h.store != nil {
		if cached, ok := h.store.Name(pkt.CharacterID); ok {
			pkt.Name = cached
		}
	}
	local := h.Registry.InitPC(pkt)
	h.IDs.Bind(pkt.CharacterID, pkt.PlayerID)
	for _, data := range pkt.StatusEffects {
		h.Status.AddOrUpdate(data, pkt.PlayerID, StatusTargetLocal, now)
	}
	if h.store != nil && pkt.Name != "" {
		h.store.Record(pkt.CharacterID, pkt.Name)
	}
	h.State.OnNewPlayer(local, true)
}

func (h *Handler) onNewPC(pc protocol.PCStruct, now int64) {
	e := h.Registry.NewPC(pc)
	h.IDs.Bind(pc.CharacterID, pc.PlayerID)
	for _, data := range pc.StatusEffects {
		h.Status.AddOrUpdate(data, pc.PlayerID, StatusTargetLocal, now)
	}
	h.State.OnNewPlayer(e, false)
}

func (h *Handler) onNewNpc(npc protocol.NpcStruct, ownerID uint64, now int64) {
	var e *Entity
	if ownerID != 0 {
		e = h.Registry.NewNpcSummon(ownerID, npc)
	} else {
		e = h.Registry.NewNpc(npc)
	}
	for _, data := range npc.StatusEffects {
		h.Status.AddOrUpdate(data, npc.ObjectID, StatusTargetLocal, now)
	}
	h.State.OnNewNpc(e)
}

func (h *Handler) onSkillStart(pkt protocol.PKTSkillStartNotify, now int64) {
	source := h.Registry.GetOrCreate(pkt.SourceID)
	h.Registry.GuessIsPlayer(source, pkt.SkillID)
	h.Skills.NewCast(pkt.SourceID, pkt.SkillID, now)
	// Summoning skills also refresh their owning skills so that damage dealt
	// by the summon correlates back to the cast that produced it.
	for _, src := range h.tables.SummonSourceSkills(pkt.SkillID) {
		h.Skills.NewCast(pkt.SourceID, src, now)
	}
	h.State.OnSkillStart(source, pkt.SkillID)
}

func (h *Handler) onDamageEvent(sourceID uint64, skillID uint32, ev *protocol.SkillDamageEvent, targetCount int, now int64) {
	if ev.Flags&protocol.DamageFlagEncrypted != 0 {
		if !h.crypt.DecryptDamageEvent(ev) {
			metricDecryptFailures.Inc()
			h.State.Encounter.DamageValid = false
			return
		}
	}

	owner := h.Registry.ResolveOwner(sourceID)
	h.Registry.GuessIsPlayer(owner, skillID)

	target := h.Registry.GetOrCreate(ev.TargetID)
	ownerEffects := h.Status.EffectsOn(owner.ID, owner.CharacterID, now)
	targetEffects := h.Status.EffectsOn(target.ID, target.CharacterID, now)
	h.State.OnDamage(owner, target, skillID, ev, ownerEffects, targetEffects, targetCount, h.Registry, now)
}

func (h *Handler) onStatusAdd(data protocol.StatusEffectData, targetID uint64, tt StatusTargetType, now int64) {
	se := h.Status.AddOrUpdate(data, targetID, tt, now)
	target := h.resolveStatusTarget(se)
	if target == nil {
		return
	}
	if se.IsShield {
		h.State.OnBossShield(target, se.Value)
		if se.Value > 0 {
			h.State.OnShieldApplied(h.Registry.GetOrCreate(se.SourceID), target, se.Value)
		}
	}
	if se.IsHardCC {
		h.State.OnCCApplied(target, now)
	}
}

func (h *Handler) onStatusRemoved(res RemoveResult, targetID uint64, tt StatusTargetType, now int64) {
	// A shield removal with nothing classified as broken still means the
	// target no longer carries one.
	if res.HadShield && len(res.ShieldsBroken) == 0 && tt == StatusTargetLocal {
		h.State.OnBossShield(h.Registry.GetOrCreate(targetID), 0)
	}
	// A shield consumed whole arrives as a removal, not a sync to zero; its
	// remaining value at removal is the absorbed amount.
	for _, se := range res.ShieldsBroken {
		h.onShieldChange(se, se.Value)
	}
	for _, se := range res.Removed {
		if !se.IsHardCC {
			continue
		}
		if target := h.resolveStatusTarget(se); target != nil {
			h.State.OnCCRemoved(target, now)
		}
	}
}

// onShieldChange propagates a shield value drop: the boss shield display plus
// absorbed-damage credit to the shield's source and holder.
func (h *Handler) onShieldChange(se *StatusEffect, change uint64) {
	if change == 0 {
		return
	}
	target := h.resolveStatusTarget(se)
	if target == nil {
		return
	}
	h.State.OnBossShield(target, se.Value)
	h.State.OnShieldUsed(h.Registry.GetOrCreate(se.SourceID), target, change)
}

func (h *Handler) onStatusSync(pkt protocol.PKTStatusEffectSyncDataNotify) {
	se, old := h.Status.Sync(pkt.ObjectID, pkt.InstanceID, pkt.CharacterID, pkt.Value)
	if se == nil || !se.IsShield || old <= se.Value {
		return
	}
	h.onShieldChange(se, old-se.Value)
}

// resolveStatusTarget maps a status effect back to a live entity: local
// effects key by object id, party effects by character id.
func (h *Handler) resolveStatusTarget(se *StatusEffect) *Entity {
	if se.TargetType == StatusTargetLocal {
		return h.Registry.GetOrCreate(se.TargetID)
	}
	if entityID, ok := h.IDs.EntityID(se.TargetID); ok {
		return h.Registry.GetOrCreate(entityID)
	}
	return nil
}

func (h *Handler) onTroopUpdate(pkt protocol.PKTTroopMemberUpdateMinNotify, now int64) {
	if entityID, ok := h.IDs.EntityID(pkt.CharacterID); ok {
		e := h.Registry.GetOrCreate(entityID)
		e.CurHP = pkt.CurHP
		if pkt.MaxHP > 0 {
			e.MaxHP = pkt.MaxHP
		}
	}
	for _, data := range pkt.StatusEffects {
		if se, old := h.Status.Sync(0, data.InstanceID, pkt.CharacterID, data.Value); se != nil && se.IsShield && old > se.Value {
			h.onShieldChange(se, old-se.Value)
		}
	}
}

func (h *Handler) onRaidBegin(raidID uint32) {
	h.State.Encounter.RaidID = raidID
	switch {
	case trialRaidIDs[raidID]:
		h.setDifficulty("Trial")
	case challengeRaidIDs[raidID]:
		h.setDifficulty("Challenge")
	}
}

func (h *Handler) onZoneLoad(pkt protocol.PKTZoneMemberLoadStatusNotify) {
	if label, ok := zoneLevelDifficulty[pkt.ZoneLevel]; ok {
		h.setDifficulty(label)
	}
}

// setDifficulty upgrades the difficulty label, never downgrades it. Gate
// lobbies can replay a lower zone level mid-raid.
func (h *Handler) setDifficulty(label string) {
	cur := h.State.Encounter.Difficulty
	if cur != "" && difficultyRank[label] <= difficultyRank[cur] {
		return
	}
	h.State.Encounter.Difficulty = label
	log.Printf("🎚️ difficulty: %s", label)
}
