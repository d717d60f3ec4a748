package meter

import (
	"fmt"
	"log"

	"frostmeter/internal/gamedata"
	"frostmeter/internal/protocol"
)

// Phase is the coarse fight lifecycle.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseInProgress
	PhaseCleared
	PhaseWiped
)

func (p Phase) String() string {
	switch p {
	case PhaseInProgress:
		return "in-progress"
	case PhaseCleared:
		return "cleared"
	case PhaseWiped:
		return "wiped"
	default:
		return "idle"
	}
}

// Phase transition codes carried by raid result/kill/trigger packets.
const (
	PhaseCodeResult   = 0
	PhaseCodeBossKill = 1
	PhaseCodeClear    = 2
	PhaseCodeReset    = 3
	PhaseCodeWipe     = 4
)

// Damage packets still in flight when a raid ends must not leak into the
// final totals. Aggregation is suppressed for this window after any
// transition to a cleared/wiped state.
const raidEndGraceMS = 10_000

// Boss health samples are throttled to one per boss per second.
const bossLogStepMS = 1_000

// Saver persists a finished encounter. Saves run on detached goroutines with
// an owned deep copy; a failed save is an error for that save only, never for
// the tracking loop.
type Saver interface {
	Save(enc *Encounter) error
}

// EncounterState aggregates dispatched combat events into the cumulative
// Encounter model and owns the fight-phase lifecycle.
type EncounterState struct {
	tables *gamedata.Tables
	saver  Saver

	Encounter *Encounter
	Phase     Phase

	// Resetting asks the loop to soft-reset after the current publish tick.
	Resetting bool
	// BossDeadUpdate forces the next snapshot out with the boss zeroed.
	BossDeadUpdate bool
	// PartyFreeze holds the cached party snapshot steady through the raid-end
	// sequence.
	PartyFreeze bool

	Saved     bool
	RaidEndTS int64

	ccStart map[string]int64
	bossLogLast map[string]int64
}

func NewEncounterState(tables *gamedata.Tables, saver Saver) *EncounterState {
	return &EncounterState{
		tables:      tables,
		saver:       saver,
		Encounter:   NewEncounter(),
		ccStart:     make(map[string]int64),
		bossLogLast: make(map[string]int64),
	}
}

// Suppressed reports whether damage aggregation is inside the post-raid-end
// grace window.
func (s *EncounterState) Suppressed(now int64) bool {
	return s.RaidEndTS > 0 && now < s.RaidEndTS+raidEndGraceMS
}

// entityKey falls back to a synthetic name for unnamed objects so they still
// aggregate under a stable key.
func entityKey(e *Entity) string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("#%d", e.ID)
}

// upsert mirrors the live entity into the encounter model, refreshing the
// identity fields that spawn packets may have filled in since last time.
func (s *EncounterState) upsert(e *Entity) *EncounterEntity {
	key := entityKey(e)
	ent, ok := s.Encounter.Entities[key]
	if !ok {
		ent = &EncounterEntity{Skills: make(map[uint32]*SkillStats)}
		s.Encounter.Entities[key] = ent
	}
	ent.ID = e.ID
	ent.CharacterID = e.CharacterID
	ent.NpcID = e.NpcID
	ent.Name = key
	ent.Kind = e.Kind.String()
	ent.ClassID = e.ClassID
	ent.GearLevel = e.GearLevel
	if e.MaxHP > 0 {
		ent.CurHP = e.CurHP
		ent.MaxHP = e.MaxHP
	}
	ent.IsDead = e.IsDead
	return ent
}

// OnInitEnv handles zone entry: the encounter starts over, the damage
// validity latch re-arms, and the local player is re-anchored.
func (s *EncounterState) OnInitEnv(local *Entity) {
	name := s.Encounter.LocalPlayer
	s.SoftReset()
	if local.Name != "" {
		name = local.Name
	}
	s.Encounter.LocalPlayer = name
	if local.Name != "" || local.ClassID > 0 {
		s.upsert(local)
	}
}

// OnNewPlayer registers a player spawn into the encounter.
func (s *EncounterState) OnNewPlayer(e *Entity, isLocal bool) {
	s.upsert(e)
	if isLocal {
		s.Encounter.LocalPlayer = e.Name
	}
}

// OnNewNpc registers an npc spawn and promotes boss-tier npcs to the current
// boss slot. A bigger boss displaces a smaller one; gate adds trash mid-fight
// and the displayed boss must stay on the real target.
func (s *EncounterState) OnNewNpc(e *Entity) {
	ent := s.upsert(e)
	if e.Kind != KindBoss || e.Name == "" {
		return
	}
	cur, ok := s.Encounter.Entities[s.Encounter.CurrentBossName]
	if s.Encounter.CurrentBossName == "" || !ok || ent.MaxHP >= cur.MaxHP {
		s.Encounter.CurrentBossName = e.Name
		log.Printf("⚔️ boss engaged: %s (hp %d)", e.Name, e.MaxHP)
	}
}

// OnDamage is the core aggregation step. owner is the entity credited with
// the damage (projectiles and summons resolve to their caster), target is who
// got hit. Effects are the live status effects on owner and target at hit
// time, used for support attribution. targetCount is how many targets the
// carrying packet hit, so AoE breadth survives into the per-skill stats.
func (s *EncounterState) OnDamage(owner, target *Entity, skillID uint32, ev *protocol.SkillDamageEvent, ownerEffects, targetEffects []*StatusEffect, targetCount int, reg *Registry, now int64) {
	if s.Encounter.BossOnlyDamage && target.Kind != KindBoss {
		return
	}

	damage := ev.Damage
	curHP := ev.CurHP
	if curHP < 0 {
		// Overkill: clamp the recorded damage to what the target had left.
		damage += curHP
		curHP = 0
	}
	if damage < 0 {
		damage = 0
	}

	if s.Encounter.FightStart == 0 {
		s.Encounter.FightStart = now
		s.Phase = PhaseInProgress
		log.Printf("▶️ fight started: %s vs %s", entityKey(owner), entityKey(target))
	}
	s.Encounter.LastCombatPacket = now

	target.CurHP = curHP
	if ev.MaxHP > 0 {
		target.MaxHP = ev.MaxHP
	}
	if curHP <= 0 {
		target.IsDead = true
	}

	ownerEnt := s.upsert(owner)
	targetEnt := s.upsert(target)

	crit := ev.Modifier&protocol.HitFlagCrit != 0
	back := ev.Modifier&protocol.HitFlagBackAttack != 0
	front := ev.Modifier&protocol.HitFlagFrontAttack != 0

	ownerEnt.Damage.DamageDealt += damage
	ownerEnt.Damage.Hits++
	if crit {
		ownerEnt.Damage.Crits++
		ownerEnt.Damage.CritDamage += damage
	}
	if back {
		ownerEnt.Damage.BackAttacks++
	}
	if front {
		ownerEnt.Damage.FrontAttacks++
	}
	targetEnt.Damage.DamageTaken += damage

	if ev.ShieldDamage > 0 {
		targetEnt.Damage.DamageAbsorbed += ev.ShieldDamage
	}

	skill := ownerEnt.Skills[skillID]
	if skill == nil {
		skill = &SkillStats{Name: s.tables.SkillName(skillID)}
		ownerEnt.Skills[skillID] = skill
	}
	skill.Hits++
	skill.TotalDamage += damage
	if damage > skill.MaxDamage {
		skill.MaxDamage = damage
	}
	if int64(targetCount) > skill.MaxTargets {
		skill.MaxTargets = int64(targetCount)
	}
	if crit {
		skill.Crits++
	}
	if back {
		skill.BackAttacks++
	}
	if front {
		skill.FrontAttacks++
	}

	if owner.Kind == KindPlayer {
		s.attribute(ownerEnt, damage, skillID, ownerEffects, targetEffects, reg)
	}

	if target.Kind == KindBoss && target.Name != "" {
		s.logBossHP(target, now)
	}
}

// attribute apportions a damage amount to the support/identity/hyper buckets
// based on the status effects live at hit time.
func (s *EncounterState) attribute(ent *EncounterEntity, damage int64, skillID uint32, ownerEffects, targetEffects []*StatusEffect, reg *Registry) {
	if s.tables.IsHyperAwakeningSkill(skillID) {
		ent.Damage.BuffedByHyper += damage
	}
	var bySupport, byIdentity bool
	for _, se := range ownerEffects {
		if se.Category != "buff" || !s.supportSourced(se, reg) {
			continue
		}
		switch se.Group {
		case "identity":
			byIdentity = true
		default:
			bySupport = true
		}
	}
	if bySupport {
		ent.Damage.BuffedBySupport += damage
	}
	if byIdentity {
		ent.Damage.BuffedByIdentity += damage
	}
	for _, se := range targetEffects {
		if se.Category == "debuff" && s.supportSourced(se, reg) {
			ent.Damage.DebuffedBySupport += damage
			break
		}
	}
}

func (s *EncounterState) supportSourced(se *StatusEffect, reg *Registry) bool {
	src, ok := reg.Get(se.SourceID)
	return ok && src.Kind == KindPlayer && s.tables.IsSupportClass(src.ClassID)
}

func (s *EncounterState) logBossHP(boss *Entity, now int64) {
	if now-s.bossLogLast[boss.Name] < bossLogStepMS {
		return
	}
	s.bossLogLast[boss.Name] = now
	var pct float64
	if boss.MaxHP > 0 {
		pct = float64(boss.CurHP) / float64(boss.MaxHP) * 100
	}
	s.Encounter.BossHPLog[boss.Name] = append(s.Encounter.BossHPLog[boss.Name], BossHPSample{
		Time:    now - s.Encounter.FightStart,
		HP:      boss.CurHP,
		Percent: pct,
	})
}

// OnBossShield tracks the displayed boss's live shield value. Only the
// current boss carries it; zero clears the bar when the last shield drops.
func (s *EncounterState) OnBossShield(target *Entity, value uint64) {
	if target.Kind != KindBoss || target.Name == "" || target.Name != s.Encounter.CurrentBossName {
		return
	}
	s.upsert(target).CurrentShield = value
}

// OnShieldApplied credits shielding given/received when a shield effect lands.
func (s *EncounterState) OnShieldApplied(source, target *Entity, value uint64) {
	s.upsert(source).Damage.ShieldGiven += int64(value)
	s.upsert(target).Damage.ShieldReceived += int64(value)
}

// OnShieldUsed credits absorbed damage when a shield's value drops.
func (s *EncounterState) OnShieldUsed(source, target *Entity, absorbed uint64) {
	s.upsert(target).Damage.DamageAbsorbed += int64(absorbed)
	s.upsert(source).Damage.AbsorbedOnOthers += int64(absorbed)
}

// OnCounterattack bumps the counter total for the source.
func (s *EncounterState) OnCounterattack(e *Entity) {
	s.upsert(e).Damage.Counters++
}

// OnDeath marks a combatant dead and, for players, records the death.
func (s *EncounterState) OnDeath(e *Entity, now int64) {
	e.IsDead = true
	ent := s.upsert(e)
	if e.Kind == KindPlayer {
		ent.Damage.Deaths++
		ent.Damage.DeathTime = now
		log.Printf("💀 %s died", entityKey(e))
	}
}

// OnKnockdown records a forced-movement hit against a player.
func (s *EncounterState) OnKnockdown(e *Entity) {
	if e.Kind == KindPlayer {
		s.upsert(e).Damage.Knockdowns++
	}
}

// OnCCApplied opens a hard-CC interval for a player target.
func (s *EncounterState) OnCCApplied(target *Entity, now int64) {
	if target.Kind != KindPlayer {
		return
	}
	key := entityKey(target)
	if _, open := s.ccStart[key]; !open {
		s.ccStart[key] = now
	}
}

// OnCCRemoved closes the hard-CC interval and accumulates its duration.
func (s *EncounterState) OnCCRemoved(target *Entity, now int64) {
	key := entityKey(target)
	start, open := s.ccStart[key]
	if !open {
		return
	}
	delete(s.ccStart, key)
	s.upsert(target).Damage.CCedTime += now - start
}

// OnSkillStart counts a cast for the entity's skill entry.
func (s *EncounterState) OnSkillStart(e *Entity, skillID uint32) {
	ent := s.upsert(e)
	skill := ent.Skills[skillID]
	if skill == nil {
		skill = &SkillStats{Name: s.tables.SkillName(skillID)}
		ent.Skills[skillID] = skill
	}
	skill.Casts++
}

// OnPhaseTransition applies a fight-phase code. Codes 0/2/4 end the raid and
// open the suppression window; 1 marks the boss kill; 3 rewinds for a fresh
// pull without ending the zone session.
func (s *EncounterState) OnPhaseTransition(code int, now int64) {
	switch code {
	case PhaseCodeResult:
		s.save()
		s.RaidEndTS = now
		s.Resetting = true
		s.PartyFreeze = true
	case PhaseCodeBossKill:
		s.Phase = PhaseCleared
		s.Encounter.RaidClear = true
		s.BossDeadUpdate = true
		if boss, ok := s.Encounter.Entities[s.Encounter.CurrentBossName]; ok {
			boss.IsDead = true
			boss.CurHP = 0
		}
		s.save()
		log.Printf("🏆 raid cleared: %s", s.Encounter.CurrentBossName)
	case PhaseCodeClear:
		s.Phase = PhaseCleared
		s.Encounter.RaidClear = true
		s.save()
		s.RaidEndTS = now
		s.Resetting = true
		s.PartyFreeze = true
	case PhaseCodeReset:
		s.SoftReset()
	case PhaseCodeWipe:
		s.Phase = PhaseWiped
		s.save()
		s.RaidEndTS = now
		s.Resetting = true
		s.PartyFreeze = true
		log.Printf("☠️ raid wiped")
	}
}

// save hands a deep copy of the finished encounter to the repository on a
// detached goroutine. Encounters with no damage are not worth a row.
func (s *EncounterState) save() {
	if s.saver == nil || s.Saved || s.Encounter.FightStart == 0 {
		return
	}
	if s.Encounter.TotalDamageDealt() == 0 {
		return
	}
	s.Saved = true
	snapshot := s.Encounter.Clone()
	for _, ent := range snapshot.Entities {
		ent.Damage.DPS = ent.Damage.DamageDealt / snapshot.DurationSeconds()
	}
	go func() {
		if err := s.saver.Save(snapshot); err != nil {
			log.Printf("⚠️ encounter save failed: %v", err)
		}
	}()
}

// RequestSave forces a save of the in-progress encounter.
func (s *EncounterState) RequestSave() {
	s.Saved = false
	s.save()
	s.Resetting = true
}

// SoftReset clears the encounter model and counters for a new pull. The
// entity registry and the identity/party resolvers are left alone; a full
// session reset is the caller's job.
func (s *EncounterState) SoftReset() {
	bossOnly := s.Encounter.BossOnlyDamage
	localPlayer := s.Encounter.LocalPlayer
	difficulty := s.Encounter.Difficulty
	raidID := s.Encounter.RaidID
	region := s.Encounter.Region

	s.Encounter = NewEncounter()
	s.Encounter.BossOnlyDamage = bossOnly
	s.Encounter.LocalPlayer = localPlayer
	s.Encounter.Difficulty = difficulty
	s.Encounter.RaidID = raidID
	s.Encounter.Region = region

	s.Phase = PhaseIdle
	s.Saved = false
	s.BossDeadUpdate = false
	s.RaidEndTS = 0
	s.ccStart = make(map[string]int64)
	s.bossLogLast = make(map[string]int64)
}
