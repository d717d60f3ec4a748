package meter

// Emitter delivers a named event to the presentation layer. Implemented by
// the websocket hub; emission must never block the packet loop.
type Emitter interface {
	Emit(event string, payload any)
}

// Event names on the presentation contract.
const (
	EventEncounterUpdate = "encounter-update"
	EventPartyUpdate     = "party-update"
	EventInvalidDamage   = "invalid-damage"
	EventIdentityUpdate  = "identity-update"
)

// IdentityUpdate is the identity-update payload.
type IdentityUpdate struct {
	Gauge1 int32 `json:"gauge1"`
	Gauge2 int32 `json:"gauge2"`
	Gauge3 int32 `json:"gauge3"`
}

// Snapshot emission intervals in ms. Low-performance mode trades latency for
// less serialization work.
const (
	emitIntervalMS        = 200
	emitIntervalLowPerfMS = 1500
	partyIntervalMS       = 2000
)

// Sender is the rate-limited snapshot publisher. It projects the live
// encounter and party state into self-consistent deep copies and hands them
// to the emitter on detached goroutines; last-delivered-wins is the external
// contract.
type Sender struct {
	emitter Emitter

	intervalMS int64
	lastEmit   int64
	lastParty  int64

	partyCache      [][]string
	partyCacheValid bool
}

func NewSender(emitter Emitter, lowPerformance bool) *Sender {
	interval := int64(emitIntervalMS)
	if lowPerformance {
		interval = emitIntervalLowPerfMS
	}
	return &Sender{emitter: emitter, intervalMS: interval}
}

// InvalidateParty drops the cached party snapshot after a membership change.
func (s *Sender) InvalidateParty() {
	s.partyCacheValid = false
}

// CachedParty returns the last complete party roster, if one is cached.
func (s *Sender) CachedParty() ([][]string, bool) {
	if !s.partyCacheValid {
		return nil, false
	}
	return s.partyCache, true
}

// EmitIdentity forwards an identity gauge change for the local player.
func (s *Sender) EmitIdentity(g1, g2, g3 int32) {
	go s.emitter.Emit(EventIdentityUpdate, IdentityUpdate{Gauge1: g1, Gauge2: g2, Gauge3: g3})
}

// Publish emits the current encounter if the throttle interval has elapsed or
// a forced condition holds (boss just died, reset in progress).
func (s *Sender) Publish(state *EncounterState, party *PartyTracker, now int64) {
	force := state.BossDeadUpdate || state.Resetting
	if !force && now-s.lastEmit < s.intervalMS {
		return
	}
	enc := state.Encounter
	if enc.FightStart == 0 && !force {
		return
	}
	s.lastEmit = now

	if !enc.DamageValid {
		go s.emitter.Emit(EventInvalidDamage, nil)
		return
	}

	snapshot := enc.Clone()
	s.project(snapshot, state.BossDeadUpdate)
	state.BossDeadUpdate = false

	s.publishParty(snapshot, party, state.PartyFreeze, now)

	metricSnapshotsPublished.Inc()
	go s.emitter.Emit(EventEncounterUpdate, snapshot)
}

// project filters the snapshot to reportable combatants and fills derived
// fields. The current boss survives the damage filter so its health bar stays
// visible.
func (s *Sender) project(snapshot *Encounter, bossDead bool) {
	duration := snapshot.DurationSeconds()
	for name, ent := range snapshot.Entities {
		relevant := false
		switch ent.Kind {
		case "player":
			relevant = ent.ClassID > 0 && ent.Damage.DamageDealt > 0
		case "esther":
			relevant = ent.Damage.DamageDealt > 0
		case "boss":
			relevant = ent.Damage.DamageDealt > 0
		}
		if !relevant && name != snapshot.CurrentBossName {
			delete(snapshot.Entities, name)
			continue
		}
		ent.Damage.DPS = ent.Damage.DamageDealt / duration
	}
	if bossDead {
		if boss, ok := snapshot.Entities[snapshot.CurrentBossName]; ok {
			boss.IsDead = true
			boss.CurHP = 0
		}
	}
}

// publishParty emits party membership on its own, longer throttle. A full
// party (every sub-party at 4) is cached and reused until membership changes;
// the cache is frozen through raid-end sequences so the roster does not
// flicker while players zone out.
func (s *Sender) publishParty(snapshot *Encounter, party *PartyTracker, frozen bool, now int64) {
	var groups [][]string
	if s.partyCacheValid || (frozen && len(s.partyCache) > 0) {
		groups = s.partyCache
	} else {
		groups = party.Groups()
		if party.Complete() {
			s.partyCache = groups
			s.partyCacheValid = true
		}
	}
	if len(groups) == 0 {
		return
	}
	snapshot.PartyInfo = groups

	if now-s.lastParty < partyIntervalMS {
		return
	}
	s.lastParty = now
	go s.emitter.Emit(EventPartyUpdate, groups)
}
