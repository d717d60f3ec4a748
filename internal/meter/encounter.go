package meter

// DamageStats accumulates per-entity combat totals. Within one fight phase
// every counter is monotonically non-decreasing; only a reset zeroes them.
type DamageStats struct {
	DamageDealt   int64 `json:"damageDealt"`
	DamageTaken   int64 `json:"damageTaken"`
	Hits          int64 `json:"hits"`
	Crits         int64 `json:"crits"`
	BackAttacks   int64 `json:"backAttacks"`
	FrontAttacks  int64 `json:"frontAttacks"`
	CritDamage    int64 `json:"critDamage"`
	ShieldGiven   int64 `json:"shieldGiven"`
	ShieldReceived int64 `json:"shieldReceived"`
	DamageAbsorbed int64 `json:"damageAbsorbed"`
	AbsorbedOnOthers int64 `json:"absorbedOnOthers"`

	// rDPS attribution buckets: damage dealt while affected by party buffs.
	BuffedBySupport   int64 `json:"buffedBySupport"`
	DebuffedBySupport int64 `json:"debuffedBySupport"`
	BuffedByIdentity  int64 `json:"buffedByIdentity"`
	BuffedByHyper     int64 `json:"buffedByHyper"`

	Deaths     int64 `json:"deaths"`
	DeathTime  int64 `json:"deathTime"`
	Counters   int64 `json:"counters"`
	Knockdowns int64 `json:"knockdowns"`
	CCedTime   int64 `json:"ccedTime"` // ms spent hard-CCed, players only

	DPS int64 `json:"dps"` // filled at publish/save time
}

// SkillStats accumulates per-skill totals for one entity.
type SkillStats struct {
	Name         string `json:"name"`
	Casts        int64  `json:"casts"`
	Hits         int64  `json:"hits"`
	Crits        int64  `json:"crits"`
	BackAttacks  int64  `json:"backAttacks"`
	FrontAttacks int64  `json:"frontAttacks"`
	TotalDamage  int64  `json:"totalDamage"`
	MaxDamage    int64  `json:"maxDamage"`
	MaxTargets   int64  `json:"maxTargets"` // most targets hit by one packet
}

// EncounterEntity is the reportable projection of one combatant.
type EncounterEntity struct {
	ID          uint64                 `json:"id"`
	CharacterID uint64                 `json:"characterId"`
	NpcID       uint32                 `json:"npcId,omitempty"`
	Name        string                 `json:"name"`
	Kind        string                 `json:"kind"`
	ClassID     uint16                 `json:"classId"`
	GearLevel   float32                `json:"gearLevel,omitempty"`
	CurHP       int64                  `json:"currentHp"`
	MaxHP       int64                  `json:"maxHp"`
	CurrentShield uint64               `json:"currentShield,omitempty"`
	IsDead      bool                   `json:"isDead"`
	Damage      DamageStats            `json:"damageStats"`
	Skills      map[uint32]*SkillStats `json:"skills"`
}

// BossHPSample is one point of the boss health timeline.
type BossHPSample struct {
	Time    int64   `json:"time"` // ms since fight start
	HP      int64   `json:"hp"`
	Percent float64 `json:"p"`
}

// Encounter is the cumulative model of the current fight.
type Encounter struct {
	FightStart       int64  `json:"fightStart"`
	LastCombatPacket int64  `json:"lastCombatPacket"`
	LocalPlayer      string `json:"localPlayer"`
	CurrentBossName  string `json:"currentBoss,omitempty"`
	Difficulty       string `json:"difficulty,omitempty"`
	RaidID           uint32 `json:"raidId,omitempty"`
	Region           string `json:"region,omitempty"`

	Entities  map[string]*EncounterEntity `json:"entities"`
	PartyInfo [][]string                  `json:"partyInfo,omitempty"`
	BossHPLog map[string][]BossHPSample   `json:"-"`

	RaidClear      bool `json:"raidClear"`
	DamageValid    bool `json:"damageValid"`
	BossOnlyDamage bool `json:"bossOnlyDamage"`
}

func NewEncounter() *Encounter {
	return &Encounter{
		Entities:    make(map[string]*EncounterEntity),
		BossHPLog:   make(map[string][]BossHPSample),
		DamageValid: true,
	}
}

// DurationSeconds is the elapsed fight time with a floor of one second, which
// keeps DPS finite for near-instant fights.
func (e *Encounter) DurationSeconds() int64 {
	if e.FightStart == 0 {
		return 1
	}
	d := (e.LastCombatPacket - e.FightStart) / 1000
	if d < 1 {
		return 1
	}
	return d
}

// TotalDamageDealt sums damage across snapshot-relevant entities.
func (e *Encounter) TotalDamageDealt() int64 {
	var total int64
	for _, ent := range e.Entities {
		total += ent.Damage.DamageDealt
	}
	return total
}

// Clone is a deep copy. Publishing and persistence run on detached goroutines
// while the packet loop keeps mutating the live model, so anything that leaves
// the loop leaves as a copy.
func (e *Encounter) Clone() *Encounter {
	out := *e
	out.Entities = make(map[string]*EncounterEntity, len(e.Entities))
	for name, ent := range e.Entities {
		ce := *ent
		ce.Skills = make(map[uint32]*SkillStats, len(ent.Skills))
		for id, s := range ent.Skills {
			cs := *s
			ce.Skills[id] = &cs
		}
		out.Entities[name] = &ce
	}
	out.PartyInfo = make([][]string, len(e.PartyInfo))
	for i, group := range e.PartyInfo {
		out.PartyInfo[i] = append([]string(nil), group...)
	}
	out.BossHPLog = make(map[string][]BossHPSample, len(e.BossHPLog))
	for name, samples := range e.BossHPLog {
		out.BossHPLog[name] = append([]BossHPSample(nil), samples...)
	}
	return &out
}
