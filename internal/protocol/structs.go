package protocol

// Stat type codes used inside StatPair lists. Only the HP pair is consumed by
// the tracker; other codes pass through untouched.
const (
	StatTypeHP    uint8 = 1
	StatTypeMaxHP uint8 = 27
)

// Damage event modifier bits.
const (
	HitFlagCrit        = 0x01
	HitFlagBackAttack  = 0x02
	HitFlagFrontAttack = 0x04
	HitFlagDot         = 0x08
)

// Damage event flag bits.
const (
	// DamageFlagEncrypted marks a damage value that must be run through the
	// decryption handler before it can be trusted.
	DamageFlagEncrypted = 0x01
)

// Status-effect remove reason codes.
const (
	// RemoveReasonLeftWorkshop is a benign zone-internal transition; removals
	// carrying it should not be surfaced as shield breaks.
	RemoveReasonLeftWorkshop uint8 = 4
)

// StatPair is one entry of the key-value stat list attached to spawns.
type StatPair struct {
	StatType uint8
	Value    int64
}

// StatusEffectData is the wire form of a buff/debuff/shield application.
type StatusEffectData struct {
	InstanceID     uint32
	EffectID       uint32
	SourceID       uint64
	Value          uint64
	ExpirationTick uint64
}

// SkillDamageEvent is one target's damage entry inside a damage notify.
// Damage may arrive obfuscated; see DamageFlagEncrypted.
type SkillDamageEvent struct {
	TargetID     uint64
	Damage       int64
	ShieldDamage int64
	Modifier     int32
	CurHP        int64
	MaxHP        int64
	DamageAttr   uint8
	DamageType   uint8
	Flags        uint8
}

// SkillMoveOptionData carries forced-movement info on abnormal-move damage.
type SkillMoveOptionData struct {
	HasDownTime bool
	DownTime    float32
}

// SkillDamageAbnormalMoveEvent pairs a damage event with its movement data.
type SkillDamageAbnormalMoveEvent struct {
	Event SkillDamageEvent
	Move  SkillMoveOptionData
}

// TripodIndex is the three tripod rows selected for a cast.
type TripodIndex struct {
	First  uint8
	Second uint8
	Third  uint8
}

// SkillOptionData holds optional cast options.
type SkillOptionData struct {
	TripodIndex *TripodIndex
}

// SkillCooldownStruct reports a skill going on cooldown.
type SkillCooldownStruct struct {
	SkillID          uint32
	CooldownDuration float32 // seconds
}

// PCStruct is a player spawn body, shared by NewPC and NewVehicle.
type PCStruct struct {
	PlayerID     uint64
	CharacterID  uint64
	Name         string
	ClassID      uint16
	GearLevel    float32
	StatPairs    []StatPair
	StatusEffects []StatusEffectData
}

// NpcStruct is an NPC spawn body, shared by NewNpc and NewNpcSummon.
type NpcStruct struct {
	ObjectID      uint64
	TypeID        uint32
	StatPairs     []StatPair
	StatusEffects []StatusEffectData
}

// ProjectileInfo describes a spawned projectile and the cast it came from.
type ProjectileInfo struct {
	ProjectileID  uint64
	OwnerID       uint64
	SkillID       uint32
	SkillEffectID uint32
}

// TrapStruct describes a placed trap object.
type TrapStruct struct {
	ObjectID      uint64
	OwnerID       uint64
	SkillID       uint32
	SkillEffectID uint32
}

// PartyMemberData is one member entry of a PartyInfo packet.
type PartyMemberData struct {
	Name        string
	CharacterID uint64
	ClassID     uint16
	GearLevel   float32
}

// Packet payloads.

type PKTCounterAttackNotify struct {
	SourceID uint64
}

type PKTDeathNotify struct {
	TargetID uint64
}

type PKTIdentityGaugeChangeNotify struct {
	PlayerID uint64
	Gauge1   int32
	Gauge2   int32
	Gauge3   int32
}

type PKTInitEnv struct {
	PlayerID uint64
}

type PKTInitPC struct {
	PlayerID      uint64
	CharacterID   uint64
	Name          string
	ClassID       uint16
	GearLevel     float32
	StatPairs     []StatPair
	StatusEffects []StatusEffectData
}

type PKTNewPC struct {
	PCStruct PCStruct
}

type PKTNewVehicle struct {
	PCStruct *PCStruct
}

type PKTNewNpc struct {
	NpcStruct NpcStruct
}

type PKTNewNpcSummon struct {
	OwnerID   uint64
	NpcStruct NpcStruct
}

type PKTNewProjectile struct {
	ProjectileInfo ProjectileInfo
}

type PKTNewTrap struct {
	TrapStruct TrapStruct
}

type PKTNewTransit struct {
	ChannelID      uint32
	ZoneInstanceID uint32
}

type PKTPartyInfo struct {
	RaidInstanceID  uint32
	PartyInstanceID uint32
	Members         []PartyMemberData
}

type PKTPartyLeaveResult struct {
	PartyInstanceID uint32
	Name            string
}

type PKTPartyStatusEffectAddNotify struct {
	CharacterID   uint64
	StatusEffects []StatusEffectData
}

type PKTPartyStatusEffectRemoveNotify struct {
	CharacterID uint64
	InstanceIDs []uint32
	Reason      uint8
}

type PKTPartyStatusEffectResultNotify struct {
	RaidInstanceID  uint32
	PartyInstanceID uint32
	CharacterID     uint64
}

type PKTRaidBegin struct {
	RaidID uint32
}

type PKTRemoveObject struct {
	ObjectIDs []uint64
}

type PKTSkillCastNotify struct {
	SourceID uint64
	SkillID  uint32
}

type PKTSkillCooldownNotify struct {
	SkillCooldown SkillCooldownStruct
}

type PKTSkillStartNotify struct {
	SourceID   uint64
	SkillID    uint32
	SkillOption SkillOptionData
}

type PKTSkillDamageNotify struct {
	SourceID      uint64
	SkillID       uint32
	SkillEffectID uint32
	Events        []SkillDamageEvent
}

type PKTSkillDamageAbnormalMoveNotify struct {
	SourceID      uint64
	SkillID       uint32
	SkillEffectID uint32
	Events        []SkillDamageAbnormalMoveEvent
}

type PKTStatusEffectAddNotify struct {
	ObjectID     uint64
	StatusEffect StatusEffectData
}

type PKTStatusEffectRemoveNotify struct {
	ObjectID    uint64
	InstanceIDs []uint32
	Reason      uint8
}

type PKTStatusEffectSyncDataNotify struct {
	ObjectID    uint64
	InstanceID  uint32
	CharacterID uint64
	Value       uint64
}

type PKTTriggerStartNotify struct {
	Signal uint32
}

type PKTTroopMemberUpdateMinNotify struct {
	CharacterID   uint64
	CurHP         int64
	MaxHP         int64
	StatusEffects []StatusEffectData
}

type PKTZoneMemberLoadStatusNotify struct {
	ZoneID    uint32
	ZoneLevel uint32
}

type PKTZoneObjectUnpublishNotify struct {
	ObjectID uint64
}

// CurrentAndMaxHP scans a spawn stat list for the HP pair. Missing entries
// resolve to zero, which callers treat as "unknown".
func CurrentAndMaxHP(pairs []StatPair) (hp, maxHP int64) {
	for _, p := range pairs {
		switch p.StatType {
		case StatTypeHP:
			hp = p.Value
		case StatTypeMaxHP:
			maxHP = p.Value
		}
	}
	return hp, maxHP
}
