package meter

// EntityKind classifies a tracked in-world object.
type EntityKind uint8

const (
	KindUnknown EntityKind = iota
	KindPlayer
	KindNpc
	KindBoss
	KindEsther
	KindSummon
	KindProjectile
	KindTrap
)

func (k EntityKind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindNpc:
		return "npc"
	case KindBoss:
		return "boss"
	case KindEsther:
		return "esther"
	case KindSummon:
		return "summon"
	case KindProjectile:
		return "projectile"
	case KindTrap:
		return "trap"
	default:
		return "unknown"
	}
}

// Entity is one live object in the current session: a player, an NPC, or
// something spawned by either. Entities are created by the registry on spawn
// packets, or lazily as KindUnknown placeholders when damage or status packets
// reference an id before its spawn packet arrives.
type Entity struct {
	ID          uint64
	CharacterID uint64
	OwnerID     uint64 // summons, projectiles and traps point at their creator
	Name        string
	Kind        EntityKind
	ClassID     uint16
	GearLevel   float32
	NpcID       uint32
	SkillID     uint32 // cast that spawned this projectile/trap
	SkillEffectID uint32
	CurHP       int64
	MaxHP       int64
	IsDead      bool
}

// IsDamageRelevant reports whether the entity belongs in an outgoing
// snapshot: real players, esthers and bosses only.
func (e *Entity) IsDamageRelevant() bool {
	switch e.Kind {
	case KindPlayer:
		return e.ClassID > 0
	case KindEsther, KindBoss:
		return true
	default:
		return false
	}
}
