package meter

import (
	"frostmeter/internal/gamedata"
	"frostmeter/internal/protocol"
)

// Bosses without a known grade entry are still treated as bosses above this
// max-HP floor.
const bossHPFloor = 10_000_000

// Registry is the authoritative set of entities seen this session. Lookups
// never fail: ids referenced before their spawn packet materialize as
// KindUnknown placeholders, since the wire stream is not guaranteed ordered.
type Registry struct {
	tables   *gamedata.Tables
	entities map[uint64]*Entity

	LocalEntityID    uint64
	LocalCharacterID uint64
}

func NewRegistry(tables *gamedata.Tables) *Registry {
	return &Registry{
		tables:   tables,
		entities: make(map[uint64]*Entity),
	}
}

// Get returns the entity for an id, if seen.
func (r *Registry) Get(id uint64) (*Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// GetOrCreate returns the entity for an id, lazily creating an Unknown
// placeholder for ids that arrive ahead of their spawn packet.
func (r *Registry) GetOrCreate(id uint64) *Entity {
	if e, ok := r.entities[id]; ok {
		return e
	}
	e := &Entity{ID: id, Kind: KindUnknown}
	r.entities[id] = e
	return e
}

// InitEnv clears the session on zone entry and re-anchors the local player
// under its new entity id. The previous local name and character id carry
// over; the zone assigns a fresh entity id.
func (r *Registry) InitEnv(playerID uint64) *Entity {
	var name string
	var classID uint16
	var gear float32
	if prev, ok := r.entities[r.LocalEntityID]; ok {
		name = prev.Name
		classID = prev.ClassID
		gear = prev.GearLevel
	}
	r.entities = make(map[uint64]*Entity)
	local := &Entity{
		ID:          playerID,
		CharacterID: r.LocalCharacterID,
		Name:        name,
		Kind:        KindPlayer,
		ClassID:     classID,
		GearLevel:   gear,
	}
	r.entities[playerID] = local
	r.LocalEntityID = playerID
	return local
}

// InitPC registers the local player from its zone-load payload.
func (r *Registry) InitPC(pkt protocol.PKTInitPC) *Entity {
	hp, maxHP := protocol.CurrentAndMaxHP(pkt.StatPairs)
	e := &Entity{
		ID:          pkt.PlayerID,
		CharacterID: pkt.CharacterID,
		Name:        pkt.Name,
		Kind:        KindPlayer,
		ClassID:     pkt.ClassID,
		GearLevel:   pkt.GearLevel,
		CurHP:       hp,
		MaxHP:       maxHP,
	}
	r.entities[e.ID] = e
	r.LocalEntityID = pkt.PlayerID
	r.LocalCharacterID = pkt.CharacterID
	return e
}

// NewPC registers another player from its spawn payload. NewVehicle spawns
// share the same body and land here too.
func (r *Registry) NewPC(pc protocol.PCStruct) *Entity {
	hp, maxHP := protocol.CurrentAndMaxHP(pc.StatPairs)
	e := &Entity{
		ID:          pc.PlayerID,
		CharacterID: pc.CharacterID,
		Name:        pc.Name,
		Kind:        KindPlayer,
		ClassID:     pc.ClassID,
		GearLevel:   pc.GearLevel,
		CurHP:       hp,
		MaxHP:       maxHP,
	}
	r.entities[e.ID] = e
	return e
}

// NewNpc registers an NPC spawn, classifying boss-tier and esther npcs.
func (r *Registry) NewNpc(npc protocol.NpcStruct) *Entity {
	hp, maxHP := protocol.CurrentAndMaxHP(npc.StatPairs)
	e := &Entity{
		ID:    npc.ObjectID,
		NpcID: npc.TypeID,
		Kind:  r.npcKind(npc.TypeID, maxHP),
		CurHP: hp,
		MaxHP: maxHP,
	}
	if info, ok := r.tables.Npc(npc.TypeID); ok {
		e.Name = info.Name
	}
	r.entities[e.ID] = e
	return e
}

func (r *Registry) npcKind(typeID uint32, maxHP int64) EntityKind {
	switch {
	case r.tables.IsEsther(typeID):
		return KindEsther
	case r.tables.IsBossGrade(typeID), maxHP >= bossHPFloor:
		return KindBoss
	default:
		return KindNpc
	}
}

// NewNpcSummon registers an owned npc; its damage rolls up to the owner.
func (r *Registry) NewNpcSummon(ownerID uint64, npc protocol.NpcStruct) *Entity {
	e := r.NewNpc(npc)
	e.Kind = KindSummon
	e.OwnerID = ownerID
	return e
}

// NewProjectile registers a projectile spawn.
func (r *Registry) NewProjectile(info protocol.ProjectileInfo) *Entity {
	e := &Entity{
		ID:            info.ProjectileID,
		OwnerID:       info.OwnerID,
		Kind:          KindProjectile,
		SkillID:       info.SkillID,
		SkillEffectID: info.SkillEffectID,
	}
	r.entities[e.ID] = e
	return e
}

// NewTrap registers a trap placement.
func (r *Registry) NewTrap(t protocol.TrapStruct) *Entity {
	e := &Entity{
		ID:            t.ObjectID,
		OwnerID:       t.OwnerID,
		Kind:          KindTrap,
		SkillID:       t.SkillID,
		SkillEffectID: t.SkillEffectID,
	}
	r.entities[e.ID] = e
	return e
}

// GuessIsPlayer promotes an Unknown entity to Player when it casts a skill
// from the player-only skill table. Spawn packets can be missed or arrive
// late; misclassification-until-corrected is acceptable here.
func (r *Registry) GuessIsPlayer(e *Entity, skillID uint32) {
	if e.Kind != KindUnknown {
		return
	}
	if classID, ok := r.tables.PlayerSkillClass(skillID); ok {
		e.Kind = KindPlayer
		e.ClassID = classID
	}
}

// IDIsPlayer reports whether the id resolves to a player entity. Used to gate
// projectile/trap-to-cast correlation.
func (r *Registry) IDIsPlayer(id uint64) bool {
	e, ok := r.entities[id]
	return ok && e.Kind == KindPlayer
}

// ResolveOwner walks the ownership chain of projectiles, traps and summons
// until it reaches the entity that should be credited with their damage. The
// starting entity is returned unchanged when it owns itself.
func (r *Registry) ResolveOwner(id uint64) *Entity {
	e := r.GetOrCreate(id)
	for depth := 0; depth < 4; depth++ {
		if e.OwnerID == 0 {
			return e
		}
		owner, ok := r.entities[e.OwnerID]
		if !ok {
			return e
		}
		e = owner
	}
	return e
}

// Reset drops every tracked entity. Only a full session reset does this;
// encounter soft resets leave the registry intact.
func (r *Registry) Reset() {
	r.entities = make(map[uint64]*Entity)
	r.LocalEntityID = 0
	r.LocalCharacterID = 0
}
