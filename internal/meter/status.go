package meter

import (
	"frostmeter/internal/gamedata"
	"frostmeter/internal/protocol"
)

// StatusTargetType says which registry a status effect lives in: effects on
// local zone objects are keyed by object id, party-relative effects by
// character id.
type StatusTargetType uint8

const (
	StatusTargetLocal StatusTargetType = iota
	StatusTargetParty
)

// StatusEffect is one live buff/debuff/shield application.
type StatusEffect struct {
	InstanceID uint32
	EffectID   uint32
	SourceID   uint64
	TargetID   uint64 // object id (local) or character id (party)
	TargetType StatusTargetType
	Value      uint64
	ExpireAt   int64 // ms since epoch, 0 when the effect has no timer
	IsShield   bool
	IsHardCC   bool
	Category   string // "buff" or "debuff"
	Group      string // "classskill", "identity", "hyper" or empty
}

// RemoveResult summarizes a batch status-effect removal.
type RemoveResult struct {
	Removed       []*StatusEffect
	ShieldsBroken []*StatusEffect
	HadShield     bool
	LeftWorkshop  bool
}

// StatusTracker is the status-effect ledger. Instance ids are unique per
// application; removing an id that is not live is a no-op, never an error,
// because the wire stream may repeat or reorder removal notices.
type StatusTracker struct {
	tables *gamedata.Tables
	local  map[uint64]map[uint32]*StatusEffect
	party  map[uint64]map[uint32]*StatusEffect
}

func NewStatusTracker(tables *gamedata.Tables) *StatusTracker {
	t := &StatusTracker{tables: tables}
	t.Reset()
	return t
}

func (t *StatusTracker) registry(tt StatusTargetType) map[uint64]map[uint32]*StatusEffect {
	if tt == StatusTargetParty {
		return t.party
	}
	return t.local
}

// AddOrUpdate registers a status effect from wire data, replacing any live
// effect with the same instance id on the same target.
func (t *StatusTracker) AddOrUpdate(data protocol.StatusEffectData, targetID uint64, tt StatusTargetType, now int64) *StatusEffect {
	se := &StatusEffect{
		InstanceID: data.InstanceID,
		EffectID:   data.EffectID,
		SourceID:   data.SourceID,
		TargetID:   targetID,
		TargetType: tt,
		Value:      data.Value,
	}
	if data.ExpirationTick > 0 {
		se.ExpireAt = now + int64(data.ExpirationTick)
	}
	info := t.tables.Effect(data.EffectID)
	se.IsShield = info.IsShield
	se.IsHardCC = info.IsHardCC
	se.Category = info.Category
	se.Group = info.Group

	reg := t.registry(tt)
	effects, ok := reg[targetID]
	if !ok {
		effects = make(map[uint32]*StatusEffect)
		reg[targetID] = effects
	}
	effects[se.InstanceID] = se
	return se
}

// Remove drops a batch of instance ids from one target and classifies what was
// removed, so callers can surface shield breaks. Unknown ids are skipped.
func (t *StatusTracker) Remove(targetID uint64, instanceIDs []uint32, reason uint8, tt StatusTargetType) RemoveResult {
	var res RemoveResult
	res.LeftWorkshop = reason == protocol.RemoveReasonLeftWorkshop

	effects, ok := t.registry(tt)[targetID]
	if !ok {
		return res
	}
	for _, id := range instanceIDs {
		se, ok := effects[id]
		if !ok {
			continue
		}
		delete(effects, id)
		res.Removed = append(res.Removed, se)
		if se.IsShield {
			res.HadShield = true
			if !res.LeftWorkshop {
				res.ShieldsBroken = append(res.ShieldsBroken, se)
			}
		}
	}
	return res
}

// Sync updates the magnitude of a live effect without an add/remove cycle,
// typically partial shield consumption. The prior value is returned so callers
// can compute the absorbed delta. Party effects are addressed by character id,
// local ones by object id.
func (t *StatusTracker) Sync(objectID uint64, instanceID uint32, characterID uint64, value uint64) (*StatusEffect, uint64) {
	var effects map[uint32]*StatusEffect
	if characterID != 0 {
		effects = t.party[characterID]
	} else {
		effects = t.local[objectID]
	}
	se, ok := effects[instanceID]
	if !ok {
		return nil, 0
	}
	old := se.Value
	se.Value = value
	return se, old
}

// RemoveLocalObject cascades despawn: every local effect targeting the object
// is dropped, along with any effect the object was the source of.
func (t *StatusTracker) RemoveLocalObject(objectID uint64) {
	delete(t.local, objectID)
	for target, effects := range t.local {
		for id, se := range effects {
			if se.SourceID == objectID {
				delete(effects, id)
			}
		}
		if len(effects) == 0 {
			delete(t.local, target)
		}
	}
}

// EffectsOn returns the live, unexpired effects on a target. Both registries
// are consulted when a character id is known.
func (t *StatusTracker) EffectsOn(objectID, characterID uint64, now int64) []*StatusEffect {
	var out []*StatusEffect
	for _, se := range t.local[objectID] {
		if se.ExpireAt == 0 || se.ExpireAt > now {
			out = append(out, se)
		}
	}
	if characterID != 0 {
		for _, se := range t.party[characterID] {
			if se.ExpireAt == 0 || se.ExpireAt > now {
				out = append(out, se)
			}
		}
	}
	return out
}

func (t *StatusTracker) Reset() {
	t.local = make(map[uint64]map[uint32]*StatusEffect)
	t.party = make(map[uint64]map[uint32]*StatusEffect)
}
