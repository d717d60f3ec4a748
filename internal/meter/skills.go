package meter

// castKey identifies the latest cast of one skill by one entity.
type castKey struct {
	entityID uint64
	skillID  uint32
}

// SkillTracker records cast timestamps per (entity, skill), cooldown windows,
// and the permanent link from spawned projectile/trap ids back to the cast
// that created them.
type SkillTracker struct {
	casts       map[castKey]int64
	spawnToCast map[uint64]int64
	cooldowns   map[uint32]int64
}

func NewSkillTracker() *SkillTracker {
	t := &SkillTracker{}
	t.Reset()
	return t
}

// NewCast records or overwrites the latest cast timestamp for the key.
func (t *SkillTracker) NewCast(entityID uint64, skillID uint32, now int64) {
	t.casts[castKey{entityID, skillID}] = now
}

// CastTime returns the most recent cast timestamp for the key.
func (t *SkillTracker) CastTime(entityID uint64, skillID uint32) (int64, bool) {
	ts, ok := t.casts[castKey{entityID, skillID}]
	return ts, ok
}

// LinkSpawn ties a spawned projectile/trap id to the owner's latest cast of
// the skill. The link is permanent: a later cast of the same skill must not
// re-time damage from an already-flying projectile.
func (t *SkillTracker) LinkSpawn(spawnedID, ownerID uint64, skillID uint32) {
	if _, linked := t.spawnToCast[spawnedID]; linked {
		return
	}
	if ts, ok := t.casts[castKey{ownerID, skillID}]; ok {
		t.spawnToCast[spawnedID] = ts
	}
}

// SpawnCastTime returns the cast timestamp linked to a spawned id.
func (t *SkillTracker) SpawnCastTime(spawnedID uint64) (int64, bool) {
	ts, ok := t.spawnToCast[spawnedID]
	return ts, ok
}

// RecordCooldown stores when the skill becomes available again.
func (t *SkillTracker) RecordCooldown(skillID uint32, durationSec float32, now int64) {
	t.cooldowns[skillID] = now + int64(durationSec*1000)
}

// AvailableAt returns the skill's next availability timestamp.
func (t *SkillTracker) AvailableAt(skillID uint32) (int64, bool) {
	ts, ok := t.cooldowns[skillID]
	return ts, ok
}

func (t *SkillTracker) Reset() {
	t.casts = make(map[castKey]int64)
	t.spawnToCast = make(map[uint64]int64)
	t.cooldowns = make(map[uint32]int64)
}
