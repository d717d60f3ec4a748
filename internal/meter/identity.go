package meter

// IDTracker keeps the bidirectional mapping between transient entity ids and
// stable character ids. Bindings migrate across zone loads, so the most recent
// bind always wins and stale reverse links are dropped.
type IDTracker struct {
	entityToChar map[uint64]uint64
	charToEntity map[uint64]uint64
}

func NewIDTracker() *IDTracker {
	return &IDTracker{
		entityToChar: make(map[uint64]uint64),
		charToEntity: make(map[uint64]uint64),
	}
}

// Bind records characterID <-> entityID, replacing any earlier binding on
// either side.
func (t *IDTracker) Bind(characterID, entityID uint64) {
	if old, ok := t.charToEntity[characterID]; ok && old != entityID {
		delete(t.entityToChar, old)
	}
	if old, ok := t.entityToChar[entityID]; ok && old != characterID {
		delete(t.charToEntity, old)
	}
	t.charToEntity[characterID] = entityID
	t.entityToChar[entityID] = characterID
}

// CharacterID resolves an entity id to its character id, if bound.
func (t *IDTracker) CharacterID(entityID uint64) (uint64, bool) {
	id, ok := t.entityToChar[entityID]
	return id, ok
}

// EntityID resolves a character id to its current entity id, if bound.
func (t *IDTracker) EntityID(characterID uint64) (uint64, bool) {
	id, ok := t.charToEntity[characterID]
	return id, ok
}

func (t *IDTracker) Reset() {
	t.entityToChar = make(map[uint64]uint64)
	t.charToEntity = make(map[uint64]uint64)
}
