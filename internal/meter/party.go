package meter

import "sort"

// PartyMember is one slot of a sub-party.
type PartyMember struct {
	CharacterID uint64
	Name        string
	ClassID     uint16
	GearLevel   float32
}

// PartyTracker maintains raid-instance -> party-instance -> member groupings.
// A character id belongs to at most one party instance at a time; re-adding
// moves the membership. The whole structure is dropped on every zone entry:
// party data never survives a zone change.
type PartyTracker struct {
	charToParty map[uint64]uint32
	members     map[uint32][]PartyMember
	raidOfParty map[uint32]uint32
	nameToChar  map[string]uint64
}

func NewPartyTracker() *PartyTracker {
	t := &PartyTracker{}
	t.Reset()
	return t
}

// Add places a member into a party, removing them from any party they were in
// before.
func (t *PartyTracker) Add(raidInstanceID, partyInstanceID uint32, m PartyMember) {
	if m.CharacterID != 0 {
		if old, ok := t.charToParty[m.CharacterID]; ok && old != partyInstanceID {
			t.removeByCharacter(old, m.CharacterID)
		}
		t.charToParty[m.CharacterID] = partyInstanceID
	}
	if m.Name != "" {
		t.nameToChar[m.Name] = m.CharacterID
	}
	t.raidOfParty[partyInstanceID] = raidInstanceID

	list := t.members[partyInstanceID]
	for i := range list {
		if list[i].CharacterID == m.CharacterID {
			list[i] = m
			t.members[partyInstanceID] = list
			return
		}
	}
	t.members[partyInstanceID] = append(list, m)
}

// Remove drops a member from a party by name. Leave packets carry the name,
// not the character id.
func (t *PartyTracker) Remove(partyInstanceID uint32, name string) {
	charID, ok := t.nameToChar[name]
	if !ok {
		return
	}
	t.removeByCharacter(partyInstanceID, charID)
	delete(t.charToParty, charID)
	delete(t.nameToChar, name)
}

func (t *PartyTracker) removeByCharacter(partyInstanceID uint32, charID uint64) {
	list := t.members[partyInstanceID]
	for i := range list {
		if list[i].CharacterID == charID {
			t.members[partyInstanceID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// PartyOf returns the party instance a character currently belongs to.
func (t *PartyTracker) PartyOf(characterID uint64) (uint32, bool) {
	id, ok := t.charToParty[characterID]
	return id, ok
}

// MembersOf returns the member list of the party the character is in, or nil.
func (t *PartyTracker) MembersOf(characterID uint64) []PartyMember {
	partyID, ok := t.charToParty[characterID]
	if !ok {
		return nil
	}
	out := make([]PartyMember, len(t.members[partyID]))
	copy(out, t.members[partyID])
	return out
}

// CharacterByName resolves a member name to its character id.
func (t *PartyTracker) CharacterByName(name string) (uint64, bool) {
	id, ok := t.nameToChar[name]
	return id, ok
}

// Groups returns the member names of every party, ordered by party instance id
// for stable output.
func (t *PartyTracker) Groups() [][]string {
	ids := make([]uint32, 0, len(t.members))
	for id, list := range t.members {
		if len(list) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	groups := make([][]string, 0, len(ids))
	for _, id := range ids {
		names := make([]string, 0, len(t.members[id]))
		for _, m := range t.members[id] {
			names = append(names, m.Name)
		}
		groups = append(groups, names)
	}
	return groups
}

// Complete reports whether every non-empty sub-party is full (4 members).
// Used to decide when a party snapshot is worth caching.
func (t *PartyTracker) Complete() bool {
	if len(t.members) == 0 {
		return false
	}
	for _, list := range t.members {
		if len(list) != 4 {
			return false
		}
	}
	return true
}

// Reset clears all mappings. Called on every zone entry.
func (t *PartyTracker) Reset() {
	t.charToParty = make(map[uint64]uint32)
	t.members = make(map[uint32][]PartyMember)
	t.raidOfParty = make(map[uint32]uint32)
	t.nameToChar = make(map[string]uint64)
}
