package meter

import (
	"sync"
	"time"

	"frostmeter/internal/gamedata"
)

// Fixture ids used across the package tests.
const (
	fxLocalEntityID  = 1001
	fxLocalCharID    = 900001
	fxBardEntityID   = 1002
	fxBardCharID     = 900002
	fxBossObjectID   = 5000
	fxBossTypeID     = 620000
	fxTrashTypeID    = 630000
	fxSaydonTypeID   = 480315
	fxEstherTypeID   = 720011
	fxSkillID        = 16140
	fxHyperSkillID   = 16990
	fxBardSkillID    = 21140
	fxBuffEffectID   = 210230
	fxIdentityBuffID = 211601
	fxBrandEffectID  = 212306
	fxShieldEffectID = 700001
	fxHardCCEffectID = 800001
)

func testTables() *gamedata.Tables {
	return gamedata.New(
		map[uint16]string{102: "Berserker", 204: "Bard"},
		[]uint16{204},
		map[uint32]gamedata.SkillInfo{
			fxSkillID:      {Name: "Hell Blade", ClassID: 102},
			fxHyperSkillID: {Name: "Ragna Break", ClassID: 102, IsHyperAwakening: true},
			fxBardSkillID:  {Name: "Sound Shock", ClassID: 204},
			20201:          {Name: "Stampede", ClassID: 102, SummonSourceSkills: []uint32{20200}},
			20200:          {Name: "Ancient Spear", ClassID: 102},
		},
		map[uint32]gamedata.NpcInfo{
			fxBossTypeID:   {Name: "Frost Sentinel", Grade: "commander"},
			fxTrashTypeID:  {Name: "Training Dummy", Grade: "normal"},
			fxSaydonTypeID: {Name: "Saydon", Grade: "commander"},
		},
		map[uint32]gamedata.EffectInfo{
			fxBuffEffectID:   {Category: "buff", Group: "classskill"},
			fxIdentityBuffID: {Category: "buff", Group: "identity"},
			fxBrandEffectID:  {Category: "debuff", Group: "classskill"},
			fxShieldEffectID: {Category: "buff", IsShield: true},
			fxHardCCEffectID: {Category: "debuff", IsHardCC: true},
		},
		[]uint32{fxEstherTypeID},
	)
}

// recordingSaver captures saved encounters. Saves run on detached goroutines,
// so receivers must wait on the channel.
type recordingSaver struct {
	ch chan *Encounter
}

func newRecordingSaver() *recordingSaver {
	return &recordingSaver{ch: make(chan *Encounter, 4)}
}

func (s *recordingSaver) Save(enc *Encounter) error {
	s.ch <- enc
	return nil
}

func (s *recordingSaver) wait(timeout time.Duration) *Encounter {
	select {
	case enc := <-s.ch:
		return enc
	case <-time.After(timeout):
		return nil
	}
}

// recordingEmitter captures emitted events. Emits run on detached goroutines,
// so assertions poll until the expected count shows up.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

type emittedEvent struct {
	name    string
	payload any
}

func (e *recordingEmitter) Emit(name string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emittedEvent{name: name, payload: payload})
}

func (e *recordingEmitter) count(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.name == name {
			n++
		}
	}
	return n
}

func (e *recordingEmitter) last(name string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.events) - 1; i >= 0; i-- {
		if e.events[i].name == name {
			return e.events[i].payload, true
		}
	}
	return nil, false
}

func (e *recordingEmitter) waitCount(name string, want int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if e.count(name) >= want {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return e.count(name) >= want
}

// memPlayerStore is an in-memory PlayerStore.
type memPlayerStore struct {
	names map[uint64]string
}

func newMemPlayerStore() *memPlayerStore {
	return &memPlayerStore{names: make(map[uint64]string)}
}

func (s *memPlayerStore) Record(characterID uint64, name string) {
	s.names[characterID] = name
}

func (s *memPlayerStore) Name(characterID uint64) (string, bool) {
	name, ok := s.names[characterID]
	return name, ok
}
