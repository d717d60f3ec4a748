package gamedata

import "testing"

// TestLoadEmbeddedTables tests that the shipped dataset parses and the lookup
// indexes come back populated.
func TestLoadEmbeddedTables(t *testing.T) {
	tables, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tables.ClassName(102) != "Berserker" {
		t.Errorf("ClassName(102) = %q", tables.ClassName(102))
	}
	if !tables.IsSupportClass(204) {
		t.Error("Bard should be a support class")
	}
	if tables.IsSupportClass(102) {
		t.Error("Berserker is not a support class")
	}
	if classID, ok := tables.PlayerSkillClass(16140); !ok || classID != 102 {
		t.Errorf("PlayerSkillClass(16140) = %d, %v", classID, ok)
	}
	if !tables.IsHyperAwakeningSkill(16990) {
		t.Error("16990 should be a hyper awakening skill")
	}
	if tables.IsHyperAwakeningSkill(16140) {
		t.Error("16140 is a regular skill")
	}
	if !tables.IsBossGrade(480315) {
		t.Error("Saydon should be boss grade")
	}
	if tables.IsBossGrade(630110) {
		t.Error("a normal grade npc is not boss tier")
	}
	if !tables.IsEsther(720011) {
		t.Error("Wei should be an esther")
	}
	if tables.IsEsther(480315) {
		t.Error("Saydon is not an esther")
	}
}

// TestNpcLookup tests npc resolution for known and unknown type ids.
func TestNpcLookup(t *testing.T) {
	tables, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	info, ok := tables.Npc(480005)
	if !ok || info.Name != "Valtan" || info.Grade != "commander" {
		t.Errorf("Npc(480005) = %+v, %v", info, ok)
	}
	if _, ok := tables.Npc(1); ok {
		t.Error("unknown npc id should not resolve")
	}
}

// TestEffectClassification tests that effect lookups classify shields, hard
// CC and buff groups, with unknowns coming back zero-valued.
func TestEffectClassification(t *testing.T) {
	tables, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e := tables.Effect(360506); !e.IsShield || e.Category != "buff" {
		t.Errorf("Effect(360506) = %+v, want shield buff", e)
	}
	if e := tables.Effect(620101); !e.IsHardCC || e.Category != "debuff" {
		t.Errorf("Effect(620101) = %+v, want hard CC debuff", e)
	}
	if e := tables.Effect(211601); e.Group != "identity" {
		t.Errorf("Effect(211601).Group = %q, want identity", e.Group)
	}
	if e := tables.Effect(1); e.Category != "" || e.IsShield || e.IsHardCC {
		t.Errorf("unknown effect should be zero valued, got %+v", e)
	}
}

// TestNewIndexesFixture tests that the test-injection constructor builds the
// same lookup indexes as Load.
func TestNewIndexesFixture(t *testing.T) {
	tables := New(
		map[uint16]string{204: "Bard"},
		[]uint16{204},
		map[uint32]SkillInfo{21140: {Name: "Sonic Vibration", ClassID: 204}},
		map[uint32]NpcInfo{5000: {Name: "Dummy", Grade: "normal"}},
		map[uint32]EffectInfo{100: {Category: "buff", Group: "classskill"}},
		[]uint32{7000},
	)
	if !tables.IsSupportClass(204) {
		t.Error("injected support class not indexed")
	}
	if !tables.IsEsther(7000) {
		t.Error("injected esther not indexed")
	}
	if tables.SkillName(21140) != "Sonic Vibration" {
		t.Errorf("SkillName = %q", tables.SkillName(21140))
	}
}
