package storage

import (
	"path/filepath"
	"testing"

	"frostmeter/internal/meter"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "encounters.db"), "test")
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleEncounter(fightStart int64, boss string) *meter.Encounter {
	enc := meter.NewEncounter()
	enc.FightStart = fightStart
	enc.LastCombatPacket = fightStart + 120_000
	enc.LocalPlayer = "Frostbite"
	enc.CurrentBossName = boss
	enc.Difficulty = "Hard"
	enc.RaidID = 308226
	enc.Region = "EUC"
	enc.RaidClear = true
	enc.PartyInfo = [][]string{{"Frostbite", "Aria"}}
	enc.BossHPLog[boss] = []meter.BossHPSample{{Time: 0, HP: 1000, Percent: 100}, {Time: 1000, HP: 500, Percent: 50}}
	enc.Entities = map[string]*meter.EncounterEntity{
		"Frostbite": {
			Name: "Frostbite", Kind: "player", ClassID: 102, CharacterID: 900001, GearLevel: 1620,
			Damage: meter.DamageStats{DamageDealt: 12_000_000, Hits: 300, Crits: 120, ShieldGiven: 100},
			Skills: map[uint32]*meter.SkillStats{16140: {Name: "Hell Blade", Hits: 300, TotalDamage: 12_000_000}},
		},
		"Aria": {
			Name: "Aria", Kind: "player", ClassID: 204, CharacterID: 900002,
			Damage: meter.DamageStats{DamageDealt: 1_200_000, ShieldGiven: 9_000_000},
			Skills: map[uint32]*meter.SkillStats{},
		},
		boss: {
			Name: boss, Kind: "boss", NpcID: 620000,
			Damage: meter.DamageStats{DamageDealt: 3_000_000, DamageTaken: 13_200_000},
			Skills: map[uint32]*meter.SkillStats{},
		},
		"Pet": {
			Name: "Pet", Kind: "summon",
			Damage: meter.DamageStats{DamageDealt: 42},
			Skills: map[uint32]*meter.SkillStats{},
		},
	}
	return enc
}

// TestSaveAndGet tests the full persist/load cycle of one encounter
func TestSaveAndGet(t *testing.T) {
	repo := openTestRepo(t)
	if err := repo.Save(sampleEncounter(1_000_000, "Frost Sentinel")); err != nil {
		t.Fatalf("save: %v", err)
	}

	previews, err := repo.ListPreviews(10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(previews) != 1 {
		t.Fatalf("expected 1 preview, got %d", len(previews))
	}
	p := previews[0]
	if p.BossName != "Frost Sentinel" || p.Difficulty != "Hard" || !p.Cleared {
		t.Errorf("preview wrong: %+v", p)
	}
	// Players are class-tagged, sorted, comma joined; non-players excluded.
	if p.Players != "102:Frostbite,204:Aria" {
		t.Errorf("players column wrong: %q", p.Players)
	}
	if p.LocalPlayerDPS != 12_000_000/120 {
		t.Errorf("local dps wrong: %d", p.LocalPlayerDPS)
	}

	rec, err := repo.Get(p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil {
		t.Fatal("saved encounter should load")
	}
	if rec.Duration != 120 || rec.TotalDamageDealt != 12_000_000+1_200_000+3_000_000+42 {
		t.Errorf("summary wrong: %+v", rec)
	}
	if rec.Misc.Region != "EUC" || rec.Misc.Version != "test" || !rec.Misc.RaidClear || len(rec.Misc.PartyInfo) != 1 {
		t.Errorf("misc wrong: %+v", rec.Misc)
	}
	if len(rec.BossHPLog["Frost Sentinel"]) != 2 {
		t.Errorf("boss hp log lost: %+v", rec.BossHPLog)
	}

	// The summon is filtered out of the entity rows.
	if len(rec.Entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(rec.Entities))
	}
	var local *EntityRecord
	for i := range rec.Entities {
		if rec.Entities[i].IsLocal {
			local = &rec.Entities[i]
		}
	}
	if local == nil || local.Name != "Frostbite" {
		t.Fatalf("local entity missing: %+v", rec.Entities)
	}
	if local.Damage.Hits != 300 || local.Skills[16140].TotalDamage != 12_000_000 {
		t.Errorf("blobs did not round trip: %+v", local)
	}
}

// TestListPreviewsOrderAndPaging tests newest-first ordering and offsets
func TestListPreviewsOrderAndPaging(t *testing.T) {
	repo := openTestRepo(t)
	for i, start := range []int64{1_000_000, 3_000_000, 2_000_000} {
		boss := []string{"First", "Third", "Second"}[i]
		if err := repo.Save(sampleEncounter(start, boss)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	previews, err := repo.ListPreviews(2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(previews) != 2 || previews[0].BossName != "Third" || previews[1].BossName != "Second" {
		t.Errorf("ordering wrong: %+v", previews)
	}

	rest, err := repo.ListPreviews(2, 2)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(rest) != 1 || rest[0].BossName != "First" {
		t.Errorf("paging wrong: %+v", rest)
	}
}

// TestGetMissingEncounter tests the not-found contract
func TestGetMissingEncounter(t *testing.T) {
	repo := openTestRepo(t)
	rec, err := repo.Get(12345)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec != nil {
		t.Error("missing id should return nil, nil")
	}
}

// TestBlobRoundTrip tests the gzip+JSON column codec
func TestBlobRoundTrip(t *testing.T) {
	in := map[string][]int{"a": {1, 2, 3}}
	blob, err := compressJSON(in)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	var out map[string][]int
	if err := decompressJSON(blob, &out); err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if len(out["a"]) != 3 || out["a"][2] != 3 {
		t.Errorf("round trip wrong: %+v", out)
	}

	// Empty blobs decode to the zero value.
	var empty map[string][]int
	if err := decompressJSON(nil, &empty); err != nil {
		t.Fatalf("nil blob: %v", err)
	}
	if empty != nil {
		t.Error("nil blob should leave the target untouched")
	}
}
