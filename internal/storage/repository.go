// Package storage persists finished encounters to a local sqlite database.
package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"frostmeter/internal/meter"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Preview is the list-view row for one saved encounter.
type Preview struct {
	ID             int64  `json:"id"`
	FightStart     int64  `json:"fightStart"`
	Duration       int64  `json:"duration"`
	BossName       string `json:"bossName"`
	Difficulty     string `json:"difficulty"`
	LocalPlayer    string `json:"localPlayer"`
	LocalPlayerDPS int64  `json:"localPlayerDps"`
	Cleared        bool   `json:"cleared"`
	Players        string `json:"players"`
}

// EncounterRecord is a fully loaded saved encounter.
type EncounterRecord struct {
	ID               int64                             `json:"id"`
	FightStart       int64                             `json:"fightStart"`
	LastCombatPacket int64                             `json:"lastCombatPacket"`
	Duration         int64                             `json:"duration"`
	TotalDamageDealt int64                             `json:"totalDamageDealt"`
	BossHPLog        map[string][]meter.BossHPSample   `json:"bossHpLog,omitempty"`
	Misc             EncounterMisc                     `json:"misc"`
	Entities         []EntityRecord                    `json:"entities"`
}

// EncounterMisc is the uncompressed JSON column with the odds and ends that
// do not deserve their own columns.
type EncounterMisc struct {
	Region      string     `json:"region,omitempty"`
	Version     string     `json:"version,omitempty"`
	Difficulty  string     `json:"difficulty,omitempty"`
	RaidID      uint32     `json:"raidId,omitempty"`
	RaidClear   bool       `json:"raidClear"`
	DamageValid bool       `json:"damageValid"`
	PartyInfo   [][]string `json:"partyInfo,omitempty"`
}

// EntityRecord is one persisted combatant.
type EntityRecord struct {
	Name        string                       `json:"name"`
	Kind        string                       `json:"kind"`
	CharacterID uint64                       `json:"characterId"`
	NpcID       uint32                       `json:"npcId,omitempty"`
	ClassID     uint16                       `json:"classId"`
	GearLevel   float32                      `json:"gearLevel,omitempty"`
	DPS         int64                        `json:"dps"`
	IsLocal     bool                         `json:"isLocal"`
	Damage      meter.DamageStats            `json:"damageStats"`
	Skills      map[uint32]*meter.SkillStats `json:"skills"`
}

// Repository stores encounters in sqlite. Saves arrive from detached
// goroutines; database/sql serializes access.
type Repository struct {
	db      *sql.DB
	version string
}

// Open opens (creating if needed) the database and applies migrations.
func Open(path, version string) (*Repository, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := &Repository{db: db, version: version}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("🗄️ encounter database ready at %s", path)
	return repo, nil
}

func (r *Repository) migrate() error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		script, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.Exec(string(script)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save writes one finished encounter: a summary row, one row per reportable
// entity, and a preview row for list views.
func (r *Repository) Save(enc *meter.Encounter) error {
	duration := enc.DurationSeconds()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	bossLog, err := compressJSON(enc.BossHPLog)
	if err != nil {
		return err
	}
	misc, err := json.Marshal(EncounterMisc{
		Region:      enc.Region,
		Version:     r.version,
		Difficulty:  enc.Difficulty,
		RaidID:      enc.RaidID,
		RaidClear:   enc.RaidClear,
		DamageValid: enc.DamageValid,
		PartyInfo:   enc.PartyInfo,
	})
	if err != nil {
		return fmt.Errorf("encode misc: %w", err)
	}

	var totalShielding int64
	for _, ent := range enc.Entities {
		totalShielding += ent.Damage.ShieldGiven
	}

	res, err := tx.Exec(`INSERT INTO encounter
		(fight_start, last_combat_packet, duration_seconds, total_damage_dealt, total_shielding, boss_hp_log, misc, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		enc.FightStart, enc.LastCombatPacket, duration, enc.TotalDamageDealt(), totalShielding, bossLog, string(misc), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert encounter: %w", err)
	}
	encounterID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("encounter id: %w", err)
	}

	var localDPS int64
	players := make([]string, 0, len(enc.Entities))
	for _, ent := range enc.Entities {
		if ent.Kind != "player" && ent.Kind != "esther" && ent.Kind != "boss" {
			continue
		}
		isLocal := ent.Name == enc.LocalPlayer
		if isLocal {
			localDPS = ent.Damage.DamageDealt / duration
		}
		if ent.Kind == "player" {
			players = append(players, fmt.Sprintf("%d:%s", ent.ClassID, ent.Name))
		}

		damageBlob, err := compressJSON(ent.Damage)
		if err != nil {
			return err
		}
		skillBlob, err := compressJSON(ent.Skills)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO encounter_entity
			(encounter_id, name, kind, character_id, npc_id, class_id, gear_level, dps, is_local, damage_stats, skill_stats)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			encounterID, ent.Name, ent.Kind, ent.CharacterID, ent.NpcID, ent.ClassID, ent.GearLevel,
			ent.Damage.DamageDealt/duration, isLocal, damageBlob, skillBlob); err != nil {
			return fmt.Errorf("insert entity %s: %w", ent.Name, err)
		}
	}
	sort.Strings(players)

	if _, err := tx.Exec(`INSERT INTO encounter_preview
		(encounter_id, fight_start, duration_seconds, boss_name, difficulty, local_player, local_player_dps, cleared, players)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		encounterID, enc.FightStart, duration, enc.CurrentBossName, enc.Difficulty,
		enc.LocalPlayer, localDPS, enc.RaidClear, strings.Join(players, ",")); err != nil {
		return fmt.Errorf("insert preview: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	log.Printf("💾 saved encounter %d (%s, %ds)", encounterID, enc.CurrentBossName, duration)
	return nil
}

// ListPreviews returns saved encounters, newest first.
func (r *Repository) ListPreviews(limit, offset int) ([]Preview, error) {
	rows, err := r.db.Query(`SELECT encounter_id, fight_start, duration_seconds, boss_name,
		difficulty, local_player, local_player_dps, cleared, players
		FROM encounter_preview ORDER BY fight_start DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list encounters: %w", err)
	}
	defer rows.Close()

	var out []Preview
	for rows.Next() {
		var p Preview
		if err := rows.Scan(&p.ID, &p.FightStart, &p.Duration, &p.BossName,
			&p.Difficulty, &p.LocalPlayer, &p.LocalPlayerDPS, &p.Cleared, &p.Players); err != nil {
			return nil, fmt.Errorf("scan preview: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get loads one saved encounter with its entities.
func (r *Repository) Get(id int64) (*EncounterRecord, error) {
	rec := &EncounterRecord{ID: id}
	var bossLog []byte
	var misc string
	err := r.db.QueryRow(`SELECT fight_start, last_combat_packet, duration_seconds,
		total_damage_dealt, boss_hp_log, misc FROM encounter WHERE id = ?`, id).
		Scan(&rec.FightStart, &rec.LastCombatPacket, &rec.Duration, &rec.TotalDamageDealt, &bossLog, &misc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load encounter %d: %w", id, err)
	}
	if err := decompressJSON(bossLog, &rec.BossHPLog); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(misc), &rec.Misc); err != nil {
		return nil, fmt.Errorf("decode misc: %w", err)
	}

	rows, err := r.db.Query(`SELECT name, kind, character_id, npc_id, class_id, gear_level,
		dps, is_local, damage_stats, skill_stats FROM encounter_entity WHERE encounter_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ent EntityRecord
		var damageBlob, skillBlob []byte
		if err := rows.Scan(&ent.Name, &ent.Kind, &ent.CharacterID, &ent.NpcID, &ent.ClassID,
			&ent.GearLevel, &ent.DPS, &ent.IsLocal, &damageBlob, &skillBlob); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		if err := decompressJSON(damageBlob, &ent.Damage); err != nil {
			return nil, err
		}
		if err := decompressJSON(skillBlob, &ent.Skills); err != nil {
			return nil, err
		}
		rec.Entities = append(rec.Entities, ent)
	}
	return rec, rows.Err()
}
