// Package gamedata holds the externally-maintained id tables the trackers
// depend on: class names, player skill ids, npc grades and status-effect
// classification. The tables are data, not code — they ship as embedded JSON
// and are injected into the trackers so tests and future game patches can
// swap them without touching tracking logic.
package gamedata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed data/tables.json
var rawTables []byte

// SkillInfo describes one player skill.
type SkillInfo struct {
	Name            string `json:"name"`
	ClassID         uint16 `json:"classId"`
	IsHyperAwakening bool  `json:"isHyperAwakening,omitempty"`
	SummonSourceSkills []uint32 `json:"summonSourceSkills,omitempty"`
}

// NpcInfo describes one npc type.
type NpcInfo struct {
	Name  string `json:"name"`
	Grade string `json:"grade"`
}

// Npc grades that qualify as boss-tier.
var bossGrades = map[string]bool{
	"boss":      true,
	"raid":      true,
	"epic_raid": true,
	"commander": true,
}

// EffectInfo classifies one status-effect id.
type EffectInfo struct {
	Category string `json:"category"`       // "buff" or "debuff"
	Group    string `json:"group,omitempty"` // "classskill", "identity", "hyper", ""
	IsShield bool   `json:"isShield,omitempty"`
	IsHardCC bool   `json:"isHardCc,omitempty"`
}

// Tables is the full injectable dataset.
type Tables struct {
	Classes        map[uint16]string     `json:"classes"`
	SupportClasses []uint16              `json:"supportClasses"`
	Skills         map[uint32]SkillInfo  `json:"skills"`
	Npcs           map[uint32]NpcInfo    `json:"npcs"`
	Effects        map[uint32]EffectInfo `json:"effects"`
	EstherNpcs     []uint32              `json:"estherNpcs"`

	supportSet map[uint16]bool
	estherSet  map[uint32]bool
}

// Load parses the embedded tables.
func Load() (*Tables, error) {
	var t Tables
	if err := json.Unmarshal(rawTables, &t); err != nil {
		return nil, fmt.Errorf("parse gamedata tables: %w", err)
	}
	t.index()
	return &t, nil
}

// New builds tables from already-parsed parts. Used by tests to inject small
// fixture datasets.
func New(classes map[uint16]string, supports []uint16, skills map[uint32]SkillInfo, npcs map[uint32]NpcInfo, effects map[uint32]EffectInfo, esthers []uint32) *Tables {
	t := &Tables{
		Classes:        classes,
		SupportClasses: supports,
		Skills:         skills,
		Npcs:           npcs,
		Effects:        effects,
		EstherNpcs:     esthers,
	}
	t.index()
	return t
}

func (t *Tables) index() {
	t.supportSet = make(map[uint16]bool, len(t.SupportClasses))
	for _, id := range t.SupportClasses {
		t.supportSet[id] = true
	}
	t.estherSet = make(map[uint32]bool, len(t.EstherNpcs))
	for _, id := range t.EstherNpcs {
		t.estherSet[id] = true
	}
}

// ClassName resolves a class id; unknown ids resolve to "".
func (t *Tables) ClassName(classID uint16) string {
	return t.Classes[classID]
}

// IsSupportClass reports whether the class provides party buffs/brands.
func (t *Tables) IsSupportClass(classID uint16) bool {
	return t.supportSet[classID]
}

// PlayerSkillClass returns the owning class of a player-only skill id. The
// second return is false for npc skills and unknown ids.
func (t *Tables) PlayerSkillClass(skillID uint32) (uint16, bool) {
	info, ok := t.Skills[skillID]
	if !ok {
		return 0, false
	}
	return info.ClassID, true
}

// SkillName resolves a skill id for display; unknown ids resolve to "".
func (t *Tables) SkillName(skillID uint32) string {
	return t.Skills[skillID].Name
}

// IsHyperAwakeningSkill reports whether damage from this skill id belongs to
// the hyper-awakening bucket.
func (t *Tables) IsHyperAwakeningSkill(skillID uint32) bool {
	return t.Skills[skillID].IsHyperAwakening
}

// SummonSourceSkills returns the owning skills for a summon-cast skill id.
func (t *Tables) SummonSourceSkills(skillID uint32) []uint32 {
	return t.Skills[skillID].SummonSourceSkills
}

// Npc resolves an npc type id.
func (t *Tables) Npc(typeID uint32) (NpcInfo, bool) {
	info, ok := t.Npcs[typeID]
	return info, ok
}

// IsBossGrade reports whether the npc type is boss-tier by grade.
func (t *Tables) IsBossGrade(typeID uint32) bool {
	info, ok := t.Npcs[typeID]
	return ok && bossGrades[info.Grade]
}

// IsEsther reports whether the npc type is an esther ally.
func (t *Tables) IsEsther(typeID uint32) bool {
	return t.estherSet[typeID]
}

// Effect classifies a status-effect id. Unknown ids come back as a plain
// untracked buff so the ledger never has to special-case them.
func (t *Tables) Effect(effectID uint32) EffectInfo {
	return t.Effects[effectID]
}
