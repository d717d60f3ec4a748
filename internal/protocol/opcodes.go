package protocol

// Opcode identifies a decoded game packet. Values match the capture layer's
// frame header, not any particular client build.
type Opcode uint16

const (
	OpUnknown Opcode = iota
	OpCounterAttackNotify
	OpDeathNotify
	OpIdentityGaugeChangeNotify
	OpInitEnv
	OpInitPC
	OpNewPC
	OpNewVehicle
	OpNewNpc
	OpNewNpcSummon
	OpNewProjectile
	OpNewTrap
	OpNewTransit
	OpPartyInfo
	OpPartyLeaveResult
	OpPartyStatusEffectAddNotify
	OpPartyStatusEffectRemoveNotify
	OpPartyStatusEffectResultNotify
	OpRaidBegin
	OpRaidBossKillNotify
	OpRaidResult
	OpRemoveObject
	OpSkillCastNotify
	OpSkillCooldownNotify
	OpSkillDamageAbnormalMoveNotify
	OpSkillDamageNotify
	OpSkillStartNotify
	OpStatusEffectAddNotify
	OpStatusEffectRemoveNotify
	OpStatusEffectSyncDataNotify
	OpTriggerBossBattleStatus
	OpTriggerStartNotify
	OpTroopMemberUpdateMinNotify
	OpZoneMemberLoadStatusNotify
	OpZoneObjectUnpublishNotify
)

// String returns a human-readable opcode name for logging.
func (op Opcode) String() string {
	switch op {
	case OpCounterAttackNotify:
		return "CounterAttackNotify"
	case OpDeathNotify:
		return "DeathNotify"
	case OpIdentityGaugeChangeNotify:
		return "IdentityGaugeChangeNotify"
	case OpInitEnv:
		return "InitEnv"
	case OpInitPC:
		return "InitPC"
	case OpNewPC:
		return "NewPC"
	case OpNewVehicle:
		return "NewVehicle"
	case OpNewNpc:
		return "NewNpc"
	case OpNewNpcSummon:
		return "NewNpcSummon"
	case OpNewProjectile:
		return "NewProjectile"
	case OpNewTrap:
		return "NewTrap"
	case OpNewTransit:
		return "NewTransit"
	case OpPartyInfo:
		return "PartyInfo"
	case OpPartyLeaveResult:
		return "PartyLeaveResult"
	case OpPartyStatusEffectAddNotify:
		return "PartyStatusEffectAddNotify"
	case OpPartyStatusEffectRemoveNotify:
		return "PartyStatusEffectRemoveNotify"
	case OpPartyStatusEffectResultNotify:
		return "PartyStatusEffectResultNotify"
	case OpRaidBegin:
		return "RaidBegin"
	case OpRaidBossKillNotify:
		return "RaidBossKillNotify"
	case OpRaidResult:
		return "RaidResult"
	case OpRemoveObject:
		return "RemoveObject"
	case OpSkillCastNotify:
		return "SkillCastNotify"
	case OpSkillCooldownNotify:
		return "SkillCooldownNotify"
	case OpSkillDamageAbnormalMoveNotify:
		return "SkillDamageAbnormalMoveNotify"
	case OpSkillDamageNotify:
		return "SkillDamageNotify"
	case OpSkillStartNotify:
		return "SkillStartNotify"
	case OpStatusEffectAddNotify:
		return "StatusEffectAddNotify"
	case OpStatusEffectRemoveNotify:
		return "StatusEffectRemoveNotify"
	case OpStatusEffectSyncDataNotify:
		return "StatusEffectSyncDataNotify"
	case OpTriggerBossBattleStatus:
		return "TriggerBossBattleStatus"
	case OpTriggerStartNotify:
		return "TriggerStartNotify"
	case OpTroopMemberUpdateMinNotify:
		return "TroopMemberUpdateMinNotify"
	case OpZoneMemberLoadStatusNotify:
		return "ZoneMemberLoadStatusNotify"
	case OpZoneObjectUnpublishNotify:
		return "ZoneObjectUnpublishNotify"
	default:
		return "Unknown"
	}
}
