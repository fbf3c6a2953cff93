package progression

import "sort"

// RewardTable maps action kinds to their XP reward.
// Missing kinds and zero values mean the action is a no-op.
type RewardTable map[ActionKind]int

// DefaultRewards returns the stock reward table.
//
// CLAIM_XP is recorded by the claim flow but deliberately earns nothing.
func DefaultRewards() RewardTable {
	return RewardTable{
		ActionSwap:                50,
		ActionDailyGM:             10,
		ActionBuyAlpha:            100,
		ActionShare:               25,
		ActionSharePnL:            40,
		ActionFollow:              15,
		ActionConnectWallet:       50,
		ActionEnableNotifications: 20,
		ActionDeployToken:         200,
		ActionGenerateMetadata:    30,
		ActionSavePreclank:        20,
		ActionCheckLeaderboard:    5,
		ActionOpenTokenDetails:    5,
		ActionViewChart:           5,
		ActionSwitchTab:           1,
	}
}

// Reward returns the XP for action, or 0 if it earns nothing.
func (t RewardTable) Reward(action ActionKind) int {
	if !action.Valid() {
		return 0
	}
	if r := t[action]; r > 0 {
		return r
	}
	return 0
}

// Clone returns an independent copy with negative entries dropped.
func (t RewardTable) Clone() RewardTable {
	out := make(RewardTable, len(t))
	for k, v := range t {
		if k.Valid() && v >= 0 {
			out[k] = v
		}
	}
	return out
}

// Quest is one rewarded action as shown on the quest board.
type Quest struct {
	Action ActionKind
	Title  string
	Reward int
}

// Quests lists rewarded actions, highest reward first, then by name.
func (t RewardTable) Quests() []Quest {
	quests := make([]Quest, 0, len(t))
	for kind, reward := range t {
		if reward <= 0 || !kind.Valid() {
			continue
		}
		quests = append(quests, Quest{Action: kind, Title: kind.QuestTitle(), Reward: reward})
	}
	sort.Slice(quests, func(i, j int) bool {
		if quests[i].Reward == quests[j].Reward {
			return quests[i].Action.String() < quests[j].Action.String()
		}
		return quests[i].Reward > quests[j].Reward
	})
	return quests
}
