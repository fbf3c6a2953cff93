package progression

import "strings"

// ActionKind identifies one recognized user action.
// The zero value is ActionUnknown, which never earns a reward.
type ActionKind uint8

const (
	ActionUnknown ActionKind = iota
	ActionConnectWallet
	ActionDailyGM
	ActionBuyAlpha
	ActionShare
	ActionSharePnL
	ActionSwap
	ActionEnableNotifications
	ActionDeployToken
	ActionGenerateMetadata
	ActionSavePreclank
	ActionCheckLeaderboard
	ActionOpenTokenDetails
	ActionFollow
	ActionViewChart
	ActionSwitchTab
	ActionClaimXP

	actionCount
)

var actionNames = [actionCount]string{
	ActionUnknown:             "UNKNOWN",
	ActionConnectWallet:       "CONNECT_WALLET",
	ActionDailyGM:             "DAILY_GM",
	ActionBuyAlpha:            "BUY_ALPHA",
	ActionShare:               "SHARE",
	ActionSharePnL:            "SHARE_PNL",
	ActionSwap:                "SWAP",
	ActionEnableNotifications: "ENABLE_NOTIFICATIONS",
	ActionDeployToken:         "DEPLOY_TOKEN",
	ActionGenerateMetadata:    "GENERATE_METADATA",
	ActionSavePreclank:        "SAVE_PRECLANK",
	ActionCheckLeaderboard:    "CHECK_LEADERBOARD",
	ActionOpenTokenDetails:    "OPEN_TOKEN_DETAILS",
	ActionFollow:              "FOLLOW",
	ActionViewChart:           "VIEW_CHART",
	ActionSwitchTab:           "SWITCH_TAB",
	ActionClaimXP:             "CLAIM_XP",
}

var questTitles = map[ActionKind]string{
	ActionSwap:                "Execute a Trade",
	ActionDailyGM:             "Say GM",
	ActionBuyAlpha:            "Ape into Alpha",
	ActionShare:               "Share on Farcaster",
	ActionSharePnL:            "Flex your PnL",
	ActionFollow:              "Follow Creator",
	ActionEnableNotifications: "Turn on Notifs",
	ActionViewChart:           "Analyze a Chart",
	ActionGenerateMetadata:    "Dream a Token",
	ActionSavePreclank:        "Config Preclank",
	ActionDeployToken:         "Launch on Clanker",
	ActionConnectWallet:       "Link Wallet",
	ActionCheckLeaderboard:    "Scout Rankings",
	ActionOpenTokenDetails:    "Do Your Research",
	ActionSwitchTab:           "Explore App",
}

// String returns the wire name, e.g. "DAILY_GM".
func (a ActionKind) String() string {
	if a >= actionCount {
		return actionNames[ActionUnknown]
	}
	return actionNames[a]
}

// Label returns the notification label: the wire name with spaces.
func (a ActionKind) Label() string {
	return strings.ReplaceAll(a.String(), "_", " ")
}

// QuestTitle returns the quest board title, falling back to Label.
func (a ActionKind) QuestTitle() string {
	if title, ok := questTitles[a]; ok {
		return title
	}
	return a.Label()
}

// Valid reports whether a is a recognized kind other than ActionUnknown.
func (a ActionKind) Valid() bool {
	return a > ActionUnknown && a < actionCount
}

// ParseAction resolves a wire name (case-insensitive, surrounding space
// ignored). Unrecognized names return ActionUnknown and false.
func ParseAction(name string) (ActionKind, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for kind := ActionConnectWallet; kind < actionCount; kind++ {
		if actionNames[kind] == name {
			return kind, true
		}
	}
	return ActionUnknown, false
}

// Actions returns every recognized kind in declaration order.
func Actions() []ActionKind {
	kinds := make([]ActionKind, 0, actionCount-1)
	for kind := ActionConnectWallet; kind < actionCount; kind++ {
		kinds = append(kinds, kind)
	}
	return kinds
}

// MarshalText implements encoding.TextMarshaler.
func (a ActionKind) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized names
// decode to ActionUnknown rather than failing.
func (a *ActionKind) UnmarshalText(text []byte) error {
	*a, _ = ParseAction(string(text))
	return nil
}
