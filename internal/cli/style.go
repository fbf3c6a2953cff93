package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/baselines/internal/progression"
	"github.com/roach88/baselines/internal/store"
)

var (
	brandBlue = lipgloss.Color("#0052FF")
	gold      = lipgloss.Color("#FFC107")
	muted     = lipgloss.Color("#8A94A6")
	success   = lipgloss.Color("#8BC34A")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(brandBlue)
	toastStyle  = lipgloss.NewStyle().Bold(true).Foreground(gold)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
	badgeStyle  = lipgloss.NewStyle().Foreground(success)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(brandBlue).
	Padding(0, 1)

var tierIcons = map[progression.Tier]string{
	progression.TierBronze: "🥉",
	progression.TierSilver: "🥈",
	progression.TierGold:   "🥇",
	progression.TierElite:  "💎",
}

// renderToast is the reward popup: "✨ DAILY GM +10 XP".
func renderToast(ev progression.RewardEvent) string {
	return toastStyle.Render(fmt.Sprintf("✨ %s +%d XP", ev.Label, ev.Amount))
}

func renderBadge(badge string) string {
	return badgeStyle.Render("🏅 " + badge)
}

// renderSettle announces a claim and any level or tier change.
func renderSettle(res progression.SettleResult) string {
	if res.Settled == 0 {
		return mutedStyle.Render("Nothing to claim.")
	}
	lines := []string{
		toastStyle.Render(fmt.Sprintf("Claimed %d XP", res.Settled)) +
			mutedStyle.Render(fmt.Sprintf(" (%d settled)", res.Total)),
	}
	if res.LeveledUp() {
		lines = append(lines, titleStyle.Render(fmt.Sprintf("⬆ LEVEL UP! Level %d", res.Level)))
	}
	if res.TierChanged() {
		lines = append(lines, titleStyle.Render(fmt.Sprintf("%s %s tier reached", tierIcons[res.Tier], res.Tier)))
	}
	return strings.Join(lines, "\n")
}

// progressBar draws pct (0-100) over width cells.
func progressBar(pct, width int) string {
	filled := pct * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// renderProfileCard is the status view.
func renderProfileCard(key string, snap progression.Snapshot, levelSize int) string {
	pct := progression.LevelProgress(snap.Settled, levelSize)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(displayName(snap.Identity, key)))
	fmt.Fprintf(&b, "Level %d  %s %d%%\n", snap.Level, progressBar(pct, 20), pct)
	fmt.Fprintf(&b, "Tier %s %s\n", tierIcons[snap.Tier], snap.Tier)
	fmt.Fprintf(&b, "XP %d settled, %d pending\n", snap.Settled, snap.Pending)
	fmt.Fprintf(&b, "Reputation %d\n", snap.Reputation)
	if len(snap.Badges) == 0 {
		b.WriteString(mutedStyle.Render("No badges yet"))
	} else {
		parts := make([]string, len(snap.Badges))
		for i, badge := range snap.Badges {
			parts[i] = renderBadge(badge)
		}
		b.WriteString(strings.Join(parts, "  "))
	}
	return cardStyle.Render(b.String())
}

// displayName prefers the username, then a shortened address.
func displayName(id progression.Identity, key string) string {
	switch {
	case id.Username != "":
		return "@" + id.Username
	case len(id.Address) > 10:
		return id.Address[:6] + "…" + id.Address[len(id.Address)-4:]
	case id.Address != "":
		return id.Address
	case id.FID > 0:
		return fmt.Sprintf("fid %d", id.FID)
	}
	return key
}

// renderTable lays out rows under a header with padded columns.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	pad := func(cells []string) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
		}
		return strings.TrimRight(strings.Join(out, "  "), " ")
	}

	lines := []string{headerStyle.Render(pad(headers))}
	for _, row := range rows {
		lines = append(lines, pad(row))
	}
	return strings.Join(lines, "\n")
}

func renderQuests(quests []progression.Quest) string {
	rows := make([][]string, len(quests))
	for i, q := range quests {
		rows[i] = []string{q.Title, q.Action.String(), fmt.Sprintf("+%d XP", q.Reward)}
	}
	return titleStyle.Render("Quests") + "\n" + renderTable([]string{"QUEST", "ACTION", "REWARD"}, rows)
}

func renderHistory(history []progression.HistoryEntry) string {
	if len(history) == 0 {
		return mutedStyle.Render("No XP earned yet.")
	}
	rows := make([][]string, len(history))
	for i, h := range history {
		rows[i] = []string{
			fmt.Sprintf("%d", h.Seq),
			h.Timestamp.Format("2006-01-02 15:04:05"),
			h.Action.Label(),
			fmt.Sprintf("+%d", h.Amount),
		}
	}
	return renderTable([]string{"SEQ", "TIME", "ACTION", "XP"}, rows)
}

// leaderboardRow pairs a stored entry with its derived standing.
type leaderboardRow struct {
	store.LeaderboardEntry
	Level int              `json:"level"`
	Tier  progression.Tier `json:"tier"`
}

func renderLeaderboard(by store.SortBy, rows []leaderboardRow) string {
	if len(rows) == 0 {
		return mutedStyle.Render("Leaderboard is empty.")
	}
	table := make([][]string, len(rows))
	for i, r := range rows {
		name := displayName(progression.Identity{Address: r.Address, FID: r.FID, Username: r.Username}, r.Key)
		if r.Verified {
			name += " ✓"
		}
		table[i] = []string{
			fmt.Sprintf("#%d", r.Rank),
			name,
			fmt.Sprintf("%d", r.Level),
			r.Tier.String(),
			fmt.Sprintf("%d", r.Settled),
			fmt.Sprintf("%d", r.Reputation),
		}
	}
	title := "Top traders by XP"
	if by == store.SortByReputation {
		title = "Top traders by reputation"
	}
	return titleStyle.Render(title) + "\n" + renderTable([]string{"RANK", "TRADER", "LVL", "TIER", "XP", "REP"}, table)
}
