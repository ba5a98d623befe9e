package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ShayCichocki/skillflow/internal/flow"
	"github.com/ShayCichocki/skillflow/internal/registry"
	"github.com/ShayCichocki/skillflow/internal/state"
	"github.com/ShayCichocki/skillflow/pkg/models"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return cell
		}).
		Headers(headers...)
}

// SkillTable renders skills one per row in the given order.
func SkillTable(skills []*models.SkillMetadata) string {
	if len(skills) == 0 {
		return mutedStyle.Render("No skills registered.")
	}
	t := newTable("NAME", "SCORE", "USES", "SECURITY", "CAPABILITIES", "UPDATED")
	for _, s := range skills {
		t.Row(
			s.Name,
			fmt.Sprintf("%.1f", s.ReuseScore),
			fmt.Sprintf("%d", s.UsageCount),
			string(s.SecurityStatus),
			strings.Join(s.Capabilities, ", "),
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return t.String()
}

// SkillInfo renders every field of one skill.
func SkillInfo(s *models.SkillMetadata) string {
	lastScan := "never"
	if s.LastScan != nil {
		lastScan = s.LastScan.Local().Format(time.RFC3339)
	}
	rows := [][2]string{
		{"Name", s.Name},
		{"Description", s.Description},
		{"Path", s.Path},
		{"Version", s.Version},
		{"Author", s.Author},
		{"Capabilities", joinOrNone(s.Capabilities)},
		{"Tags", joinOrNone(s.Tags)},
		{"Dependencies", joinOrNone(s.Dependencies)},
		{"Usage count", fmt.Sprintf("%d", s.UsageCount)},
		{"Reuse score", fmt.Sprintf("%.1f", s.ReuseScore)},
		{"Security", statusStyle(s.SecurityStatus).Render(string(s.SecurityStatus))},
		{"Last scan", lastScan},
		{"Created", s.CreatedAt.Local().Format(time.RFC3339)},
		{"Updated", s.UpdatedAt.Local().Format(time.RFC3339)},
		{"Hash", s.Hash},
	}
	return titleStyle.Render(s.Name) + "\n" + keyValues(rows)
}

// RunTable renders recorded runs, newest first.
func RunTable(runs []*state.Run) string {
	if len(runs) == 0 {
		return mutedStyle.Render("No runs recorded.")
	}
	t := newTable("ID", "STARTED", "RESULT", "SKILL", "WARN", "ERR", "REQUEST")
	for _, r := range runs {
		result := "ok"
		if !r.Success {
			result = "failed"
		}
		t.Row(
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			result,
			r.SkillName,
			fmt.Sprintf("%d", len(r.Warnings)),
			fmt.Sprintf("%d", len(r.Errors)),
			truncate(r.Request, 48),
		)
	}
	return t.String()
}

// StatsView renders registry statistics.
func StatsView(st registry.Stats) string {
	rows := [][2]string{
		{"Skills", fmt.Sprintf("%d", st.Total)},
		{"Average score", fmt.Sprintf("%.1f", st.AverageScore)},
		{"Total uses", fmt.Sprintf("%d", st.TotalUsageCount)},
	}
	for _, status := range []models.SecurityStatus{models.SecurityPassed, models.SecurityWarning, models.SecurityFailed, models.SecurityUnscanned} {
		rows = append(rows, [2]string{"Security " + string(status), fmt.Sprintf("%d", st.ByStatus[status])})
	}
	out := titleStyle.Render("Registry") + "\n" + keyValues(rows)
	if len(st.ByCapability) > 0 {
		t := newTable("CAPABILITY", "SKILLS")
		for _, k := range sortedKeys(st.ByCapability) {
			t.Row(k, fmt.Sprintf("%d", st.ByCapability[k]))
		}
		out += "\n" + t.String()
	}
	return out
}

// ResultView renders the outcome of one pipeline run.
func ResultView(res *flow.Result) string {
	var b strings.Builder
	if res.Success {
		b.WriteString(successStyle.Render("✓ Flow created"))
	} else {
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ Run failed at %s", res.FailedAt)))
	}
	b.WriteString("\n")

	rows := [][2]string{{"Request", res.Request}}
	if res.Intent != nil {
		rows = append(rows,
			[2]string{"Capabilities", joinOrNone(res.Intent.Capabilities)},
			[2]string{"Confidence", fmt.Sprintf("%.2f", res.Intent.Confidence)},
		)
	}
	rows = append(rows, [2]string{"Candidates", joinOrNone(res.Candidates)})
	if res.Skill != nil {
		rows = append(rows,
			[2]string{"Skill", res.Skill.Name},
			[2]string{"Components", joinOrNone(res.Skill.Components)},
			[2]string{"Output", res.OutputPath},
		)
	}
	b.WriteString(keyValues(rows))

	for _, w := range res.Warnings {
		b.WriteString("\n" + warningStyle.Render("⚠ "+w))
	}
	for _, e := range res.Errors {
		b.WriteString("\n" + errorStyle.Render("✗ "+e))
	}
	for _, r := range res.Refinements {
		b.WriteString("\n" + mutedStyle.Render("hint: "+r))
	}
	return b.String()
}

func keyValues(rows [][2]string) string {
	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		label := labelStyle.Render(fmt.Sprintf("%-*s", width, r[0]))
		lines = append(lines, label+"  "+valueStyle.Render(r[1]))
	}
	return strings.Join(lines, "\n")
}

func joinOrNone(list []string) string {
	if len(list) == 0 {
		return "-"
	}
	return strings.Join(list, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
