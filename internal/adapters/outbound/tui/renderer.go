package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/preflightci/preflight/internal/domain"
)

// ── warm amber terminal palette ──
var (
	accent    = lipgloss.Color("#D97706") // amber
	fg        = lipgloss.Color("#E8E6E3") // warm light gray
	dim       = lipgloss.Color("#6B7280") // muted gray
	faint     = lipgloss.Color("#3F3F46") // very dim
	success   = lipgloss.Color("#22C55E") // green
	danger    = lipgloss.Color("#EF4444") // red
	warning   = lipgloss.Color("#F59E0B") // amber-yellow
	info      = lipgloss.Color("#8B949E") // soft blue-gray
	skipColor = lipgloss.Color("#4B5563") // dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	gradeColors = map[string]lipgloss.Color{
		"A+": success,
		"A":  success,
		"B":  lipgloss.Color("#A3E635"), // lime
		"C":  warning,
		"D":  lipgloss.Color("#FB923C"), // orange
		"F":  danger,
	}

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	skipStyle     = lipgloss.NewStyle().Foreground(skipColor)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	infoTagStyle  = lipgloss.NewStyle().Foreground(info)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	stageStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderResult formats a finished validation run for terminal output.
func RenderResult(result *domain.ValidationResult) string {
	var b strings.Builder

	// ── Header ──
	grade := result.Grade()
	title := headerStyle.Render("preflight")
	subtitle := dimStyle.Render(projectLine(result.Project))
	scoreLine := fmt.Sprintf("%d / 100", result.Score)
	scoreStyled := lipgloss.NewStyle().
		Bold(true).
		Foreground(gradeColor(grade)).
		Render(scoreLine)
	gradeStyled := lipgloss.NewStyle().
		Bold(true).
		Foreground(gradeColor(grade)).
		Render(grade)
	statusStyled := lipgloss.NewStyle().
		Bold(true).
		Foreground(statusColor(result.Status)).
		Render(strings.ToUpper(result.Status))

	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + scoreStyled + "  " + gradeStyled + "\n" + statusStyled))
	b.WriteString("\n\n")

	// ── Stages ──
	renderStages(&b, result.Stages)

	b.WriteString("\n")
	b.WriteString("  " + separatorLine)
	b.WriteString("\n\n")

	// ── Issues ──
	issues := append([]domain.Issue(nil), result.Issues...)
	sortBySeverity(issues)
	if len(issues) > 0 {
		counts := domain.CountIssues(issues)
		b.WriteString("  ")
		b.WriteString(titleStyle.Render("Issues"))
		b.WriteString("  ")
		if counts.Errors > 0 {
			b.WriteString(errorTagStyle.Render(fmt.Sprintf("%d errors", counts.Errors)))
			b.WriteString("  ")
		}
		if counts.Warnings > 0 {
			b.WriteString(warnTagStyle.Render(fmt.Sprintf("%d warnings", counts.Warnings)))
			b.WriteString("  ")
		}
		if counts.Infos > 0 {
			b.WriteString(infoTagStyle.Render(fmt.Sprintf("%d info", counts.Infos)))
		}
		b.WriteString("\n\n")

		for _, issue := range issues {
			renderIssue(&b, issue)
		}
	} else {
		b.WriteString("  " + passStyle.Render("No issues found.") + "\n")
	}

	b.WriteString("\n")
	b.WriteString("  " + faintStyle.Render(footerLine(result)))
	b.WriteString("\n")
	return b.String()
}

// RenderDetect formats detection output for the detect command.
func RenderDetect(info *domain.ProjectInfo) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Detected Project") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	row := func(key, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "  %s %s\n", dimStyle.Render(padRight(key, 14)), value)
	}

	row("kind", string(info.Kind))
	row("name", info.Name)
	row("entry point", info.EntryPoint)
	row("build", strings.Join(info.BuildCommand, " "))
	row("start", strings.Join(info.StartCommand, " "))
	if info.DefaultPort > 0 {
		row("port", fmt.Sprintf("%d", info.DefaultPort))
	}
	if len(info.Dependencies) > 0 {
		row("dependencies", fmt.Sprintf("%d declared", len(info.Dependencies)))
	}

	return b.String()
}

func projectLine(info *domain.ProjectInfo) string {
	if info == nil {
		return "Validation Report"
	}
	if info.Name != "" {
		return fmt.Sprintf("%s · %s", info.Name, info.Kind)
	}
	return string(info.Kind)
}

func renderStages(b *strings.Builder, stages domain.StageResults) {
	if stages.Static != nil {
		renderStageRow(b, "static", stages.Static.Status, staticDetail(stages.Static))
	}
	if stages.Build != nil {
		renderStageRow(b, "build", stages.Build.Status, stages.Build.Message)
	}
	if stages.Runtime != nil {
		renderStageRow(b, "runtime", stages.Runtime.Status, stages.Runtime.Message)
	}
	if stages.UI != nil {
		renderStageRow(b, "ui", stages.UI.Status, stages.UI.Message)
		if stages.UI.AccessibilityScore != nil {
			score := *stages.UI.AccessibilityScore
			fmt.Fprintf(b, "      %s %s %s\n",
				dimStyle.Render(padRight("accessibility", 18)),
				coloredBar(score, 20),
				lipgloss.NewStyle().Foreground(scoreColor(score)).Render(fmt.Sprintf("%d", score)),
			)
		}
	}
}

// RenderStageLine formats the one-line report printed as a stage completes.
func RenderStageLine(name, status string) string {
	var b strings.Builder
	renderStageRow(&b, name, status, "")
	return b.String()
}

func renderStageRow(b *strings.Builder, name, status, detail string) {
	icon := statusIcon(status)
	label := lipgloss.NewStyle().Foreground(statusColor(status)).Render(padRight(status, 5))
	styledName := stageStyle.Render(padRight(name, 10))

	if detail != "" {
		fmt.Fprintf(b, "    %s %s %s  %s\n", icon, styledName, label, faintStyle.Render(detail))
	} else {
		fmt.Fprintf(b, "    %s %s %s\n", icon, styledName, label)
	}
}

func staticDetail(r *domain.StaticResult) string {
	detail := fmt.Sprintf("%d files analyzed", r.FilesAnalyzed)
	if r.Counts.Errors > 0 || r.Counts.Warnings > 0 {
		detail += fmt.Sprintf(", %d errors, %d warnings", r.Counts.Errors, r.Counts.Warnings)
	}
	return detail
}

func statusIcon(status string) string {
	switch status {
	case domain.StatusPass:
		return passStyle.Render("●")
	case domain.StatusWarn:
		return warnStyle.Render("●")
	case domain.StatusFail:
		return failStyle.Render("●")
	default:
		return skipStyle.Render("○")
	}
}

func statusColor(status string) lipgloss.Color {
	switch status {
	case domain.StatusPass:
		return success
	case domain.StatusWarn:
		return warning
	case domain.StatusFail:
		return danger
	default:
		return skipColor
	}
}

func renderIssue(b *strings.Builder, issue domain.Issue) {
	tag := severityTag(issue.Severity)

	loc := ""
	if issue.File != "" {
		loc = shortenPath(issue.File)
		if issue.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, issue.Line)
		}
	} else if issue.Viewport != "" {
		loc = issue.Viewport
	}

	if loc != "" {
		fmt.Fprintf(b, "    %s %s\n", tag, fileStyle.Render(loc))
		fmt.Fprintf(b, "         %s\n", dimStyle.Render(issue.Message))
	} else {
		fmt.Fprintf(b, "    %s %s\n", tag, dimStyle.Render(issue.Message))
	}
}

func severityTag(severity string) string {
	switch severity {
	case domain.SeverityError:
		return errorTagStyle.Render("error")
	case domain.SeverityWarning:
		return warnTagStyle.Render("warn ")
	default:
		return infoTagStyle.Render("info ")
	}
}

func sortBySeverity(issues []domain.Issue) {
	order := map[string]int{
		domain.SeverityError:   0,
		domain.SeverityWarning: 1,
		domain.SeverityInfo:    2,
	}
	for i := 1; i < len(issues); i++ {
		for j := i; j > 0 && order[issues[j].Severity] < order[issues[j-1].Severity]; j-- {
			issues[j], issues[j-1] = issues[j-1], issues[j]
		}
	}
}

func coloredBar(score, width int) string {
	filled := max(0, min(score*width/100, width))
	empty := width - filled

	color := scoreColor(score)
	filledStr := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	emptyStr := lipgloss.NewStyle().Foreground(faint).Render(strings.Repeat("░", empty))
	return filledStr + emptyStr
}

func scoreColor(score int) lipgloss.Color {
	switch {
	case score >= 80:
		return success
	case score >= 60:
		return lipgloss.Color("#A3E635") // lime
	case score >= 40:
		return warning
	default:
		return danger
	}
}

func footerLine(result *domain.ValidationResult) string {
	parts := []string{fmt.Sprintf("completed in %s", result.Duration.Round(10*time.Millisecond))}
	if result.CommitHash != "" {
		hash := result.CommitHash
		if len(hash) > 7 {
			hash = hash[:7]
		}
		parts = append(parts, "commit "+hash)
	}
	return strings.Join(parts, " · ")
}

func shortenPath(path string) string {
	if idx := strings.Index(path, "src/"); idx >= 0 {
		return path[idx:]
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 3 {
		return strings.Join(parts[len(parts)-3:], "/")
	}
	return path
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// RenderWatchLine is the compact single-line summary used by watch mode.
func RenderWatchLine(result *domain.ValidationResult) string {
	status := lipgloss.NewStyle().
		Bold(true).
		Foreground(statusColor(result.Status)).
		Render(padRight(result.Status, 5))

	detail := fmt.Sprintf("score %d", result.Score)
	if n := len(result.Issues); n == 1 {
		detail += ", 1 issue"
	} else if n > 1 {
		detail += fmt.Sprintf(", %d issues", n)
	}

	return fmt.Sprintf("  %s  %s %s\n",
		dimStyle.Render(time.Now().Format("15:04:05")),
		status,
		dimStyle.Render(detail),
	)
}

// RenderHistory formats recorded runs for terminal output.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No run history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Run History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for i, e := range entries {
		hash := e.CommitHash
		if len(hash) > 7 {
			hash = hash[:7]
		}
		if hash == "" {
			hash = "·······"
		}

		date := e.Timestamp
		if len(date) > 10 {
			date = date[:10]
		}

		scoreStyled := lipgloss.NewStyle().
			Foreground(scoreColor(e.Score)).
			Render(fmt.Sprintf("%d/100", e.Score))

		line := fmt.Sprintf("  %s  %s  %s  %s",
			dimStyle.Render(date),
			faintStyle.Render(hash),
			scoreStyled,
			e.Grade,
		)

		if i > 0 {
			diff := e.Score - entries[i-1].Score
			if diff > 0 {
				line += "  " + passStyle.Render(fmt.Sprintf("↑%d", diff))
			} else if diff < 0 {
				line += "  " + failStyle.Render(fmt.Sprintf("↓%d", -diff))
			}
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

func gradeColor(grade string) lipgloss.Color {
	if c, ok := gradeColors[grade]; ok {
		return c
	}
	return fg
}
