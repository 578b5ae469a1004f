package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/application"
	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// StaleAfter flags a last pass older than this. Zero disables the flag.
	StaleAfter time.Duration
}

func renderView(status application.Status, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Nightscout to Tidepool sync"),
		s.account.Render(accountTitle(status.Username, status.APIHost)),
	}

	if !status.Known {
		lines = append(lines, s.empty.Render("No sync pass recorded yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	target := status.Sync.UploadTargetID
	if target == "" {
		target = "none"
	}
	lines = append(lines, s.header.Render("upload target: "+target))

	if pass := status.Sync.LastPass; pass != nil {
		lines = append(lines, s.section.Render(renderPass(*pass, opts, s)))
	}

	lines = append(lines, s.section.Render(highWaterLine(status.Sync.HighWaterMark, opts, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPass(pass domain.PassSummary, opts RenderOptions, s styles) string {
	finished := pass.FinishedAt
	if finished.IsZero() {
		finished = pass.StartedAt
	}

	head := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("last pass:"),
		" ",
		lipgloss.NewStyle().Foreground(ageColor(finished, opts.Now, opts.StaleAfter)).Render(formatWhen(finished, opts.Now)),
	)
	if isStale(finished, opts.Now, opts.StaleAfter) {
		head += " " + s.warning.Render("[stale]")
	}
	if elapsed := pass.FinishedAt.Sub(pass.StartedAt); !pass.StartedAt.IsZero() && elapsed > 0 {
		head += " " + s.meta.Render(fmt.Sprintf("took %s", elapsed.Round(time.Millisecond)))
	}

	parts := []string{
		head,
		s.detail.Render(fmt.Sprintf("fetched %d  converted %d  skipped %d  uploaded %d",
			pass.Fetched, pass.Converted, pass.Skipped, pass.Uploaded)),
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.key.Render("converted:"),
			" ",
			renderProgressBar(convertedPercent(pass), 24, s),
			" ",
			s.meta.Render(fmt.Sprintf("%3.0f%%", convertedPercent(pass))),
		),
	}

	if pass.Error != "" {
		parts = append(parts, s.failure.Render("error: "+pass.Error))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func highWaterLine(mark time.Time, opts RenderOptions, s styles) string {
	if mark.IsZero() {
		return s.key.Render("uploaded up to:") + " " + s.empty.Render("nothing yet")
	}
	return s.key.Render("uploaded up to:") + " " + s.detail.Render(formatWhen(mark, opts.Now))
}

func accountTitle(username, apiHost string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		username = "(no username)"
	}
	if apiHost == "" {
		return "Account: " + username
	}
	return fmt.Sprintf("Account: %s @ %s", username, apiHost)
}

func convertedPercent(pass domain.PassSummary) float64 {
	if pass.Fetched == 0 {
		return 100
	}
	return clampPercent(100 * float64(pass.Converted) / float64(pass.Fetched))
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	filled = min(max(filled, 0), width)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func isStale(at, now time.Time, staleAfter time.Duration) bool {
	if at.IsZero() || now.IsZero() || staleAfter <= 0 {
		return false
	}
	return now.Sub(at) > staleAfter
}

func formatWhen(at, now time.Time) string {
	if at.IsZero() {
		return "never"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}
	return fmt.Sprintf("%s (%s)", formatClock(at.In(now.Location()), now), formatAgo(now.Sub(at)))
}

func formatClock(at, now time.Time) string {
	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := at.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return at.Format("15:04")
	}
	return at.Format("15:04 on 02 Jan")
}

func formatAgo(d time.Duration) string {
	switch {
	case d < 0:
		return "in the future"
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	default:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// ageColor fades from bright white for a fresh pass to grey once it
// reaches staleAfter.
func ageColor(at, now time.Time, staleAfter time.Duration) lipgloss.Color {
	if at.IsZero() || now.IsZero() || staleAfter <= 0 {
		return lipgloss.Color("255")
	}
	return interpolateColor(staleAfter.Seconds()-now.Sub(at).Seconds(), 0, staleAfter.Seconds())
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale: 240 faded to 255 bright.
	baseColor := 240.0
	targetColor := 255.0
	return lipgloss.Color(fmt.Sprintf("%d", int(baseColor+(targetColor-baseColor)*normalized)))
}
