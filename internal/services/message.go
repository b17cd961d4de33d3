package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/akmatori/alertrelay/internal/database"
	"github.com/akmatori/alertrelay/internal/utils"
)

// linkOrder is the display order of metadata URLs
var linkOrder = []struct {
	key   string
	label string
}{
	{"source", "View source"},
	{"dashboard", "Dashboard"},
	{"panel", "Panel"},
	{"silence", "Silence"},
}

// RenderAlert builds the mrkdwn text of an alert notification, including
// attribution lines for every transition that has happened.
func RenderAlert(alert *database.Alert) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s *%s: %s*\n",
		database.GetSeverityEmoji(alert.Severity),
		strings.ToUpper(string(alert.Severity)),
		utils.EscapeMrkdwn(alert.Title)))
	sb.WriteString(fmt.Sprintf("*Source:* %s\n", utils.EscapeMrkdwn(alert.Source)))
	sb.WriteString(fmt.Sprintf("*Time:* %s\n", utils.FormatEpochMillis(alert.Timestamp)))
	if alert.Metadata != nil && alert.Metadata.Status != "" {
		sb.WriteString(fmt.Sprintf("*Status:* %s\n", utils.EscapeMrkdwn(alert.Metadata.Status)))
	}
	sb.WriteString("\n")
	sb.WriteString(utils.EscapeMrkdwn(alert.Message))

	if links := renderLinks(alert.Metadata); links != "" {
		sb.WriteString("\n\n")
		sb.WriteString(links)
	}

	if alert.Acknowledged && alert.AcknowledgedAt != nil {
		sb.WriteString(fmt.Sprintf("\n\n:eyes: Acknowledged by %s at %s",
			utils.EscapeMrkdwn(alert.AcknowledgedActor().Display()),
			utils.FormatEpoch(*alert.AcknowledgedAt)))
	}
	if alert.Resolved && alert.ResolvedAt != nil {
		line := fmt.Sprintf("\n:white_check_mark: Resolved by %s at %s",
			utils.EscapeMrkdwn(alert.ResolvedActor().Display()),
			utils.FormatEpoch(*alert.ResolvedAt))
		if *alert.ResolvedAt >= alert.CreatedAt {
			open := time.Duration(*alert.ResolvedAt-alert.CreatedAt) * time.Second
			line += fmt.Sprintf(" (open %s)", utils.FormatDuration(open))
		}
		sb.WriteString(line)
	}

	return sb.String()
}

func renderLinks(meta *database.AlertMetadata) string {
	if meta == nil || len(meta.URLs) == 0 {
		return ""
	}
	var links []string
	for _, l := range linkOrder {
		if u := meta.URLs[l.key]; u != "" {
			links = append(links, fmt.Sprintf("<%s|%s>", u, l.label))
		}
	}
	return strings.Join(links, " | ")
}

// ControlsFor returns the controls matching the alert's lifecycle state.
// Resolved alerts get none.
func ControlsFor(alert *database.Alert) []Control {
	resolve := Control{
		Label: "Resolve",
		Token: CallbackToken(ActionResolve, alert.ID),
		Style: ControlStyleDanger,
	}
	switch {
	case alert.Resolved:
		return nil
	case alert.Acknowledged:
		return []Control{resolve}
	default:
		return []Control{
			{
				Label: "Acknowledge",
				Token: CallbackToken(ActionAcknowledge, alert.ID),
				Style: ControlStylePrimary,
			},
			resolve,
		}
	}
}

// RenderStats builds the mrkdwn text of the /alerts summary
func RenderStats(stats *Stats) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*Unacknowledged alerts:* %s\n\n", utils.FormatNumber(stats.Unacknowledged)))

	w := stats.Weekly
	sb.WriteString("*Last 7 days*\n")
	sb.WriteString(fmt.Sprintf("Total: %s | Acknowledged: %s | Resolved: %s | Open: %s\n",
		utils.FormatNumber(w.Total), utils.FormatNumber(w.Acknowledged),
		utils.FormatNumber(w.Resolved), utils.FormatNumber(w.Unacknowledged)))
	sb.WriteString(fmt.Sprintf("%s %s critical  %s %s warning  %s %s info\n",
		database.GetSeverityEmoji(database.AlertSeverityCritical), utils.FormatNumber(w.Critical),
		database.GetSeverityEmoji(database.AlertSeverityWarning), utils.FormatNumber(w.Warning),
		database.GetSeverityEmoji(database.AlertSeverityInfo), utils.FormatNumber(w.Info)))

	sb.WriteString(renderLeaderboard("Top acknowledgers", stats.TopAcknowledgers))
	sb.WriteString(renderLeaderboard("Top resolvers", stats.TopResolvers))

	return strings.TrimRight(sb.String(), "\n")
}

func renderLeaderboard(heading string, rows []database.ActorCount) string {
	if len(rows) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n*%s*\n", heading))
	for i, row := range rows {
		actor := database.Actor{Handle: row.Handle, ID: row.ActorID, Name: row.Name}
		sb.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, utils.EscapeMrkdwn(actor.Display()), utils.FormatNumber(row.Total)))
	}
	return sb.String()
}
