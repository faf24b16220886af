package telegram

import (
	"fmt"
	"strings"

	"golang-insider-scanner/pkg/utils"
)

const maxMessageLen = 4090

// ClusterBuyAlert is the content of a cluster-buy notification.
type ClusterBuyAlert struct {
	Ticker       string
	SignalDate   string
	InsiderCount int
	Insiders     []string
	TotalValue   string
	Description  string
}

// FormatClusterBuyAlert renders a cluster-buy alert as a Markdown message.
func FormatClusterBuyAlert(a ClusterBuyAlert) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🚨 *Cluster Buy: %s* 🚨\n", escapeMarkdown(a.Ticker)))
	sb.WriteString(fmt.Sprintf("📅 *Date:* %s\n", a.SignalDate))
	sb.WriteString(fmt.Sprintf("👥 *Insiders:* %d\n", a.InsiderCount))
	sb.WriteString(fmt.Sprintf("💰 *Combined:* %s\n", a.TotalValue))

	if len(a.Insiders) > 0 {
		sb.WriteString("\n")
		for _, name := range a.Insiders {
			sb.WriteString(fmt.Sprintf("• %s\n", escapeMarkdown(name)))
		}
	}

	if a.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(escapeMarkdown(a.Description))
	}

	return utils.Truncate(sb.String(), maxMessageLen)
}

// escapeMarkdown escapes the characters legacy Markdown treats as entity delimiters.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")
	return r.Replace(s)
}
