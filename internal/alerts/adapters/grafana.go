package adapters

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/akmatori/alertrelay/internal/alerts"
)

// GrafanaAdapter handles Grafana unified alerting webhooks
type GrafanaAdapter struct {
	alerts.BaseAdapter
}

// NewGrafanaAdapter creates a new Grafana adapter
func NewGrafanaAdapter() *GrafanaAdapter {
	return &GrafanaAdapter{
		BaseAdapter: alerts.BaseAdapter{SourceType: alerts.SourceGrafana},
	}
}

// Matches requires a non-empty alerts array and a receiver field
func (a *GrafanaAdapter) Matches(payload map[string]interface{}) bool {
	return hasAlertsArray(payload) && alerts.HasKey(payload, "receiver")
}

// Normalize maps the first alert of a Grafana payload
func (a *GrafanaAdapter) Normalize(payload map[string]interface{}, receivedAt time.Time) alerts.AlertInput {
	element := firstAlert(payload)
	status := alerts.FirstNonEmpty(
		alerts.ExtractString(payload, "status"),
		alerts.ExtractString(element, "status"),
	)

	input := normalizePromAlert(payload, element, status, a.SourceType, promAlertDefaults{
		title:  "Grafana Alert",
		source: "Grafana",
	}, receivedAt)

	input.Metadata.URLs = a.buildURLs(payload, element, input.Metadata.Labels)
	return input
}

// buildURLs collects the links Grafana sends and synthesizes a silence link
// when the external URL is known
func (a *GrafanaAdapter) buildURLs(payload, element, labels map[string]interface{}) map[string]string {
	urls := make(map[string]string)

	externalURL := strings.TrimRight(alerts.ExtractString(payload, "externalURL"), "/")
	if externalURL != "" {
		urls["silence"] = SilenceURL(externalURL, labels)
	} else if silence := alerts.ExtractString(element, "silenceURL"); silence != "" {
		urls["silence"] = silence
	}

	if source := alerts.FirstNonEmpty(alerts.ExtractString(element, "generatorURL"), externalURL); source != "" {
		urls["source"] = source
	}
	if dashboard := alerts.ExtractString(element, "dashboardURL"); dashboard != "" {
		urls["dashboard"] = dashboard
	}
	if panel := alerts.ExtractString(element, "panelURL"); panel != "" {
		urls["panel"] = panel
	}

	if len(urls) == 0 {
		return nil
	}
	return urls
}

// SilenceURL builds a Grafana "new silence" link with one matcher per label,
// ordered by label name
func SilenceURL(externalURL string, labels map[string]interface{}) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	matchers := make([]string, 0, len(keys))
	for _, k := range keys {
		matchers = append(matchers, "matcher="+url.QueryEscape(k+"="+alerts.Stringify(labels[k])))
	}
	return strings.TrimRight(externalURL, "/") + "/alerting/silence/new?" + strings.Join(matchers, "&")
}
