package adapters

import "github.com/akmatori/alertrelay/internal/alerts"

// NewNormalizer returns the default detection chain. Order matters: a payload
// can satisfy more than one predicate and the first match wins.
func NewNormalizer() *alerts.Normalizer {
	return alerts.NewNormalizer(
		NewGrafanaAdapter(),
		NewAlertmanagerAdapter(),
		NewZabbixAdapter(),
		NewGenericAdapter(),
	)
}
