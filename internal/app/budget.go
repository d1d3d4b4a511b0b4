package app

// Health classifies budget consumption so the shell can warn the operator
// before a send would be rejected outright.
type Health string

const (
	HealthOK       Health = "ok"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
)

// BudgetReport is a transient snapshot of estimated context usage. It is
// recomputed per turn and never persisted.
type BudgetReport struct {
	Total   int            `json:"total"`
	PerRole map[string]int `json:"per_role"`
	Percent float64        `json:"percent"` // of the hard limit, 0-100
	Health  Health         `json:"health"`
}

// BudgetMonitor derives usage health from token estimates and configured
// limits. It is an immutable value; build one from Config and pass it around.
type BudgetMonitor struct {
	Limit         int
	WarnRatio     float64
	CriticalRatio float64
}

func NewBudgetMonitor(cfg Config) BudgetMonitor {
	return BudgetMonitor{
		Limit:         cfg.ContextLimitTokens,
		WarnRatio:     cfg.WarnRatio,
		CriticalRatio: cfg.CriticalRatio,
	}
}

func (m BudgetMonitor) Report(history []Message) BudgetReport {
	total, perRole := EstimateHistory(history)
	report := BudgetReport{Total: total, PerRole: perRole}
	if m.Limit > 0 {
		report.Percent = float64(total) / float64(m.Limit) * 100
	}
	switch {
	case report.Percent >= m.CriticalRatio*100:
		report.Health = HealthCritical
	case report.Percent >= m.WarnRatio*100:
		report.Health = HealthWarning
	default:
		report.Health = HealthOK
	}
	return report
}

// ShouldTruncate reports whether history should be rewritten before the next
// model call. Triggering at the warning tier keeps us ahead of hard rejects.
func (m BudgetMonitor) ShouldTruncate(report BudgetReport) bool {
	return report.Health != HealthOK
}
