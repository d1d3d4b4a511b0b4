package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetMonitorHealthTiers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContextLimitTokens = 100
	cfg.WarnRatio = 0.8
	cfg.CriticalRatio = 0.95
	monitor := NewBudgetMonitor(cfg)

	// One user message of 2n ASCII bytes estimates to n tokens plus 4 framing.
	historyOfTokens := func(contentTokens int) []Message {
		return []Message{NewMessage(RoleUser, strings.Repeat("ab", contentTokens))}
	}

	cases := []struct {
		name          string
		contentTokens int
		want          Health
		truncate      bool
	}{
		{"well under", 10, HealthOK, false},
		{"just under warn", 75, HealthOK, false}, // 79 total
		{"at warn", 76, HealthWarning, true},     // 80 total
		{"at critical", 91, HealthCritical, true},
		{"over limit", 200, HealthCritical, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := monitor.Report(historyOfTokens(tc.contentTokens))
			assert.Equal(t, tc.want, report.Health)
			assert.Equal(t, tc.truncate, monitor.ShouldTruncate(report))
		})
	}
}

func TestBudgetReportPercent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContextLimitTokens = 200
	monitor := NewBudgetMonitor(cfg)

	history := []Message{NewMessage(RoleUser, strings.Repeat("ab", 96))} // 96 + 4 framing
	report := monitor.Report(history)

	require.Equal(t, 100, report.Total)
	assert.InDelta(t, 50.0, report.Percent, 0.001)
	assert.Equal(t, HealthOK, report.Health)
}
