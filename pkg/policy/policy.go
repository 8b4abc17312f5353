// Package policy fixes the compliance timeframes: how many days a pending
// security update may stay outstanding before the host is out of compliance.
package policy

import (
	"time"

	"github.com/check-security-updates/pkg/advisory"
)

const (
	criticalThresholdDays = 30
	defaultThresholdDays  = 90
)

// ThresholdDays returns the allowed outstanding days for a severity:
// 30 for Critical, 90 for everything else. Fixed for compatibility with
// existing monitoring configurations.
func ThresholdDays(s advisory.Severity) int {
	if s == advisory.SeverityCritical {
		return criticalThresholdDays
	}
	return defaultThresholdDays
}

// IsBreached reports whether an update outstanding for ageDays has exceeded
// its timeframe. The boundary day itself is still compliant.
func IsBreached(s advisory.Severity, ageDays int) bool {
	return ageDays > ThresholdDays(s)
}

// Deadline is the compliance deadline for an update first seen on the given
// day: the last date on which the host is still compliant. The entry
// breaches on the day after.
func Deadline(s advisory.Severity, firstSeen time.Time) time.Time {
	return firstSeen.AddDate(0, 0, ThresholdDays(s))
}
