package reporter

import (
	"fmt"
	"io"

	"github.com/check-security-updates/pkg/advisory"
	"github.com/check-security-updates/pkg/evaluator"
)

// NagiosReporter renders the single summary line the monitoring system
// consumes: severity counts and the next patch deadline, followed by a
// pipe-delimited perfdata block for graphing.
type NagiosReporter struct{}

func (r *NagiosReporter) Report(w io.Writer, res evaluator.Result) (Status, error) {
	status := StatusFor(res)

	next := "none"
	if res.NextBreach != nil {
		next = res.NextBreach.Format("2006-01-02")
	}

	msg := fmt.Sprintf("%s: Critical=%d Important=%d Moderate=%d Low=%d next_patch_date=%s",
		status,
		res.Counts[advisory.SeverityCritical],
		res.Counts[advisory.SeverityImportant],
		res.Counts[advisory.SeverityModerate],
		res.Counts[advisory.SeverityLow],
		next,
	)
	if res.Degraded {
		msg += fmt.Sprintf(" (cache degraded: %s)", res.DegradedReason)
	}

	perfdata := fmt.Sprintf("Critical=%d;Important=%d;Moderate=%d;Low=%d;",
		res.Counts[advisory.SeverityCritical],
		res.Counts[advisory.SeverityImportant],
		res.Counts[advisory.SeverityModerate],
		res.Counts[advisory.SeverityLow],
	)

	_, err := fmt.Fprintf(w, "%s|%s\n", msg, perfdata)
	return status, err
}
