package reporter

import (
	"fmt"
	"io"

	"github.com/check-security-updates/pkg/evaluator"
)

// Status is a Nagios plugin return code.
// https://nagios-plugins.org/doc/guidelines.html#AEN78
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusCritical
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "WARNING"
	case StatusCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Code is the process exit code for the status.
func (s Status) Code() int { return int(s) }

// StatusFor maps an evaluation result to its status: WARNING once any
// severity's timeframe is breached, OK otherwise. A degraded cache only
// marks the output text, it never changes the status.
func StatusFor(res evaluator.Result) Status {
	if !res.Compliant {
		return StatusWarning
	}
	return StatusOK
}

type Reporter interface {
	Report(w io.Writer, res evaluator.Result) (Status, error)
}

func New(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	default:
		return &NagiosReporter{}
	}
}

// Failure emits a monitoring-protocol line for a run that could not
// evaluate at all (package manager missing or failing, bad configuration).
func Failure(w io.Writer, status Status, reason string) Status {
	fmt.Fprintf(w, "%s: %s\n", status, reason)
	return status
}
