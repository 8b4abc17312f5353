package reporter

import (
	"encoding/json"
	"io"

	"github.com/check-security-updates/pkg/evaluator"
)

// JSONReporter renders the full result for humans and scripting; the exit
// status logic is identical to the nagios format.
type JSONReporter struct{}

func (r *JSONReporter) Report(w io.Writer, res evaluator.Result) (Status, error) {
	status := StatusFor(res)

	type newEntry struct {
		Package   string `json:"package"`
		FirstSeen string `json:"first_seen"`
		Severity  string `json:"severity"`
	}
	type output struct {
		Status        string         `json:"status"`
		Counts        map[string]int `json:"counts"`
		Compliant     bool           `json:"compliant"`
		NextPatchDate string         `json:"next_patch_date,omitempty"`
		New           []newEntry     `json:"new,omitempty"`
		Degraded      string         `json:"degraded,omitempty"`
	}

	out := output{
		Status:    status.String(),
		Counts:    make(map[string]int, len(res.Counts)),
		Compliant: res.Compliant,
	}
	for s, n := range res.Counts {
		out.Counts[s.String()] = n
	}
	if res.NextBreach != nil {
		out.NextPatchDate = res.NextBreach.Format("2006-01-02")
	}
	for _, e := range res.Inserted {
		out.New = append(out.New, newEntry{
			Package:   e.Package,
			FirstSeen: e.FirstSeen.Format("2006-01-02"),
			Severity:  e.Severity.String(),
		})
	}
	if res.Degraded {
		out.Degraded = res.DegradedReason
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return status, enc.Encode(out)
}
