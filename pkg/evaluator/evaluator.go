package evaluator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/check-security-updates/pkg/advisory"
	"github.com/check-security-updates/pkg/cache"
	"github.com/check-security-updates/pkg/policy"
)

// Options control a single evaluation run. Kernel exclusion affects only
// counting and breach computation, never what is written to the cache, so
// kernel patches keep aging while live patching hides them from the check.
type Options struct {
	ExcludeKernel  bool
	KernelPatterns []string
}

type Evaluator struct {
	cache *cache.Cache
	opts  Options
	log   zerolog.Logger
}

func New(c *cache.Cache, opts Options, log zerolog.Logger) *Evaluator {
	return &Evaluator{cache: c, opts: opts, log: log}
}

// Result is the outcome of one run. Computed fresh each time; not persisted.
type Result struct {
	Counts     map[advisory.Severity]int
	Compliant  bool
	NextBreach *time.Time // earliest compliance deadline among non-breached entries
	Inserted   []cache.Entry

	Degraded       bool
	DegradedReason string
}

// Evaluate reconciles the cache against the advisories outstanding today,
// aggregates counts per severity, determines overall compliance, and
// computes the earliest date a currently-compliant update must be applied.
func (e *Evaluator) Evaluate(current []advisory.Advisory, today time.Time) Result {
	today = cache.Day(today)

	inserted := e.cache.Reconcile(current, today)
	for _, en := range inserted {
		e.log.Info().Str("package", en.Package).Stringer("severity", en.Severity).Msg("new security update first seen today")
	}

	res := Result{
		Counts:    make(map[advisory.Severity]int, len(advisory.Severities)),
		Compliant: true,
		Inserted:  inserted,
	}
	for _, s := range advisory.Severities {
		res.Counts[s] = 0
	}

	for _, en := range e.cache.Entries() {
		if e.opts.ExcludeKernel && advisory.NameMatches(en.Package, e.opts.KernelPatterns) {
			e.log.Debug().Str("package", en.Package).Msg("kernel package excluded")
			continue
		}

		res.Counts[en.Severity]++

		age := en.AgeDays(today)
		deadline := policy.Deadline(en.Severity, en.FirstSeen)
		if policy.IsBreached(en.Severity, age) {
			e.log.Debug().
				Str("package", en.Package).
				Stringer("severity", en.Severity).
				Int("age_days", age).
				Str("deadline", deadline.Format("2006-01-02")).
				Msg("patch timeframe expired")
			res.Compliant = false
			continue
		}

		e.log.Debug().
			Str("package", en.Package).
			Stringer("severity", en.Severity).
			Int("age_days", age).
			Str("deadline", deadline.Format("2006-01-02")).
			Msg("patch within timeframe")
		if res.NextBreach == nil || deadline.Before(*res.NextBreach) {
			d := deadline
			res.NextBreach = &d
		}
	}

	return res
}
