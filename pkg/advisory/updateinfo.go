package advisory

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

var ErrNoPackageManager = errors.New("no supported package manager found")

// updateinfo line, e.g.
// "RHSA-2022:7110 Important/Sec. device-mapper-1.02.185-3.el9_0.x86_64"
var updateinfoLine = regexp.MustCompile(`^(\S+)\s+(\S+)/Sec\.\s+(\S+)$`)

// UpdateinfoSource lists pending security updates by running the local
// package manager's `updateinfo list security` command.
type UpdateinfoSource struct {
	manager          string // dnf or yum
	criticalPatterns []string
	log              zerolog.Logger
	run              runFunc
}

type runFunc func(ctx context.Context, name string, args ...string) (string, error)

// NewUpdateinfoSource builds a source for the given package manager.
// An empty or "auto" manager is detected from the binaries on PATH.
// Packages matching criticalPatterns are escalated to Critical regardless
// of the advisory's own severity.
func NewUpdateinfoSource(manager string, criticalPatterns []string, log zerolog.Logger) (*UpdateinfoSource, error) {
	if manager == "" || manager == "auto" {
		manager = detectManager()
		if manager == "" {
			return nil, ErrNoPackageManager
		}
	}
	return &UpdateinfoSource{
		manager:          manager,
		criticalPatterns: criticalPatterns,
		log:              log,
		run:              runCmd,
	}, nil
}

func (s *UpdateinfoSource) List(ctx context.Context) ([]Advisory, error) {
	s.log.Debug().Str("manager", s.manager).Msg("listing security updates")
	out, err := s.run(ctx, s.manager, "-q", "updateinfo", "list", "security")
	if err != nil {
		return nil, fmt.Errorf("%s updateinfo list: %w", s.manager, err)
	}
	return s.parse(out)
}

func (s *UpdateinfoSource) parse(out string) ([]Advisory, error) {
	var advisories []Advisory
	var errs *multierror.Error

	for _, ln := range strings.Split(out, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || !strings.Contains(ln, "/Sec.") {
			continue // metadata headers and non-security noise
		}
		m := updateinfoLine.FindStringSubmatch(ln)
		if m == nil {
			errs = multierror.Append(errs, fmt.Errorf("malformed updateinfo line %q", ln))
			continue
		}
		sev, err := ParseSeverity(m[2])
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("line %q: %w", ln, err))
			continue
		}
		name := NormalizePackage(m[3])
		if sev != SeverityCritical && NameMatches(name, s.criticalPatterns) {
			s.log.Debug().Str("package", name).Stringer("severity", sev).Msg("escalating to Critical")
			sev = SeverityCritical
		}
		s.log.Info().Str("advisory", m[1]).Str("package", name).Stringer("severity", sev).Msg("security update pending")
		advisories = append(advisories, Advisory{Package: name, Severity: sev, ID: m[1]})
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return advisories, nil
}

// NormalizePackage reduces an RPM name-version-release.arch string to the
// bare package name: "kernel-core-5.14.0-70.el9.x86_64" becomes
// "kernel-core". The version segment is recognized by its leading digit;
// names without one are returned unchanged.
func NormalizePackage(nvra string) string {
	i := strings.LastIndex(nvra, "-")
	if i <= 0 {
		return nvra
	}
	j := strings.LastIndex(nvra[:i], "-")
	if j <= 0 {
		return nvra
	}
	if v := nvra[j+1 : i]; v == "" || (v[0] < '0' || v[0] > '9') {
		return nvra
	}
	return nvra[:j]
}

func detectManager() string {
	if hasBin("dnf") {
		return "dnf"
	}
	if hasBin("yum") {
		return "yum"
	}
	return ""
}

func hasBin(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runCmd(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	return string(out), err
}
