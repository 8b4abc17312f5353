package advisory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity classifies a security advisory by urgency. The set is closed:
// anything the package manager reports outside these four values is a parse
// error, never silently sorted into a bucket.
type Severity string

const (
	SeverityCritical  Severity = "Critical"
	SeverityImportant Severity = "Important"
	SeverityModerate  Severity = "Moderate"
	SeverityLow       Severity = "Low"
)

// Severities lists every valid severity, most urgent first.
var Severities = []Severity{SeverityCritical, SeverityImportant, SeverityModerate, SeverityLow}

var ErrUnknownSeverity = errors.New("unknown severity")

func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityCritical, SeverityImportant, SeverityModerate, SeverityLow:
		return Severity(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
}

func (s Severity) String() string { return string(s) }

func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseSeverity(value.Value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Advisory is one pending security update as reported by the package
// manager. Produced fresh on every run; never persisted.
type Advisory struct {
	Package  string // normalized package name, no version/release/arch
	Severity Severity
	ID       string // e.g. RHSA-2022:7110
}

type Source interface {
	// List returns the currently outstanding security advisories.
	List(ctx context.Context) ([]Advisory, error)
}

// NameMatches reports whether a normalized package name matches any of the
// given name prefixes. Empty patterns never match.
func NameMatches(name string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
