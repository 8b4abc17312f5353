package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath      = ".check-security-updates.yml"
	DefaultCachePath = "/tmp/check-security-updates.cache"
)

type Config struct {
	CachePath            string   `yaml:"cache_path"`
	PackageManager       string   `yaml:"package_manager"` // auto | dnf | yum
	NoKernel             bool     `yaml:"no_kernel"`
	KernelPatterns       []string `yaml:"kernel_patterns"`
	CriticalPatterns     []string `yaml:"critical_patterns"`
	PkgmgrTimeoutSeconds int      `yaml:"pkgmgr_timeout_seconds"`
	Output               string   `yaml:"output"`
	Verbose              bool     `yaml:"-"`
	Debug                bool     `yaml:"-"`
}

func Default() *Config {
	return &Config{
		CachePath:            DefaultCachePath,
		PackageManager:       "auto",
		KernelPatterns:       []string{"kernel"},
		CriticalPatterns:     []string{"firefox", "chrom"},
		PkgmgrTimeoutSeconds: 60,
		Output:               "nagios",
	}
}

// PkgmgrTimeout bounds how long the package manager query may take.
func (c *Config) PkgmgrTimeout() time.Duration {
	return time.Duration(c.PkgmgrTimeoutSeconds) * time.Second
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MergeFlags(cfg *Config, flags *pflag.FlagSet) *Config {
	if v, err := flags.GetString("cache"); err == nil && flags.Changed("cache") {
		cfg.CachePath = v
	}
	if v, err := flags.GetString("package-manager"); err == nil && flags.Changed("package-manager") {
		cfg.PackageManager = v
	}
	if v, err := flags.GetString("output"); err == nil && flags.Changed("output") {
		cfg.Output = v
	}
	if v, err := flags.GetBool("no-kernel"); err == nil && v {
		cfg.NoKernel = true
	}
	if v, err := flags.GetBool("verbose"); err == nil {
		cfg.Verbose = v
	}
	if v, err := flags.GetBool("debug"); err == nil {
		cfg.Debug = v
	}
	return cfg
}

// Validate rejects configurations the run could not act on. Called before
// any evaluation; a failure here is fatal.
func (c *Config) Validate() error {
	switch c.Output {
	case "nagios", "json":
	default:
		return fmt.Errorf("invalid output format %q (want nagios or json)", c.Output)
	}
	switch c.PackageManager {
	case "auto", "dnf", "yum":
	default:
		return fmt.Errorf("unsupported package manager %q (want auto, dnf or yum)", c.PackageManager)
	}
	if c.CachePath == "" {
		return fmt.Errorf("cache path must not be empty")
	}
	if fi, err := os.Stat(c.CachePath); err == nil && fi.IsDir() {
		return fmt.Errorf("cache path %s is a directory", c.CachePath)
	}
	if c.PkgmgrTimeoutSeconds <= 0 {
		return fmt.Errorf("pkgmgr_timeout_seconds must be positive, got %d", c.PkgmgrTimeoutSeconds)
	}
	return nil
}
