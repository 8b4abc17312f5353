package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultCachePath, cfg.CachePath)
	assert.Equal(t, "auto", cfg.PackageManager)
	assert.False(t, cfg.NoKernel)
	assert.Equal(t, []string{"kernel"}, cfg.KernelPatterns)
	assert.Equal(t, []string{"firefox", "chrom"}, cfg.CriticalPatterns)
	assert.Equal(t, 60*time.Second, cfg.PkgmgrTimeout())
	assert.Equal(t, "nagios", cfg.Output)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "check.yml")
	content := `cache_path: /var/cache/security-updates.cache
package_manager: dnf
no_kernel: true
kernel_patterns: [kernel, kmod]
pkgmgr_timeout_seconds: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/security-updates.cache", cfg.CachePath)
	assert.Equal(t, "dnf", cfg.PackageManager)
	assert.True(t, cfg.NoKernel)
	assert.Equal(t, []string{"kernel", "kmod"}, cfg.KernelPatterns)
	assert.Equal(t, 30*time.Second, cfg.PkgmgrTimeout())
	// untouched fields keep their defaults
	assert.Equal(t, "nagios", cfg.Output)
	assert.Equal(t, []string{"firefox", "chrom"}, cfg.CriticalPatterns)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.BoolP("verbose", "v", false, "")
	flags.BoolP("debug", "d", false, "")
	flags.BoolP("no-kernel", "k", false, "")
	flags.StringP("cache", "c", DefaultCachePath, "")
	flags.String("package-manager", "auto", "")
	flags.String("output", "nagios", "")
	return flags
}

func TestMergeFlags(t *testing.T) {
	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"-v", "-k", "--cache", "/tmp/other.cache", "--output", "json"}))

	cfg := MergeFlags(Default(), flags)

	assert.True(t, cfg.Verbose)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.NoKernel)
	assert.Equal(t, "/tmp/other.cache", cfg.CachePath)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "auto", cfg.PackageManager)
}

func TestMergeFlagsKeepsConfigValuesWhenUnset(t *testing.T) {
	flags := testFlags()
	require.NoError(t, flags.Parse(nil))

	cfg := Default()
	cfg.CachePath = "/var/cache/from-config.cache"
	cfg.NoKernel = true
	cfg = MergeFlags(cfg, flags)

	assert.Equal(t, "/var/cache/from-config.cache", cfg.CachePath, "unchanged flag must not clobber config file")
	assert.True(t, cfg.NoKernel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad output", func(c *Config) { c.Output = "xml" }, "invalid output format"},
		{"bad package manager", func(c *Config) { c.PackageManager = "apt" }, "unsupported package manager"},
		{"empty cache path", func(c *Config) { c.CachePath = "" }, "cache path"},
		{"zero timeout", func(c *Config) { c.PkgmgrTimeoutSeconds = 0 }, "pkgmgr_timeout_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateRejectsDirectoryCachePath(t *testing.T) {
	cfg := Default()
	cfg.CachePath = t.TempDir()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}
