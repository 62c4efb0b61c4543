// Package config loads revsetql's on-disk configuration with viper,
// grounded on the teacher's am/load.go: a layered TOML merge (system <
// user < project < environment variables), with a package-level cache
// and a Reset for tests.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/revset/internal/revset/rerrors"
)

// AliasConfig is one `[[alias]]` table entry in revsetql.toml: a named,
// optionally parameterized revset alias (§4.1/§6's alias definitions).
type AliasConfig struct {
	Name   string
	Params []string
	Body   string
}

// Config is the resolved revsetql configuration.
type Config struct {
	RepoPath     string        `mapstructure:"repo_path"`
	Workspace    string        `mapstructure:"workspace"`
	UserEmail    string        `mapstructure:"user_email"`
	LogJSON      bool          `mapstructure:"log_json"`
	OpStorePath  string        `mapstructure:"op_store_path"`
	RateLimitRPS float64       `mapstructure:"rate_limit_rps"`
	Aliases      []AliasConfig `mapstructure:"-"`
}

var (
	global *Config
	vip    *viper.Viper
)

// Load reads configuration from the layered TOML sources plus
// environment variables (REVSETQL_* per viper's SetEnvPrefix), caching
// the result the way am.Load caches globalConfig.
func Load() (*Config, error) {
	if global != nil {
		return global, nil
	}
	v := initViper()

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, rerrors.Wrap(err, "unmarshal config")
	}
	cfg.Aliases = loadAliases(v)

	global = cfg
	return global, nil
}

// LoadFromFile loads configuration from exactly one file, bypassing the
// layered merge and the package-level cache; used by tests.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, rerrors.Wrapf(err, "read config file %s", path)
	}
	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, rerrors.Wrapf(err, "unmarshal config from %s", path)
	}
	cfg.Aliases = loadAliases(v)
	return cfg, nil
}

// Reset clears the cached configuration; tests call this between cases.
func Reset() {
	global = nil
	vip = nil
}

func defaultConfig() *Config {
	return &Config{
		Workspace:    "default",
		OpStorePath:  "~/.revsetql/oplog.db",
		RateLimitRPS: 200,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workspace", "default")
	v.SetDefault("op_store_path", "~/.revsetql/oplog.db")
	v.SetDefault("rate_limit_rps", 200)
	v.SetDefault("log_json", false)
	// repo_path/user_email have no sensible default, but must be
	// registered for AutomaticEnv to bind REVSETQL_REPO_PATH/
	// REVSETQL_USER_EMAIL during Unmarshal.
	v.SetDefault("repo_path", "")
	v.SetDefault("user_email", "")
}

func initViper() *viper.Viper {
	if vip != nil {
		return vip
	}
	v := viper.New()
	v.SetEnvPrefix("REVSETQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	mergeConfigFiles(v)

	vip = v
	return v
}

// mergeConfigFiles merges system, user and project config files in
// ascending precedence, each overriding keys from the one before it
// (§6's "User-facing surface" config layering, grounded on
// am/load.go's mergeConfigFiles).
func mergeConfigFiles(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	userDir := filepath.Join(home, ".revsetql")
	os.MkdirAll(userDir, 0o755)

	paths := []string{
		"/etc/revsetql/config.toml",
		filepath.Join(userDir, "config.toml"),
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, project)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		tmp := viper.New()
		tmp.SetConfigFile(path)
		tmp.SetConfigType("toml")
		if err := tmp.ReadInConfig(); err != nil {
			continue
		}
		// MergeConfigMap (not Set) keeps file values in viper's config
		// layer, below AutomaticEnv, so REVSETQL_* variables still win.
		if err := v.MergeConfigMap(tmp.AllSettings()); err != nil {
			continue
		}
	}
}

// findProjectConfig walks up from the working directory looking for
// revsetql.toml, the project-level config file.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, "revsetql.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadAliases reads the `[[alias]]` array-of-tables, if any, in
// deterministic name order.
func loadAliases(v *viper.Viper) []AliasConfig {
	raw := v.Get("alias")
	entries, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	var aliases []AliasConfig
	for _, e := range entries {
		m, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		a := AliasConfig{}
		if name, ok := m["name"].(string); ok {
			a.Name = name
		}
		if body, ok := m["body"].(string); ok {
			a.Body = body
		}
		if params, ok := m["params"].([]interface{}); ok {
			for _, p := range params {
				if s, ok := p.(string); ok {
					a.Params = append(a.Params, s)
				}
			}
		}
		if a.Name != "" {
			aliases = append(aliases, a)
		}
	}
	sort.Slice(aliases, func(i, j int) bool { return aliases[i].Name < aliases[j].Name })
	return aliases
}
