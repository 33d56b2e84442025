package config

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/viper"

	"github.com/tsgonest/apitypes/internal/errors"
	"github.com/tsgonest/apitypes/internal/typegen"
)

// Namespace is the package.json key and the file name stem searched for.
const Namespace = "apitypes"

// SearchFiles lists the files checked in each directory, in priority order.
// package.json only counts when it carries an "apitypes" key.
var SearchFiles = []string{
	"package.json",
	"." + Namespace + "rc",
	"." + Namespace + "rc.json",
	"." + Namespace + "rc.yaml",
	"." + Namespace + "rc.yml",
	"." + Namespace + "rc.toml",
	Namespace + ".config.json",
	Namespace + ".config.yaml",
	Namespace + ".config.yml",
	Namespace + ".config.toml",
}

// Config is the run configuration.
type Config struct {
	Output OutputConfig `mapstructure:"output"`
	Strict bool         `mapstructure:"strict"` // fail operations on unrecognized schema shapes
	Cycles string       `mapstructure:"cycles"` // "error" or "alias"

	// File is the config file the values came from; empty when none was found.
	File string `mapstructure:"-"`
	// Warnings holds non-fatal validation findings.
	Warnings []string `mapstructure:"-"`

	unknown []string
}

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// DefaultOutputPath is used when nothing sets output.path.
const DefaultOutputPath = "./generated"

// SetDefaults registers the default value of every recognized key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output.path", DefaultOutputPath)
	v.SetDefault("strict", false)
	v.SetDefault("cycles", string(typegen.CycleError))
}

// BindEnvVars binds the environment overrides.
func BindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("output.path", "APITYPES_OUTPUT_PATH")
	_ = v.BindEnv("strict", "APITYPES_STRICT")
	_ = v.BindEnv("cycles", "APITYPES_CYCLES")
}

var knownKeys = []string{"output.path", "strict", "cycles"}

// DefaultConfig returns the configuration used when no file is found and no
// environment override is set.
func DefaultConfig() Config {
	return Config{
		Output: OutputConfig{Path: DefaultOutputPath},
		Cycles: string(typegen.CycleError),
	}
}

// CyclePolicy returns the parsed cycles setting.
func (c *Config) CyclePolicy() (typegen.CyclePolicy, error) {
	return typegen.ParseCyclePolicy(c.Cycles)
}

// Load builds the configuration. When file is empty the search walks from
// dir up to the file system root; dir defaults to the working directory.
// A relative output.path is resolved against dir.
func Load(file, dir string) (*Config, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "resolving working directory"), errors.ErrConfig)
		}
		dir = wd
	}

	v := viper.New()
	SetDefaults(v)
	BindEnvVars(v)

	path := file
	if path == "" {
		path = Find(dir)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	if path != "" {
		if err := readInto(v, path); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "reading config file %s", path), errors.ErrConfig)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decoding config %s", describe(path)), errors.ErrConfig)
	}
	cfg.File = path
	for _, key := range v.AllKeys() {
		if !slices.Contains(knownKeys, key) {
			cfg.unknown = append(cfg.unknown, key)
		}
	}
	slices.Sort(cfg.unknown)

	res := cfg.ValidateDetailed()
	if !res.IsValid() {
		return nil, errors.WithHint(
			errors.Mark(errors.Newf("invalid config %s: %s", describe(path), strings.Join(res.Errors, "; ")), errors.ErrConfig),
			"recognized keys are output.path, strict and cycles",
		)
	}
	cfg.Warnings = res.Warnings

	if !filepath.IsAbs(cfg.Output.Path) {
		cfg.Output.Path = filepath.Join(dir, cfg.Output.Path)
	}
	return &cfg, nil
}

func describe(path string) string {
	if path == "" {
		return "(defaults and environment)"
	}
	return path
}

// Find returns the first config file found walking from dir up to the file
// system root, or "" when there is none.
func Find(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		for _, name := range SearchFiles {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			if name == "package.json" && !hasPackageSection(candidate) {
				continue
			}
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func hasPackageSection(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	_, ok := packageSection(data)
	return ok
}

// packageSection extracts the "apitypes" value from package.json content.
// A null value counts as absent.
func packageSection(data []byte) (jsontext.Value, bool) {
	var pkg map[string]jsontext.Value
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, false
	}
	section, ok := pkg[Namespace]
	if !ok || section.Kind() == 'n' {
		return nil, false
	}
	return section, true
}

func readInto(v *viper.Viper, path string) error {
	switch filepath.Base(path) {
	case "package.json":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		section, ok := packageSection(data)
		if !ok {
			return errors.Newf("package.json has no %q key", Namespace)
		}
		v.SetConfigType("json")
		return v.ReadConfig(bytes.NewReader(section))

	case "." + Namespace + "rc":
		// YAML or JSON; YAML parses both.
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		v.SetConfigType("yaml")
		return v.ReadConfig(bytes.NewReader(data))

	default:
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}
}
