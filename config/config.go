// Package config loads the version/active/configurations YAML envelope
// used by every other package's settings file (robot.yml, controller.yml,
// env.yml, agent.yml). It generalizes the teacher's FromYaml, a two-stage
// viper-read-then-yaml.Unmarshal: viper decodes the outer envelope
// (version, active selector, and a list of named configurations, each an
// opaque "def" blob), then a second yaml.Unmarshal decodes the selected
// blob into the caller's strongly typed struct, via Go generics rather
// than the teacher's single hardcoded TrainingConfig.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Entry is one named configuration within an envelope's Configurations
// list; Def is decoded again by LoadSelected into the caller's type.
type Entry struct {
	Name string      `mapstructure:"name"`
	Def  interface{} `mapstructure:"def"`
}

// Envelope is the outer shape every settings file shares: a schema tag for
// human/editor tooling, a version for forward compatibility, the name of
// the active configuration, and the list of configurations to select from.
type Envelope struct {
	Schema         string  `mapstructure:"$schema"`
	Version        string  `mapstructure:"version"`
	Active         string  `mapstructure:"active"`
	Configurations []Entry `mapstructure:"configurations"`
}

// InvalidError reports a malformed or missing configuration file or
// selector, matching spec §7's config "Invalid" error kind.
type InvalidError struct {
	Path string
	Err  error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("config: invalid %s: %v", e.Path, e.Err)
}

func (e *InvalidError) Unwrap() error { return e.Err }

func newInvalidError(path string, err error) *InvalidError {
	return &InvalidError{Path: path, Err: err}
}

// LoadEnvelope reads and decodes the outer envelope at path.
func LoadEnvelope(path string) (*Envelope, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, newInvalidError(path, err)
	}

	env := &Envelope{}
	if err := vp.Unmarshal(env); err != nil {
		return nil, newInvalidError(path, err)
	}
	return env, nil
}

// LoadSelected reads the envelope at path and decodes its active
// configuration's Def blob into a new T, the teacher's FromYaml
// generalized across config shapes via a generic type parameter.
func LoadSelected[T any](path string) (*T, error) {
	env, err := LoadEnvelope(path)
	if err != nil {
		return nil, err
	}

	for _, entry := range env.Configurations {
		if entry.Name != env.Active {
			continue
		}
		blob, err := yaml.Marshal(entry.Def)
		if err != nil {
			return nil, newInvalidError(path, err)
		}
		out := new(T)
		if err := yaml.Unmarshal(blob, out); err != nil {
			return nil, newInvalidError(path, err)
		}
		return out, nil
	}

	return nil, newInvalidError(path, fmt.Errorf("no configuration named %q", env.Active))
}
