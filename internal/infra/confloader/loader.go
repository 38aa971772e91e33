package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix prefixes the server's environment variables.
const DefaultEnvPrefix = "GOVMESH_"

// Loader layers a YAML file and environment variables over a struct of
// defaults.
type Loader struct {
	envPrefix string
	file      string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix replaces DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile names the YAML file. A named file must exist.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.file = path }
}

// NewLoader returns a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FilePath returns the configured file, or "".
func (l *Loader) FilePath() string { return l.file }

// Load unmarshals the file and then the environment over target. Fields no
// source mentions keep the value target already holds. Every call starts
// from an empty koanf instance, so Load doubles as reload.
func (l *Loader) Load(target any) error {
	k := koanf.New(".")

	if l.file != "" {
		if err := k.Load(file.Provider(l.file), yaml.Parser()); err != nil {
			return fmt.Errorf("read %s: %w", l.file, err)
		}
	}

	prefix := l.envPrefix
	err := k.Load(env.Provider(prefix, ".", func(name string) string {
		return EnvKey(prefix, name)
	}), nil)
	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("decode configuration: %w", err)
	}
	return nil
}

// EnvKey maps an environment variable to a koanf key. Single underscores
// separate sections; a double underscore is a literal underscore:
//
//	GOVMESH_SERVER_HTTP_ADDR              -> server.http.addr
//	GOVMESH_SERVER_HTTP_ADMIN__KEY__HASH  -> server.http.admin_key_hash
func EnvKey(prefix, name string) string {
	parts := strings.Split(strings.ToLower(strings.TrimPrefix(name, prefix)), "__")
	for i := range parts {
		parts[i] = strings.ReplaceAll(parts[i], "_", ".")
	}
	return strings.Join(parts, "_")
}
