// Package config loads declarative binding definitions into a
// container.Registry. Definition files are YAML; parameter values support
// "@id" cross-references and "${VAR}" environment substitution, with the
// environment optionally bootstrapped from .env files.
//
//	services:
//	  mailer:
//	    class: app.SMTPMailer
//	    params:
//	      host: "${MAIL_HOST}"
//	      transport: "@smtp"
//	lock: true
package config

import (
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-container/container"
)

// File is a parsed binding-definition document.
type File struct {
	Services map[string]Service `yaml:"services"`
	Lock     bool               `yaml:"lock"`
}

// Service is one binding: a class target with optional parameter overrides.
// An empty class means the id itself names the class.
type Service struct {
	Class  string         `yaml:"class"`
	Params map[string]any `yaml:"params"`
}

// LoadEnv reads .env files into the process environment. Missing files are
// not an error; production environments usually have no .env.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	_ = godotenv.Load(files...)
}

// Load reads and parses a binding-definition file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	return Parse(raw)
}

// Parse parses a binding-definition document.
func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(err, "config: parsing definitions")
	}
	return &f, nil
}

// Apply registers the file's bindings and parameters onto reg, in sorted id
// order for determinism, and locks the registry when the file says so.
func (f *File) Apply(reg *container.Registry) error {
	ids := make([]string, 0, len(f.Services))
	for id := range f.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		svc := f.Services[id]
		class := svc.Class
		if class == "" {
			class = id
		}
		if err := reg.Register(id, class); err != nil {
			return errors.Wrapf(err, "config: binding %q", id)
		}
		names := make([]string, 0, len(svc.Params))
		for name := range svc.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := reg.SetParameter(id, name, expandValue(svc.Params[name])); err != nil {
				return errors.Wrapf(err, "config: parameter %s.%s", id, name)
			}
		}
	}
	if f.Lock {
		reg.Lock()
	}
	return nil
}

// expandValue rewrites string parameter values: "@id" becomes a
// cross-reference marker ("@@" escapes a literal "@"), and "${VAR}" is
// substituted from the environment.
func expandValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch {
	case strings.HasPrefix(s, "@@"):
		s = s[1:]
	case strings.HasPrefix(s, "@"):
		return container.RefTo(s[1:])
	}
	if strings.Contains(s, "${") {
		return os.Expand(s, os.Getenv)
	}
	return s
}

// Get returns an environment value, falling back to def.
func Get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
