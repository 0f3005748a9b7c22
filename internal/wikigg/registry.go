// Package wikigg resolves which wiki a WikiHop page is playing and builds the
// paths used to switch between wikis.
package wikigg

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor describes one playable wiki.
type Descriptor struct {
	Key  string `json:"key" yaml:"-"`
	Name string `json:"name" yaml:"name"`
	API  string `json:"api" yaml:"api"`
	Site string `json:"site" yaml:"site"`
}

// Registry is an immutable table of wikis. The zero value is not usable; build
// one with Parse or use Builtin.
type Registry struct {
	marker     string
	defaultKey string
	order      []string
	wikis      map[string]Descriptor
}

// ErrInvalidTable is wrapped by every error Parse returns.
var ErrInvalidTable = errors.New("invalid wiki table")

//go:embed wikis.yaml
var builtinTable []byte

var builtin = mustParse(builtinTable)

// Builtin returns the table compiled into the binary.
func Builtin() *Registry {
	return builtin
}

type document struct {
	Marker  string    `yaml:"marker"`
	Default string    `yaml:"default"`
	Wikis   yaml.Node `yaml:"wikis"`
}

// Parse reads a wiki table. Declaration order of the wikis mapping is kept.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}

	marker := strings.TrimSpace(doc.Marker)
	if marker == "" || strings.Contains(marker, "/") {
		return nil, fmt.Errorf("%w: marker %q must be a single path segment", ErrInvalidTable, doc.Marker)
	}

	if doc.Wikis.Kind != yaml.MappingNode || len(doc.Wikis.Content) == 0 {
		return nil, fmt.Errorf("%w: wikis must be a non-empty mapping", ErrInvalidTable)
	}

	reg := &Registry{
		marker:     marker,
		defaultKey: doc.Default,
		wikis:      make(map[string]Descriptor, len(doc.Wikis.Content)/2),
	}

	for i := 0; i+1 < len(doc.Wikis.Content); i += 2 {
		keyNode, valueNode := doc.Wikis.Content[i], doc.Wikis.Content[i+1]
		key := keyNode.Value
		if key == "" || strings.Contains(key, "/") {
			return nil, fmt.Errorf("%w: line %d: key %q must be a single path segment", ErrInvalidTable, keyNode.Line, key)
		}
		if _, dup := reg.wikis[key]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate key %q", ErrInvalidTable, keyNode.Line, key)
		}

		var d Descriptor
		if err := valueNode.Decode(&d); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTable, key, err)
		}
		d.Key = key
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTable, key, err)
		}

		reg.wikis[key] = d
		reg.order = append(reg.order, key)
	}

	if _, ok := reg.wikis[reg.defaultKey]; !ok {
		return nil, fmt.Errorf("%w: default %q is not a known wiki", ErrInvalidTable, doc.Default)
	}

	return reg, nil
}

func mustParse(data []byte) *Registry {
	reg, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return reg
}

func (d Descriptor) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("missing name")
	}
	if err := checkURL("api", d.API); err != nil {
		return err
	}
	return checkURL("site", d.Site)
}

func checkURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("missing %s", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s %q is not an absolute http(s) url", field, raw)
	}
	return nil
}

// Marker is the path segment that precedes a wiki key.
func (r *Registry) Marker() string { return r.marker }

// DefaultKey is the key used whenever a path names no known wiki.
func (r *Registry) DefaultKey() string { return r.defaultKey }

// Default returns the descriptor of the default wiki.
func (r *Registry) Default() Descriptor { return r.wikis[r.defaultKey] }

// Lookup returns the descriptor registered under key.
func (r *Registry) Lookup(key string) (Descriptor, bool) {
	d, ok := r.wikis[key]
	return d, ok
}

// Keys returns the wiki keys in declaration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// List returns the wikis in declaration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.wikis[key])
	}
	return out
}

// ListWikis returns the whole table keyed by wiki key. The map is a copy.
func (r *Registry) ListWikis() map[string]Descriptor {
	out := make(map[string]Descriptor, len(r.wikis))
	for k, v := range r.wikis {
		out[k] = v
	}
	return out
}
