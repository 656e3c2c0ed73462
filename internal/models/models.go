// Package models is the catalog of known model names: which encoding scheme
// each one uses and what it costs per million tokens.
//
// The default catalog is embedded in the binary. Custom catalogs use the same
// YAML layout and go through the same validation.
package models

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/gptok/internal/encoding"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Common errors.
var (
	ErrUnknownModel   = errors.New("unknown model")
	ErrInvalidCatalog = errors.New("invalid model catalog")
)

// Prices are USD per million tokens. A nil field means the price is not
// published for that model.
type Prices struct {
	Input       *float64 `yaml:"input" validate:"omitempty,gte=0"`
	Output      *float64 `yaml:"output" validate:"omitempty,gte=0"`
	BatchInput  *float64 `yaml:"batch_input" validate:"omitempty,gte=0"`
	BatchOutput *float64 `yaml:"batch_output" validate:"omitempty,gte=0"`
	CachedInput *float64 `yaml:"cached_input" validate:"omitempty,gte=0"`
}

// Model is one catalog entry.
type Model struct {
	Name     string `yaml:"name" validate:"required"`
	Encoding string `yaml:"encoding" validate:"required,scheme"`
	Prices   Prices `yaml:"prices"`
}

// Prefix maps every model name starting with Prefix to Encoding.
type Prefix struct {
	Prefix   string `yaml:"prefix" validate:"required"`
	Encoding string `yaml:"encoding" validate:"required,scheme"`
}

// Catalog is an immutable, validated model list.
type Catalog struct {
	Models   []Model  `yaml:"models" validate:"required,dive"`
	Prefixes []Prefix `yaml:"prefixes" validate:"dive"`

	byName map[string]int
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// scheme accepts any built-in encoding name or alias.
	_ = v.RegisterValidation("scheme", func(fl validator.FieldLevel) bool {
		_, ok := encoding.LookupScheme(fl.Field().String())
		return ok
	})
	return v
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Load returns the embedded catalog. It is parsed once per process.
func Load() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(catalogYAML)
	})
	return defaultCatalog, defaultErr
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	if err := validate.Struct(&c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value: %v)", e.Namespace(), e.Tag(), e.Value()))
			}
			return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	c.byName = make(map[string]int, len(c.Models))
	for i, m := range c.Models {
		if _, dup := c.byName[m.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate model %q", ErrInvalidCatalog, m.Name)
		}
		c.byName[m.Name] = i
	}

	return &c, nil
}

// Lookup returns the entry for an exact model name.
func (c *Catalog) Lookup(name string) (Model, error) {
	i, ok := c.byName[name]
	if !ok {
		return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return c.Models[i], nil
}

// Resolve returns the entry that prices and encodes name:
//   - an exact entry
//   - else the longest entry E with name of the form E-<suffix>, so dated
//     snapshots price as their base model
//   - else an unpriced entry named name, with the encoding of the longest
//     matching prefix
func (c *Catalog) Resolve(name string) (Model, error) {
	if i, ok := c.byName[name]; ok {
		return c.Models[i], nil
	}

	base := -1
	for i, m := range c.Models {
		if strings.HasPrefix(name, m.Name+"-") && (base < 0 || len(m.Name) > len(c.Models[base].Name)) {
			base = i
		}
	}
	if base >= 0 {
		return c.Models[base], nil
	}

	best := -1
	for i, p := range c.Prefixes {
		if strings.HasPrefix(name, p.Prefix) && (best < 0 || len(p.Prefix) > len(c.Prefixes[best].Prefix)) {
			best = i
		}
	}
	if best < 0 {
		return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return Model{Name: name, Encoding: c.Prefixes[best].Encoding}, nil
}

// EncodingFor resolves a model name to its encoding scheme as Resolve does.
func (c *Catalog) EncodingFor(name string) (string, error) {
	m, err := c.Resolve(name)
	if err != nil {
		return "", err
	}
	return m.Encoding, nil
}

// Names returns the exact model names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Models))
	for i, m := range c.Models {
		names[i] = m.Name
	}
	return names
}
