// Copyright 2026 The rvboot Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the mkpt configuration, read from a TOML or YAML
// file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
	"rvboot.dev/rvboot/pkg/hostarch"
	"rvboot.dev/rvboot/pkg/log"
	"rvboot.dev/rvboot/pkg/ring0/pagetables"
)

// Address is a 64-bit address. It is written as a string in TOML, e.g.
// "0xffff_ffc0_0000_0000", because TOML integers are signed 64-bit. YAML
// accepts it quoted or bare.
type Address uint64

// UnmarshalText implements encoding.TextUnmarshaler.UnmarshalText.
func (a *Address) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(strings.TrimSpace(string(text)), 0, 64)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", text, err)
	}
	*a = Address(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.UnmarshalYAML. The raw scalar is
// used so that bare hex values are not first resolved to a signed integer.
func (a *Address) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: address must be a scalar", value.Line)
	}
	return a.UnmarshalText([]byte(value.Value))
}

// MarshalText implements encoding.TextMarshaler.MarshalText.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// String implements fmt.Stringer.String.
func (a Address) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}

// Layout is the TOML form of pagetables.Layout.
type Layout struct {
	PhysBase       Address `toml:"phys_base" yaml:"phys_base"`
	PhysVirtOffset Address `toml:"phys_virt_offset" yaml:"phys_virt_offset"`
	KernelBase     Address `toml:"kernel_base" yaml:"kernel_base"`
	Sv48Virtual    Address `toml:"sv48_virtual" yaml:"sv48_virtual"`
	Sv48Physical   Address `toml:"sv48_physical" yaml:"sv48_physical"`
}

// Config holds the configuration for building boot tables.
type Config struct {
	// Scheme is the translation scheme: sv39 or sv48.
	Scheme string `toml:"scheme" yaml:"scheme"`

	// TableBase is the physical address the linker places the boot tables
	// at. It is the value written to satp (shifted) and the base of every
	// branch entry.
	TableBase Address `toml:"table_base" yaml:"table_base"`

	// Layout describes the mapped windows.
	Layout Layout `toml:"layout" yaml:"layout"`
}

// DefaultTableBase is where the kernel linker script reserves the boot table
// section: the first page-aligned address after the 2 MiB firmware hole.
const DefaultTableBase = 0x8020_0000

// Default returns the configuration matching the kernel's built-in layout.
func Default() *Config {
	l := pagetables.DefaultLayout
	return &Config{
		Scheme:    pagetables.Sv39.String(),
		TableBase: DefaultTableBase,
		Layout: Layout{
			PhysBase:       Address(l.PhysBase),
			PhysVirtOffset: Address(l.PhysVirtOffset),
			KernelBase:     Address(l.KernelBase),
			Sv48Virtual:    Address(l.Sv48Virtual),
			Sv48Physical:   Address(l.Sv48Physical),
		},
	}
}

// Load reads the configuration at path. Files ending in .yaml or .yml are
// decoded as YAML, anything else as TOML. Keys absent from the file keep
// their default values. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	parse := Parse
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		parse = ParseYAML
	}
	c, err := parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	return c, nil
}

// Parse is like Load, but decodes a TOML document.
func Parse(data string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(data, c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys %v", undecoded)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseYAML is like Parse, but decodes a YAML document.
func ParseYAML(data string) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(strings.NewReader(data))
	dec.KnownFields(true)
	// An empty document keeps the defaults.
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	s, err := pagetables.ParseScheme(c.Scheme)
	if err != nil {
		return err
	}
	if !hostarch.Addr(c.TableBase).IsPageAligned() {
		return fmt.Errorf("table base %v is not page aligned", c.TableBase)
	}
	l := c.PageTableLayout()
	if err := l.Validate(s); err != nil {
		return fmt.Errorf("invalid %v layout: %w", s, err)
	}
	return nil
}

// TranslationScheme returns the parsed scheme. It must only be called on a
// validated Config.
func (c *Config) TranslationScheme() pagetables.Scheme {
	s, err := pagetables.ParseScheme(c.Scheme)
	if err != nil {
		panic(fmt.Sprintf("unvalidated config: %v", err))
	}
	return s
}

// PageTableLayout returns the layout in the form the builders consume.
func (c *Config) PageTableLayout() pagetables.Layout {
	return pagetables.Layout{
		PhysBase:       uintptr(c.Layout.PhysBase),
		PhysVirtOffset: uintptr(c.Layout.PhysVirtOffset),
		KernelBase:     uintptr(c.Layout.KernelBase),
		Sv48Virtual:    uintptr(c.Layout.Sv48Virtual),
		Sv48Physical:   uintptr(c.Layout.Sv48Physical),
	}
}

// ToTOML encodes the configuration.
func (c *Config) ToTOML() (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Log logs important aspects of the configuration.
func (c *Config) Log() {
	log.Infof("Config.Scheme: %s", c.Scheme)
	log.Infof("Config.TableBase: %v", c.TableBase)
	log.Debugf("Config.Layout.PhysBase: %v", c.Layout.PhysBase)
	log.Debugf("Config.Layout.PhysVirtOffset: %v", c.Layout.PhysVirtOffset)
	log.Debugf("Config.Layout.KernelBase: %v", c.Layout.KernelBase)
	log.Debugf("Config.Layout.Sv48Virtual: %v", c.Layout.Sv48Virtual)
	log.Debugf("Config.Layout.Sv48Physical: %v", c.Layout.Sv48Physical)
}
