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

package pagetables

import "fmt"

// Scheme is a translation scheme.
//
// The kernel picks exactly one at build time; both are always compiled here
// so the tooling can build either.
type Scheme uint8

const (
	// Sv39 is three-level translation of 39-bit virtual addresses. The boot
	// tables use a single root with 1 GiB leaves.
	Sv39 Scheme = iota

	// Sv48 is four-level translation of 48-bit virtual addresses. The boot
	// tables use a root and three subordinate tables.
	Sv48
)

// ParseScheme parses the name of a scheme, as returned by Scheme.String.
func ParseScheme(s string) (Scheme, error) {
	switch s {
	case "sv39":
		return Sv39, nil
	case "sv48":
		return Sv48, nil
	default:
		return 0, fmt.Errorf("invalid translation scheme %q: must be sv39 or sv48", s)
	}
}

// String implements fmt.Stringer.String.
func (s Scheme) String() string {
	switch s {
	case Sv39:
		return "sv39"
	case Sv48:
		return "sv48"
	default:
		return fmt.Sprintf("Scheme(%d)", uint8(s))
	}
}

// Levels returns the number of translation levels.
//
//go:nosplit
func (s Scheme) Levels() int {
	if s == Sv48 {
		return 4
	}
	return 3
}

// Tables returns the number of boot tables the scheme populates.
//
//go:nosplit
func (s Scheme) Tables() int {
	if s == Sv48 {
		return maxLevels
	}
	return 1
}

// VirtualAddressBits returns the number of significant virtual address bits.
//
//go:nosplit
func (s Scheme) VirtualAddressBits() uint {
	return LevelShift(s.Levels())
}

// IsCanonical returns true iff va is canonical under s: every bit above the
// most significant virtual address bit is a copy of it.
func (s Scheme) IsCanonical(va uintptr) bool {
	top := uint64(va) >> (s.VirtualAddressBits() - 1)
	return top == 0 || top == ^uint64(0)>>(s.VirtualAddressBits()-1)
}
