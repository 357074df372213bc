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

import (
	"rvboot.dev/rvboot/pkg/bits"
)

// Visitor is called for each entry on a walk, from the root down. level is
// the level of the table holding pte. Returning false stops the walk.
type Visitor func(level int, pte *PTE) bool

// Walk walks the translation path for va the way the hardware would under
// scheme s, calling fn for each entry visited. The walk stops after an
// invalid entry, a leaf, or a branch whose target t cannot resolve.
func Walk(root *PTEs, s Scheme, t Translator, va uintptr, fn Visitor) {
	table := root
	for level := s.Levels() - 1; level >= 0 && table != nil; level-- {
		pte := &table[Index(level, va)]
		if !fn(level, pte) || !pte.Valid() || pte.IsLeaf() {
			return
		}
		table = t.LookupPTEs(pte.Address())
	}
}

// Translate returns the physical address that va resolves to under scheme s,
// together with the flags of the leaf. ok is false if va is unmapped, if a
// branch appears at the last level, or if a superpage leaf is misaligned
// (which the hardware reports as a page fault).
func Translate(root *PTEs, s Scheme, t Translator, va uintptr) (physical uintptr, opts Opts, ok bool) {
	if !s.IsCanonical(va) {
		return 0, 0, false
	}
	Walk(root, s, t, va, func(level int, pte *PTE) bool {
		if !pte.IsLeaf() {
			return true
		}
		size := LevelSize(level)
		if !bits.IsAligned64(uint64(pte.Address()), size) {
			return false
		}
		physical = pte.Address() + uintptr(uint64(va)&(size-1))
		opts = pte.Opts()
		ok = true
		return false
	})
	return physical, opts, ok
}

// Mapping is a single leaf found by Mappings.
type Mapping struct {
	// Level is the level of the table holding the leaf.
	Level int

	// Index is the index of the leaf within its table.
	Index int

	// Virtual is the first virtual address mapped.
	Virtual uintptr

	// Length is the size of the mapped region.
	Length uint64

	// Physical is the first physical address mapped.
	Physical uintptr

	// Opts are the flags of the leaf.
	Opts Opts
}

// Mappings returns every leaf reachable from root under scheme s, in
// ascending table order. Virtual addresses are sign extended to canonical
// form.
func Mappings(root *PTEs, s Scheme, t Translator) []Mapping {
	var ms []Mapping
	var visit func(table *PTEs, level int, prefix uint64)
	visit = func(table *PTEs, level int, prefix uint64) {
		for i := range table {
			pte := &table[i]
			if !pte.Valid() {
				continue
			}
			va := prefix | uint64(i)<<LevelShift(level)
			if pte.IsLeaf() {
				ms = append(ms, Mapping{
					Level:    level,
					Index:    i,
					Virtual:  uintptr(signExtend(va, s.VirtualAddressBits())),
					Length:   LevelSize(level),
					Physical: pte.Address(),
					Opts:     pte.Opts(),
				})
				continue
			}
			if level == 0 {
				continue
			}
			if next := t.LookupPTEs(pte.Address()); next != nil {
				visit(next, level-1, va)
			}
		}
	}
	visit(root, s.Levels()-1, 0)
	return ms
}

// signExtend copies bit (width-1) of v into every higher bit.
func signExtend(v uint64, width uint) uint64 {
	shift := 64 - width
	return uint64(int64(v<<shift) >> shift)
}
