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

// Package pagetables builds the RISC-V boot page tables.
//
// Everything reachable from BuildSv39 and BuildSv48 runs with the MMU off
// and before the Go runtime has a heap, so it must not allocate, grow the
// stack or take locks. The remainder (Walk, Layout.Validate) is used by the
// host-side tooling and tests.
package pagetables

import (
	"rvboot.dev/rvboot/pkg/bits"
	"rvboot.dev/rvboot/pkg/hostarch"
)

const (
	// entriesPerPage is the number of PTEs in a single table.
	entriesPerPage = 512

	// indexBits is the width of the virtual address slice consumed by each
	// level of translation.
	indexBits = 9

	// maxLevels is the deepest scheme supported (Sv48).
	maxLevels = 4
)

// PTEs is a collection of entries: one page-sized table.
type PTEs [entriesPerPage]PTE

// Translator translates tables to physical addresses.
type Translator interface {
	// PhysicalFor returns the physical address for the given table.
	//
	// The returned address must be page aligned.
	PhysicalFor(ptes *PTEs) uintptr

	// LookupPTEs looks up a table by its physical address. It is the
	// inverse of PhysicalFor and is only used when walking.
	LookupPTEs(physical uintptr) *PTEs
}

// LevelShift returns the shift of the virtual address slice indexing the
// table at the given level. Level 0 is the last (4 KiB) level.
//
//go:nosplit
func LevelShift(level int) uint {
	return hostarch.PageShift + uint(level)*indexBits
}

// LevelSize returns the size of the region mapped by a leaf at the given
// level.
//
//go:nosplit
func LevelSize(level int) uint64 {
	return uint64(1) << LevelShift(level)
}

// Index returns the index into the table at the given level for va. Each
// level consumes its own 9-bit slice of the address, so the result is always
// in [0, 511].
//
//go:nosplit
func Index(level int, va uintptr) int {
	return int(bits.Field64(uint64(va), LevelShift(level), indexBits))
}
