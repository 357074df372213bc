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
	"fmt"
	"strings"

	"rvboot.dev/rvboot/pkg/bits"
	"rvboot.dev/rvboot/pkg/hostarch"
)

// Opts are the flag bits of a PTE (bits 0 through 7).
type Opts uint64

// PTE flags.
const (
	Valid    Opts = 1 << 0
	Readable Opts = 1 << 1
	Writable Opts = 1 << 2
	Execute  Opts = 1 << 3
	User     Opts = 1 << 4
	Global   Opts = 1 << 5
	Accessed Opts = 1 << 6
	Dirty    Opts = 1 << 7

	// FullPermissions is carried by every boot leaf: VRWX_GAD.
	FullPermissions = Valid | Readable | Writable | Execute | Global | Accessed | Dirty

	// leafMask selects the bits that make an entry a leaf.
	leafMask = Readable | Writable | Execute

	// optsMask selects all flag bits.
	optsMask Opts = 0xff
)

const (
	// ppnShift is the position of the PPN within a PTE.
	ppnShift = 10

	// ppnBits is the width of the PPN within a PTE.
	ppnBits = 44
)

// String returns the flags in the conventional DAGUXWRV order, with '-' for
// each clear bit.
func (o Opts) String() string {
	const names = "VRWXUGAD"
	var b strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		if bits.IsOn64(uint64(o), bits.MaskOf64(i)) {
			b.WriteByte(names[i])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// AccessType returns the permissions granted by o.
func (o Opts) AccessType() hostarch.AccessType {
	return hostarch.AccessType{
		Read:    o&Readable != 0,
		Write:   o&Writable != 0,
		Execute: o&Execute != 0,
	}
}

// PTE is a single page table entry.
type PTE uint64

// MakePTE returns an entry mapping the page containing physical with the
// given flags.
//
//go:nosplit
func MakePTE(physical uintptr, opts Opts) PTE {
	return PTE((uint64(physical)>>hostarch.PageShift)<<ppnShift | uint64(opts&optsMask))
}

// Clear clears this PTE.
//
//go:nosplit
func (p *PTE) Clear() {
	*p = 0
}

// Valid returns true iff this entry is valid.
//
//go:nosplit
func (p *PTE) Valid() bool {
	return Opts(*p)&Valid != 0
}

// IsLeaf returns true iff this entry maps memory directly rather than
// pointing at the next table.
//
//go:nosplit
func (p *PTE) IsLeaf() bool {
	return p.Valid() && Opts(*p)&leafMask != 0
}

// Opts returns the flag bits of this entry.
//
//go:nosplit
func (p *PTE) Opts() Opts {
	return Opts(*p) & optsMask
}

// PPN returns the physical page number in this entry.
//
//go:nosplit
func (p *PTE) PPN() uint64 {
	return bits.Field64(uint64(*p), ppnShift, ppnBits)
}

// Address returns the physical address referenced by this entry.
//
//go:nosplit
func (p *PTE) Address() uintptr {
	return uintptr(p.PPN() << hostarch.PageShift)
}

// SetLeaf sets this entry to map physical with full permissions.
//
//go:nosplit
func (p *PTE) SetLeaf(physical uintptr) {
	*p = MakePTE(physical, FullPermissions)
}

// setPageTable sets this entry as a branch to the table at physical. Only
// the valid bit is set.
//
//go:nosplit
func (p *PTE) setPageTable(physical uintptr) {
	*p = MakePTE(physical, Valid)
}

// String implements fmt.Stringer.String.
func (p PTE) String() string {
	return fmt.Sprintf("%#016x[ppn=%#x %s]", uint64(p), p.PPN(), p.Opts())
}
