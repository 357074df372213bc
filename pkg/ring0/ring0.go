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

// Package ring0 brings the boot hart from physical to virtual addressing.
//
// The boot entry point calls, in order and with interrupts disabled:
//
//	PreMMU    build and freeze the boot tables (boot hart only)
//	EnableMMU install the boot tables in satp and flush the TLB
//	PostMMU   move sp and ra into the direct map and return through ra
//
// None of these may allocate, grow the stack or fault: there is no runtime,
// no trap handler and no console yet. Every precondition violation ends in a
// hardware fault or a silent mis-mapping.
package ring0

import (
	"rvboot.dev/rvboot/pkg/bits"
	"rvboot.dev/rvboot/pkg/hostarch"
	"rvboot.dev/rvboot/pkg/ring0/pagetables"
)

// SatpMode is the MODE field of the satp register.
type SatpMode uint8

// Translation modes.
const (
	ModeBare SatpMode = 0
	ModeSv39 SatpMode = 8
	ModeSv48 SatpMode = 9
)

// String implements fmt.Stringer.String.
func (m SatpMode) String() string {
	switch m {
	case ModeBare:
		return "bare"
	case ModeSv39:
		return "sv39"
	case ModeSv48:
		return "sv48"
	default:
		return "reserved"
	}
}

// ModeFor returns the satp mode that selects scheme s.
//
//go:nosplit
func ModeFor(s pagetables.Scheme) SatpMode {
	if s == pagetables.Sv48 {
		return ModeSv48
	}
	return ModeSv39
}

// satp field layout.
const (
	satpModeShift = 60
	satpModeBits  = 4
	satpASIDShift = 44
	satpASIDBits  = 16
	satpPPNBits   = 44
)

// SATP is a satp register value.
type SATP uint64

// MakeSATP encodes a satp value.
//
//go:nosplit
func MakeSATP(mode SatpMode, asid uint16, ppn uint64) SATP {
	return SATP(uint64(mode)<<satpModeShift | uint64(asid)<<satpASIDShift | ppn&(bits.MaskOf64(satpPPNBits)-1))
}

// Mode returns the MODE field.
func (s SATP) Mode() SatpMode {
	return SatpMode(bits.Field64(uint64(s), satpModeShift, satpModeBits))
}

// ASID returns the ASID field.
func (s SATP) ASID() uint16 {
	return uint16(bits.Field64(uint64(s), satpASIDShift, satpASIDBits))
}

// PPN returns the root table's physical page number.
func (s SATP) PPN() uint64 {
	return bits.Field64(uint64(s), 0, satpPPNBits)
}

// RootAddress returns the physical address of the root table.
func (s SATP) RootAddress() uintptr {
	return uintptr(s.PPN() << hostarch.PageShift)
}
