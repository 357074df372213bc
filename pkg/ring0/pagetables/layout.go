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
	"errors"
	"fmt"

	"rvboot.dev/rvboot/pkg/bits"
	"rvboot.dev/rvboot/pkg/hostarch"
)

// Fixed kernel address layout.
const (
	// KernelBase is the virtual address the kernel runs at once the MMU is
	// on. The linker script places the image here.
	KernelBase = 0xffff_ffff_c000_0000

	// PhysVirtOffset is the distance from a physical address to its alias
	// in the direct map. It is the value added to sp and ra after the MMU
	// has been enabled.
	PhysVirtOffset = 0xffff_ffc0_0000_0000

	// PhysBase is the physical load address of the kernel image.
	PhysBase = 0x8000_0000
)

// sv39UpperBottom is the lowest canonical upper-half Sv39 address.
const sv39UpperBottom = 0xffff_ffc0_0000_0000

// Root indices of the fixed Sv39 windows, computed without masking so that
// a layout falling outside the root fails the checks below.
const (
	sv39IdentityIndex  = PhysBase >> hostarch.GigaPageShift
	sv39DirectMapIndex = entriesPerPage/2 + (PhysBase+PhysVirtOffset-sv39UpperBottom)>>hostarch.GigaPageShift
	sv39KernelIndex    = entriesPerPage/2 + (KernelBase-sv39UpperBottom)>>hostarch.GigaPageShift
)

// Indexing a [512] array with an out-of-range constant does not compile.
var (
	_ = [entriesPerPage / 2]struct{}{}[sv39IdentityIndex]
	_ = [entriesPerPage]struct{}{}[sv39DirectMapIndex]
	_ = [entriesPerPage]struct{}{}[sv39KernelIndex]
)

// Errors returned by Layout.Validate.
var (
	ErrUnaligned     = errors.New("address is not aligned to the mapping granule")
	ErrNonCanonical  = errors.New("virtual address is not canonical for the scheme")
	ErrPhysicalRange = errors.New("physical address does not fit in a PTE")
	ErrWraps         = errors.New("window wraps around the top of the address space")
)

// Layout describes the addresses mapped by the boot tables.
type Layout struct {
	// PhysBase is the physical base of the kernel image.
	PhysBase uintptr

	// PhysVirtOffset is added to a physical address to find its direct map
	// alias.
	PhysVirtOffset uintptr

	// KernelBase is where the kernel executes after relocation.
	KernelBase uintptr

	// Sv48Virtual is the single virtual page mapped by the Sv48 tables.
	Sv48Virtual uintptr

	// Sv48Physical is the target of Sv48Virtual.
	Sv48Physical uintptr
}

// DefaultLayout is the layout the kernel is linked for.
var DefaultLayout = Layout{
	PhysBase:       PhysBase,
	PhysVirtOffset: PhysVirtOffset,
	KernelBase:     KernelBase,
	Sv48Virtual:    KernelBase,
	Sv48Physical:   PhysBase,
}

// DirectMapBase returns the direct map alias of PhysBase.
//
//go:nosplit
func (l *Layout) DirectMapBase() uintptr {
	return l.PhysBase + l.PhysVirtOffset
}

// Validate checks that l can be built for scheme s. Builders do not check
// their inputs; tools must call Validate first.
func (l *Layout) Validate(s Scheme) error {
	checkPhysical := func(name string, pa uintptr) error {
		if uint64(pa)>>(hostarch.PageShift+ppnBits) != 0 {
			return fmt.Errorf("%s %#x: %w", name, pa, ErrPhysicalRange)
		}
		return nil
	}
	checkVirtual := func(name string, va uintptr, align uint64) error {
		if !bits.IsAligned64(uint64(va), align) {
			return fmt.Errorf("%s %#x (granule %#x): %w", name, va, align, ErrUnaligned)
		}
		if !s.IsCanonical(va) {
			return fmt.Errorf("%s %#x (%v): %w", name, va, s, ErrNonCanonical)
		}
		return nil
	}

	switch s {
	case Sv39:
		const leaf = hostarch.GigaPageSize
		if err := checkPhysical("physical base", l.PhysBase); err != nil {
			return err
		}
		if !bits.IsAligned64(uint64(l.PhysVirtOffset), leaf) {
			return fmt.Errorf("direct map offset %#x (granule %#x): %w", l.PhysVirtOffset, leaf, ErrUnaligned)
		}
		base, ok := hostarch.Addr(l.PhysBase).AddLength(uint64(l.PhysVirtOffset))
		if ok {
			_, ok = base.AddLength(leaf - 1)
		}
		if !ok {
			return fmt.Errorf("direct map window %#x+%#x: %w", l.PhysBase, l.PhysVirtOffset, ErrWraps)
		}
		for _, r := range []struct {
			name string
			va   uintptr
		}{
			{"identity window", l.PhysBase},
			{"direct map window", l.DirectMapBase()},
			{"kernel base", l.KernelBase},
		} {
			if err := checkVirtual(r.name, r.va, leaf); err != nil {
				return err
			}
		}
	case Sv48:
		if err := checkPhysical("sv48 target", l.Sv48Physical); err != nil {
			return err
		}
		if !bits.IsAligned64(uint64(l.Sv48Physical), hostarch.PageSize) {
			return fmt.Errorf("sv48 target %#x (granule %#x): %w", l.Sv48Physical, hostarch.PageSize, ErrUnaligned)
		}
		if err := checkVirtual("sv48 address", l.Sv48Virtual, hostarch.PageSize); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid scheme %v", s)
	}
	return nil
}
