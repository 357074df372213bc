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

//go:build riscv64

package ring0

// hardwarePort drives satp and sfence.vma on the current hart.
type hardwarePort struct{}

// Set implements Port.Set.
//
//go:nosplit
func (hardwarePort) Set(mode SatpMode, rootFrame uint64) {
	writeSATP(uint64(MakeSATP(mode, 0, rootFrame)))
}

// InvalidateAll implements Port.InvalidateAll.
//
//go:nosplit
func (hardwarePort) InvalidateAll() {
	sfenceVMA()
}

// writeSATP writes the satp register.
func writeSATP(value uint64)

// sfenceVMA flushes all translations for all address spaces.
func sfenceVMA()

// EnableMMU turns on translation through the boot tables.
//
// It returns at the same (identity mapped) address it was called from.
//
//go:nosplit
func EnableMMU() {
	enable(hardwarePort{})
}

// PostMMU adds pagetables.PhysVirtOffset to sp and ra and returns, landing
// in the caller at its direct map address.
//
// This is an assembly function. It touches no memory, so it must be called
// directly from assembly: an ABI wrapper would save the physical ra on the
// stack and return through it.
func PostMMU()
