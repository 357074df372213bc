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

package ring0

import (
	"rvboot.dev/rvboot/pkg/hostarch"
	"rvboot.dev/rvboot/pkg/ring0/pagetables"
)

// Port is the translation control interface of a hart.
type Port interface {
	// Set writes satp with the given mode and root frame, ASID 0.
	Set(mode SatpMode, rootFrame uint64)

	// InvalidateAll flushes every cached translation on this hart.
	InvalidateAll()
}

// Activate switches p to scheme s rooted at the table at rootPhysical.
//
// Every access after Set, including the fetch of the next instruction,
// translates through the new tables. The caller must therefore be running
// from an address the tables map to itself (the identity window).
//
// Precondition: rootPhysical is page aligned and the tables are frozen.
//
//go:nosplit
func Activate(p Port, s pagetables.Scheme, rootPhysical uintptr) {
	p.Set(ModeFor(s), uint64(rootPhysical)>>hostarch.PageShift)
	p.InvalidateAll()
}
