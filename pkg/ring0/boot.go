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
	"rvboot.dev/rvboot/pkg/ring0/pagetables"
)

// PreMMU builds the boot tables for BootScheme and freezes them.
//
// It must run exactly once, on the boot hart, with the MMU off. Other harts
// skip straight to EnableMMU once it has returned.
//
//go:nosplit
func PreMMU() {
	bt := bootTables()
	buildBootTables(bt)
	bt.Freeze()
}

// enable activates the frozen boot tables through p.
//
//go:nosplit
func enable(p Port) {
	bt := bootTables()
	if !bt.Frozen() {
		panic("ring0: boot tables activated before PreMMU")
	}
	Activate(p, BootScheme, pagetables.IdentityTranslator{}.PhysicalFor(bt.Root()))
}
