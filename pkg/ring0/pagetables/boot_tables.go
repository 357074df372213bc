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
	"sync/atomic"
)

// BootTables is the statically allocated set of boot tables: a root and, for
// Sv48, three subordinate tables.
//
// A BootTables is under construction until Freeze is called. After that it
// is shared read-only by every hart and by the hardware walker, and may
// never be built into again.
//
// The zero value is ready to build. BootTables must not be copied.
type BootTables struct {
	// tables must stay first: the kernel page-aligns the BootTables itself
	// and every table must be page aligned.
	tables [maxLevels]PTEs

	// frozen is set once construction is complete.
	frozen atomic.Bool
}

// Root returns the root table.
//
//go:nosplit
func (bt *BootTables) Root() *PTEs {
	return &bt.tables[0]
}

// Table returns the i'th table; 0 is the root.
//
//go:nosplit
func (bt *BootTables) Table(i int) *PTEs {
	return &bt.tables[i]
}

// Tables returns the tables populated by scheme s, root first.
func (bt *BootTables) Tables(s Scheme) []PTEs {
	return bt.tables[:s.Tables()]
}

// Freeze ends construction. It is idempotent.
//
//go:nosplit
func (bt *BootTables) Freeze() {
	bt.frozen.Store(true)
}

// Frozen returns true once Freeze has been called.
//
//go:nosplit
func (bt *BootTables) Frozen() bool {
	return bt.frozen.Load()
}

// checkWritable panics if construction has already finished.
//
//go:nosplit
func (bt *BootTables) checkWritable() {
	if bt.frozen.Load() {
		panic("pagetables: build into frozen boot tables")
	}
}
