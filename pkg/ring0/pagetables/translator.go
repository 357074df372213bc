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
	"rvboot.dev/rvboot/pkg/hostarch"
)

// LinkTranslator places the tables of a BootTables at consecutive pages
// starting at Base, which is where the linker puts them in the kernel image.
// The host-side tools use it to build tables for an image they are not
// running inside.
type LinkTranslator struct {
	// Tables are the tables being placed.
	Tables *BootTables

	// Base is the physical address of the root table.
	Base uintptr
}

// PhysicalFor implements Translator.PhysicalFor.
func (lt LinkTranslator) PhysicalFor(ptes *PTEs) uintptr {
	for i := range lt.Tables.tables {
		if &lt.Tables.tables[i] == ptes {
			return lt.Base + uintptr(i)*hostarch.PageSize
		}
	}
	panic("pagetables: table is not part of the boot set")
}

// LookupPTEs implements Translator.LookupPTEs.
//
// It returns nil for an address that does not name one of the tables.
func (lt LinkTranslator) LookupPTEs(physical uintptr) *PTEs {
	if physical < lt.Base || !hostarch.Addr(physical).IsPageAligned() {
		return nil
	}
	i := (physical - lt.Base) / hostarch.PageSize
	if i >= uintptr(len(lt.Tables.tables)) {
		return nil
	}
	return &lt.Tables.tables[i]
}
