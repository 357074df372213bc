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
	"unsafe"

	"rvboot.dev/rvboot/pkg/hostarch"
	"rvboot.dev/rvboot/pkg/ring0/pagetables"
)

// bootTableSpace holds the boot tables. Go does not page align globals, so
// this is over-sized by a page less one byte and bootTables uses the aligned
// portion.
//
// While the MMU is off, the address of this variable is computed PC-relative
// and is therefore its physical address.
var bootTableSpace [unsafe.Sizeof(pagetables.BootTables{}) + hostarch.PageSize - 1]byte

// bootTables returns the page-aligned boot tables.
//
//go:nosplit
func bootTables() *pagetables.BootTables {
	addr := uintptr(unsafe.Pointer(&bootTableSpace[0]))
	offset := (hostarch.PageSize - addr&(hostarch.PageSize-1)) & (hostarch.PageSize - 1)
	return (*pagetables.BootTables)(unsafe.Pointer(&bootTableSpace[offset]))
}
