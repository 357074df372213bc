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
	"unsafe"
)

// IdentityTranslator is the Translator used while the MMU is off: a table's
// address is its physical address.
type IdentityTranslator struct{}

// PhysicalFor implements Translator.PhysicalFor.
//
//go:nosplit
func (IdentityTranslator) PhysicalFor(ptes *PTEs) uintptr {
	return uintptr(unsafe.Pointer(ptes))
}

// LookupPTEs implements Translator.LookupPTEs.
//
//go:nosplit
func (IdentityTranslator) LookupPTEs(physical uintptr) *PTEs {
	return (*PTEs)(unsafe.Pointer(physical))
}
