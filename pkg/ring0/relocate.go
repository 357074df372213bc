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

// Relocate converts a physical address into its direct map alias. The
// addition wraps: offset is usually a "negative" upper-half constant.
//
//go:nosplit
func Relocate(value, offset uintptr) uintptr {
	return value + offset
}

// Context is the register state that survives the switch to virtual
// addressing and must be relocated by PostMMU.
type Context struct {
	// SP is the stack pointer.
	SP uintptr

	// RA is the return address.
	RA uintptr
}

// RelocateContext applies Relocate to every register in c.
//
// PostMMU performs exactly this transformation on the live registers.
//
//go:nosplit
func RelocateContext(c Context, offset uintptr) Context {
	return Context{
		SP: Relocate(c.SP, offset),
		RA: Relocate(c.RA, offset),
	}
}
