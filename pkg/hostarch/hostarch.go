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

// Package hostarch describes the RISC-V 64-bit memory architecture targeted
// by the boot page tables.
package hostarch

const (
	// PageShift is the binary log of the base page size.
	PageShift = 12

	// PageSize is the base page size.
	PageSize = 1 << PageShift

	// HugePageShift is the binary log of a level-1 superpage (2 MiB).
	HugePageShift = 21

	// HugePageSize is the size of a level-1 superpage.
	HugePageSize = 1 << HugePageShift

	// GigaPageShift is the binary log of a level-2 superpage (1 GiB).
	GigaPageShift = 30

	// GigaPageSize is the size of a level-2 superpage.
	GigaPageSize = 1 << GigaPageShift
)
