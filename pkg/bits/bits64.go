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

// Package bits contains helpers for extracting and testing bit fields in
// 64-bit words.
//
// Everything here must be safe to call before the MMU is enabled: no
// allocation, no stack growth.
package bits

// IsOn64 returns true if *all* bits set in 'bits' are set in 'mask'.
//
//go:nosplit
func IsOn64(mask, bits uint64) bool {
	return mask&bits == bits
}

// MaskOf64 returns a uint64 with only bit i set.
//
//go:nosplit
func MaskOf64(i int) uint64 {
	return uint64(1) << uint64(i)
}

// Field64 returns the width-bit field of v starting at bit shift.
//
//go:nosplit
func Field64(v uint64, shift, width uint) uint64 {
	return (v >> shift) & (MaskOf64(int(width)) - 1)
}

// IsAligned64 returns true if v is a multiple of align, which must be a power
// of two.
//
//go:nosplit
func IsAligned64(v, align uint64) bool {
	return v&(align-1) == 0
}
