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

package bits

import "testing"

func TestIsOn(t *testing.T) {
	type testCase struct {
		mask uint64
		bits uint64
		all  bool
	}
	for _, s := range []testCase{
		{mask: 0, bits: 0, all: true},
		{mask: 0xef, bits: 0x01, all: true},
		{mask: 0xef, bits: 0x10, all: false},
		{mask: 0xef, bits: 0x11, all: false},
		{mask: 0x01, bits: 0xef, all: false},
	} {
		if got := IsOn64(s.mask, s.bits); got != s.all {
			t.Errorf("IsOn64(%#x, %#x): got %v, wanted %v", s.mask, s.bits, got, s.all)
		}
	}
}

func TestField64(t *testing.T) {
	for _, tc := range []struct {
		v     uint64
		shift uint
		width uint
		want  uint64
	}{
		{v: 0x80000000, shift: 30, width: 9, want: 2},
		{v: 0xffffffc080000000, shift: 30, width: 9, want: 0x102},
		{v: 0xffffffffc0000000, shift: 30, width: 9, want: 0x1ff},
		{v: 0x200000ef, shift: 10, width: 44, want: 0x80000},
		{v: ^uint64(0), shift: 0, width: 8, want: 0xff},
	} {
		if got := Field64(tc.v, tc.shift, tc.width); got != tc.want {
			t.Errorf("Field64(%#x, %d, %d): got %#x, wanted %#x", tc.v, tc.shift, tc.width, got, tc.want)
		}
	}
}

func TestAlign(t *testing.T) {
	const gig = 1 << 30
	if !IsAligned64(0x80000000, gig) {
		t.Errorf("IsAligned64(0x80000000, 1G) = false")
	}
	if IsAligned64(0x80200000, gig) {
		t.Errorf("IsAligned64(0x80200000, 1G) = true")
	}
}
