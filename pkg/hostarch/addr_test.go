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

package hostarch

import "testing"

func TestAddLength(t *testing.T) {
	for _, tc := range []struct {
		start  Addr
		length uint64
		end    Addr
		ok     bool
	}{
		{start: 0x80000000, length: GigaPageSize, end: 0xc0000000, ok: true},
		{start: 0xffffffffc0000000, length: GigaPageSize - 1, end: ^Addr(0), ok: true},
		{start: 0xffffffffc0000000, length: GigaPageSize, end: 0, ok: false},
	} {
		end, ok := tc.start.AddLength(tc.length)
		if ok != tc.ok || (ok && end != tc.end) {
			t.Errorf("%v.AddLength(%#x) = %v, %v; want %v, %v", tc.start, tc.length, end, ok, tc.end, tc.ok)
		}
	}
}

func TestIsPageAligned(t *testing.T) {
	for v, want := range map[Addr]bool{
		0:          true,
		0x80200000: true,
		0x80201000: true,
		0x80201234: false,
		0x80200008: false,
	} {
		if got := v.IsPageAligned(); got != want {
			t.Errorf("%v.IsPageAligned() = %v, want %v", v, got, want)
		}
	}
}

func TestAccessTypeString(t *testing.T) {
	for _, tc := range []struct {
		at   AccessType
		want string
	}{
		{at: AccessType{}, want: "---"},
		{at: AccessType{Read: true}, want: "r--"},
		{at: AccessType{Read: true, Write: true}, want: "rw-"},
		{at: AccessType{Read: true, Write: true, Execute: true}, want: "rwx"},
	} {
		if got := tc.at.String(); got != tc.want {
			t.Errorf("%#v.String() = %q, want %q", tc.at, got, tc.want)
		}
	}
}
