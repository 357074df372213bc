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

package cmd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"
	"rvboot.dev/rvboot/mkpt/config"
	"rvboot.dev/rvboot/pkg/hostarch"
	"rvboot.dev/rvboot/pkg/ring0/pagetables"
)

const testTableBase = 0x8020_0000

func sv48Config() *config.Config {
	c := config.Default()
	c.Scheme = "sv48"
	return c
}

// words returns the non-zero words of an image, keyed by byte offset.
func words(t *testing.T, image []byte) map[int]uint64 {
	t.Helper()
	m := make(map[int]uint64)
	for off := 0; off < len(image); off += pteSize {
		if w := binary.LittleEndian.Uint64(image[off:]); w != 0 {
			m[off] = w
		}
	}
	return m
}

func TestEncodeSv39(t *testing.T) {
	conf := config.Default()
	image := encodeImage(build(conf), pagetables.Sv39)
	if len(image) != 4096 {
		t.Fatalf("image is %d bytes, wanted 4096", len(image))
	}
	want := map[int]uint64{
		2 * pteSize:     0x200000ef,
		0x102 * pteSize: 0x200000ef,
		0x1ff * pteSize: 0x200000ef,
	}
	if diff := cmp.Diff(want, words(t, image)); diff != "" {
		t.Errorf("image words mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeSv48(t *testing.T) {
	conf := sv48Config()
	image := encodeImage(build(conf), pagetables.Sv48)
	if len(image) != 4*4096 {
		t.Fatalf("image is %d bytes, wanted %d", len(image), 4*4096)
	}
	// KernelBase walks through index 0x1ff, 0x1ff, 0, 0; each branch names
	// the next page after the configured table base.
	want := map[int]uint64{
		0*tableSize + 0x1ff*pteSize: 0x20080401,
		1*tableSize + 0x1ff*pteSize: 0x20080801,
		2*tableSize + 0*pteSize:     0x20080c01,
		3*tableSize + 0*pteSize:     0x200000ef,
	}
	if diff := cmp.Diff(want, words(t, image)); diff != "" {
		t.Errorf("image words mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, conf := range []*config.Config{config.Default(), sv48Config()} {
		t.Run(conf.Scheme, func(t *testing.T) {
			want := build(conf)
			s := conf.TranslationScheme()
			image := encodeImage(want, s)

			got, gotScheme, err := decodeImage(image)
			if err != nil {
				t.Fatalf("decodeImage(): %v", err)
			}
			if gotScheme != s {
				t.Errorf("decodeImage() scheme: got %v, wanted %v", gotScheme, s)
			}
			if !got.Frozen() {
				t.Errorf("decodeImage() returned unfrozen tables")
			}
			if diff := cmp.Diff(want.Tables(s), got.Tables(s)); diff != "" {
				t.Errorf("tables mismatch (-want +got):\n%s", diff)
			}
			if problems := compareTables(want, got, s, testTableBase); len(problems) != 0 {
				t.Errorf("compareTables(): %v", problems)
			}
		})
	}
}

func TestDecodeBadSize(t *testing.T) {
	for _, size := range []int{0, 8, 4095, 8192, 4*4096 + 8} {
		if _, _, err := decodeImage(make([]byte, size)); err == nil {
			t.Errorf("decodeImage(%d bytes) succeeded", size)
		}
	}
}

func TestWriteAsm(t *testing.T) {
	var b bytes.Buffer
	if err := writeAsm(&b, build(config.Default()), pagetables.Sv39, "bootTableImage"); err != nil {
		t.Fatalf("writeAsm(): %v", err)
	}
	want := strings.Join([]string{
		"// Code generated by mkpt. DO NOT EDIT.",
		"",
		`#include "textflag.h"`,
		"",
		"DATA ·bootTableImage+16(SB)/8, $0x00000000200000ef",
		"DATA ·bootTableImage+2064(SB)/8, $0x00000000200000ef",
		"DATA ·bootTableImage+4088(SB)/8, $0x00000000200000ef",
		"GLOBL ·bootTableImage(SB), NOPTR, $4096",
		"",
	}, "\n")
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("writeAsm() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareTables(t *testing.T) {
	conf := sv48Config()
	s := conf.TranslationScheme()
	want := build(conf)

	for _, tc := range []struct {
		name    string
		corrupt func(bt *pagetables.BootTables)
		want    []string
	}{
		{
			name:    "identical",
			corrupt: func(*pagetables.BootTables) {},
		},
		{
			name: "leaf flags",
			corrupt: func(bt *pagetables.BootTables) {
				bt.Table(3)[0] = pagetables.MakePTE(pagetables.PhysBase, pagetables.Valid|pagetables.Readable)
			},
			want: []string{
				"table 3 [0x000]: got 0x0000000020000003[ppn=0x80000 ------RV], wanted 0x00000000200000ef[ppn=0x80000 DAG-XWRV]",
				"table 3 [0x000]: leaf flags ------RV, wanted DAG-XWRV",
			},
		},
		{
			name: "branch flags",
			corrupt: func(bt *pagetables.BootTables) {
				bt.Table(0)[0x1ff] |= pagetables.PTE(pagetables.Global)
			},
			want: []string{
				"table 0 [0x1ff]: got 0x0000000020080421[ppn=0x80201 --G----V], wanted 0x0000000020080401[ppn=0x80201 -------V]",
				"table 0 [0x1ff]: branch flags --G----V, wanted -------V",
			},
		},
		{
			name: "branch outside the set",
			corrupt: func(bt *pagetables.BootTables) {
				bt.Table(1)[0x1ff] = pagetables.MakePTE(0x9000_0000, pagetables.Valid)
			},
			want: []string{
				"table 1 [0x1ff]: got 0x0000000024000001[ppn=0x90000 -------V], wanted 0x0000000020080801[ppn=0x80202 -------V]",
				"table 1 [0x1ff]: branch to 0x90000000 is outside the table set at 0x80200000",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := decodeImage(encodeImage(want, s))
			if err != nil {
				t.Fatalf("decodeImage(): %v", err)
			}
			tc.corrupt(got)
			if diff := cmp.Diff(tc.want, compareTables(want, got, s, testTableBase)); diff != "" {
				t.Errorf("compareTables() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompareTablesSv39Branch(t *testing.T) {
	conf := config.Default()
	want := build(conf)
	got, _, err := decodeImage(encodeImage(want, pagetables.Sv39))
	if err != nil {
		t.Fatalf("decodeImage(): %v", err)
	}
	// The second table exists in the set but is not part of an Sv39 image.
	got.Root()[5] = pagetables.MakePTE(testTableBase+hostarch.PageSize, pagetables.Valid)
	wantProblems := []string{
		"table 0 [0x005]: got 0x0000000020080401[ppn=0x80201 -------V], wanted 0x0000000000000000[ppn=0x0 --------]",
		"table 0 [0x005]: branch to 0x80201000 is outside the table set at 0x80200000",
	}
	if diff := cmp.Diff(wantProblems, compareTables(want, got, pagetables.Sv39, testTableBase)); diff != "" {
		t.Errorf("compareTables() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadImage(t *testing.T) {
	conf := sv48Config()
	want := build(conf)
	path := filepath.Join(t.TempDir(), "tables.bin")
	err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(encodeImage(want, pagetables.Sv48))
		return err
	})
	if err != nil {
		t.Fatalf("writeFileAtomic(): %v", err)
	}

	got, s, err := loadImage(path)
	if err != nil {
		t.Fatalf("loadImage(%q): %v", path, err)
	}
	if s != pagetables.Sv48 {
		t.Errorf("loadImage() scheme: got %v, wanted sv48", s)
	}
	if diff := cmp.Diff(want.Tables(s), got.Tables(s)); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}

	empty := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadImage(empty); err == nil {
		t.Errorf("loadImage(%q) succeeded on an empty file", empty)
	}
}

func TestLockOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.bin")
	unlock, err := lockOutput(path)
	if err != nil {
		t.Fatalf("lockOutput(%q): %v", path, err)
	}
	other := flock.NewFlock(path + ".lock")
	if locked, err := other.TryLock(); err != nil || locked {
		t.Errorf("TryLock() while held: got %v, %v, wanted false, nil", locked, err)
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock(): %v", err)
	}
	if locked, err := other.TryLock(); err != nil || !locked {
		t.Errorf("TryLock() after unlock: got %v, %v, wanted true, nil", locked, err)
	}
	other.Unlock()
}

func TestWriteFileAtomicFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.bin")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	errWrite := errors.New("write failed")
	err := writeFileAtomic(path, func(w io.Writer) error {
		w.Write([]byte("partial"))
		return errWrite
	})
	if !errors.Is(err, errWrite) {
		t.Fatalf("writeFileAtomic(): got %v, wanted %v", err, errWrite)
	}
	if data, err := os.ReadFile(path); err != nil || string(data) != "old" {
		t.Errorf("ReadFile(%q): got %q, %v, wanted the original contents", path, data, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary file left behind: %v", entries)
	}
}

func TestDumpTables(t *testing.T) {
	conf := sv48Config()
	var b bytes.Buffer
	if err := dumpTables(&b, build(conf), pagetables.Sv48, testTableBase, true); err != nil {
		t.Fatalf("dumpTables(): %v", err)
	}
	want := strings.Join([]string{
		"scheme sv48, root 0x80200000, satp 0x9000000000080200",
		"mappings:",
		"  0xffffffffc0000000-0xffffffffc0000fff -> 0x80000000 rwx",
		"",
		"",
	}, "\n")
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("dumpTables() mismatch (-want +got):\n%s", diff)
	}

	b.Reset()
	if err := dumpTables(&b, build(config.Default()), pagetables.Sv39, testTableBase, false); err != nil {
		t.Fatalf("dumpTables(): %v", err)
	}
	for _, line := range []string{
		"table 0 @ 0x80200000:",
		"  [0x002] 0x00000000200000ef[ppn=0x80000 DAG-XWRV] leaf",
		"  0x0000000080000000-0x00000000bfffffff -> 0x80000000 rwx",
		"  0xffffffc080000000-0xffffffc0bfffffff -> 0x80000000 rwx",
		"  0xffffffffc0000000-0xffffffffffffffff -> 0x80000000 rwx",
	} {
		if !strings.Contains(b.String(), line+"\n") {
			t.Errorf("dumpTables() output missing %q:\n%s", line, b.String())
		}
	}
}

func TestLayoutRows(t *testing.T) {
	conf := sv48Config()
	got := layoutRows(conf, build(conf))
	va := uintptr(pagetables.KernelBase)
	want := []layoutRow{
		{name: "kernel", virtual: va, level: 3, table: 0, index: 0x1ff, pte: 0x20080401},
		{name: "kernel", virtual: va, level: 2, table: 1, index: 0x1ff, pte: 0x20080801},
		{name: "kernel", virtual: va, level: 1, table: 2, index: 0, pte: 0x20080c01},
		{name: "kernel", virtual: va, level: 0, table: 3, index: 0, pte: 0x200000ef},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(layoutRow{})); diff != "" {
		t.Errorf("layoutRows() mismatch (-want +got):\n%s", diff)
	}

	var b bytes.Buffer
	if err := printLayout(&b, config.Default()); err != nil {
		t.Fatalf("printLayout(): %v", err)
	}
	if !strings.Contains(b.String(), "satp: 0x8000000000080200 (mode sv39, asid 0, ppn 0x80200)\n") {
		t.Errorf("printLayout() output missing satp line:\n%s", b.String())
	}
}
