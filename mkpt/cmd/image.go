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
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"rvboot.dev/rvboot/mkpt/config"
	"rvboot.dev/rvboot/pkg/hostarch"
	"rvboot.dev/rvboot/pkg/ring0/pagetables"
)

// pteSize is the size of one encoded entry.
const pteSize = 8

// tableSize is the size of one encoded table.
const tableSize = hostarch.PageSize

// build builds the boot tables described by conf, placed at conf.TableBase.
// conf must have been validated.
func build(conf *config.Config) *pagetables.BootTables {
	bt := new(pagetables.BootTables)
	l := conf.PageTableLayout()
	switch s := conf.TranslationScheme(); s {
	case pagetables.Sv39:
		pagetables.BuildSv39(bt, &l)
	case pagetables.Sv48:
		pagetables.BuildSv48(bt, &l, pagetables.LinkTranslator{Tables: bt, Base: uintptr(conf.TableBase)})
	default:
		panic(fmt.Sprintf("unknown scheme %v", s))
	}
	bt.Freeze()
	return bt
}

// encodeImage serializes the tables populated by s as little-endian words,
// root first.
func encodeImage(bt *pagetables.BootTables, s pagetables.Scheme) []byte {
	buf := make([]byte, 0, s.Tables()*tableSize)
	for _, table := range bt.Tables(s) {
		for _, pte := range table {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(pte))
		}
	}
	return buf
}

// schemeForSize returns the scheme whose image is size bytes long.
func schemeForSize(size int) (pagetables.Scheme, error) {
	for _, s := range []pagetables.Scheme{pagetables.Sv39, pagetables.Sv48} {
		if size == s.Tables()*tableSize {
			return s, nil
		}
	}
	return 0, fmt.Errorf("image is %d bytes, wanted %d (sv39) or %d (sv48)",
		size, pagetables.Sv39.Tables()*tableSize, pagetables.Sv48.Tables()*tableSize)
}

// decodeImage is the inverse of encodeImage. The scheme is inferred from the
// image size. The returned tables are frozen.
func decodeImage(data []byte) (*pagetables.BootTables, pagetables.Scheme, error) {
	s, err := schemeForSize(len(data))
	if err != nil {
		return nil, 0, err
	}
	bt := new(pagetables.BootTables)
	for i := 0; i < s.Tables(); i++ {
		table := bt.Table(i)
		for j := range table {
			off := i*tableSize + j*pteSize
			table[j] = pagetables.PTE(binary.LittleEndian.Uint64(data[off : off+pteSize]))
		}
	}
	bt.Freeze()
	return bt, s, nil
}

// writeAsm writes the tables as Go assembly data for symbol sym. Only
// non-zero words are emitted; the rest of the symbol is zero filled by the
// linker.
func writeAsm(w io.Writer, bt *pagetables.BootTables, s pagetables.Scheme, sym string) error {
	var b strings.Builder
	b.WriteString("// Code generated by mkpt. DO NOT EDIT.\n\n")
	b.WriteString("#include \"textflag.h\"\n\n")
	for i, table := range bt.Tables(s) {
		for j, pte := range table {
			if pte == 0 {
				continue
			}
			fmt.Fprintf(&b, "DATA ·%s+%d(SB)/8, $0x%016x\n", sym, i*tableSize+j*pteSize, uint64(pte))
		}
	}
	fmt.Fprintf(&b, "GLOBL ·%s(SB), NOPTR, $%d\n", sym, s.Tables()*tableSize)
	_, err := io.WriteString(w, b.String())
	return err
}
