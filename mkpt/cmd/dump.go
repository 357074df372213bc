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
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"golang.org/x/sys/unix"
	"rvboot.dev/rvboot/mkpt/cmd/util"
	"rvboot.dev/rvboot/mkpt/config"
	"rvboot.dev/rvboot/pkg/hostarch"
	"rvboot.dev/rvboot/pkg/log"
	"rvboot.dev/rvboot/pkg/ring0"
	"rvboot.dev/rvboot/pkg/ring0/pagetables"
)

// Dump implements subcommands.Command for the "dump" command.
type Dump struct {
	mappingsOnly bool
}

// Name implements subcommands.Command.Name.
func (*Dump) Name() string {
	return "dump"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Dump) Synopsis() string {
	return "print the entries and mappings of a boot table image"
}

// Usage implements subcommands.Command.Usage.
func (*Dump) Usage() string {
	return `dump [flags] <image> - print the populated entries of a boot table image
and the mappings they produce. Branch entries are followed relative to the
configured table_base.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (d *Dump) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&d.mappingsOnly, "mappings", false, "only print the resulting mappings.")
}

// Execute implements subcommands.Command.Execute.
func (d *Dump) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	bt, s, err := loadImage(f.Arg(0))
	if err != nil {
		util.Fatalf("loading image: %v", err)
	}
	if err := dumpTables(&util.Writer{}, bt, s, uintptr(conf.TableBase), d.mappingsOnly); err != nil {
		util.Fatalf("dumping %q: %v", f.Arg(0), err)
	}
	return subcommands.ExitSuccess
}

// loadImage maps the image at path read-only and decodes it.
func loadImage(path string) (*pagetables.BootTables, pagetables.Scheme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat %q: %w", path, err)
	}
	if fi.Size() == 0 {
		return nil, 0, fmt.Errorf("%q is empty", path)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, 0, fmt.Errorf("mmap %q: %w", path, err)
	}
	defer func() {
		if err := unix.Munmap(data); err != nil {
			log.Warningf("munmap %q: %v", path, err)
		}
	}()
	log.Debugf("Mapped %q: %d bytes, host page size %d", path, len(data), unix.Getpagesize())

	bt, s, err := decodeImage(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%q: %w", path, err)
	}
	return bt, s, nil
}

// dumpTables prints the populated entries of bt followed by its mappings.
func dumpTables(w io.Writer, bt *pagetables.BootTables, s pagetables.Scheme, base uintptr, mappingsOnly bool) error {
	t := pagetables.LinkTranslator{Tables: bt, Base: base}
	satp := ring0.MakeSATP(ring0.ModeFor(s), 0, uint64(base)>>hostarch.PageShift)
	if _, err := fmt.Fprintf(w, "scheme %v, root %#x, satp %#016x\n", s, base, uint64(satp)); err != nil {
		return err
	}
	if !mappingsOnly {
		for i := range bt.Tables(s) {
			table := bt.Table(i)
			fmt.Fprintf(w, "table %d @ %#x:\n", i, t.PhysicalFor(table))
			for j := range table {
				pte := &table[j]
				if *pte == 0 {
					continue
				}
				kind := "branch"
				if pte.IsLeaf() {
					kind = "leaf"
				}
				fmt.Fprintf(w, "  [%#03x] %v %s\n", j, *pte, kind)
			}
		}
	}
	fmt.Fprintf(w, "mappings:\n")
	for _, m := range pagetables.Mappings(bt.Root(), s, t) {
		last, ok := hostarch.Addr(m.Virtual).AddLength(m.Length - 1)
		if !ok {
			return fmt.Errorf("mapping at %#x of %#x bytes wraps", m.Virtual, m.Length)
		}
		fmt.Fprintf(w, "  %#016x-%#016x -> %#x %s\n",
			uint64(m.Virtual), uint64(last), m.Physical, m.Opts.AccessType())
	}
	_, err := fmt.Fprintln(w)
	return err
}
