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
	"text/tabwriter"

	"github.com/google/subcommands"
	"rvboot.dev/rvboot/mkpt/cmd/util"
	"rvboot.dev/rvboot/mkpt/config"
	"rvboot.dev/rvboot/pkg/hostarch"
	"rvboot.dev/rvboot/pkg/ring0"
	"rvboot.dev/rvboot/pkg/ring0/pagetables"
)

// Layout implements subcommands.Command for the "layout" command.
type Layout struct {
	showConfig bool
}

// Name implements subcommands.Command.Name.
func (*Layout) Name() string {
	return "layout"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Layout) Synopsis() string {
	return "print the table indices and satp value for the configured layout"
}

// Usage implements subcommands.Command.Usage.
func (*Layout) Usage() string {
	return `layout [flags] - print where each mapped address lands in the boot tables,
the entries written there and the satp value that activates them.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (l *Layout) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&l.showConfig, "show-config", false, "also print the effective configuration as TOML.")
}

// Execute implements subcommands.Command.Execute.
func (l *Layout) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)
	w := &util.Writer{}
	if err := printLayout(w, conf); err != nil {
		util.Fatalf("printing layout: %v", err)
	}
	if l.showConfig {
		data, err := conf.ToTOML()
		if err != nil {
			util.Fatalf("encoding config: %v", err)
		}
		fmt.Fprintf(w, "\n%s", data)
	}
	return subcommands.ExitSuccess
}

// layoutRow is one translation step printed by printLayout.
type layoutRow struct {
	name    string
	virtual uintptr
	level   int
	table   int
	index   int
	pte     pagetables.PTE
}

// layoutRows returns the entries visited when translating each address
// mapped by conf through bt. The boot tables form a single chain, so the
// table at each level is fixed: the root holds the top level.
func layoutRows(conf *config.Config, bt *pagetables.BootTables) []layoutRow {
	s := conf.TranslationScheme()
	l := conf.PageTableLayout()
	t := pagetables.LinkTranslator{Tables: bt, Base: uintptr(conf.TableBase)}

	type target struct {
		name string
		va   uintptr
	}
	var targets []target
	switch s {
	case pagetables.Sv39:
		targets = []target{
			{"identity", l.PhysBase},
			{"direct map", l.DirectMapBase()},
			{"kernel", l.KernelBase},
		}
	case pagetables.Sv48:
		targets = []target{{"kernel", l.Sv48Virtual}}
	}

	var rows []layoutRow
	for _, tg := range targets {
		pagetables.Walk(bt.Root(), s, t, tg.va, func(level int, pte *pagetables.PTE) bool {
			rows = append(rows, layoutRow{
				name:    tg.name,
				virtual: tg.va,
				level:   level,
				table:   s.Levels() - 1 - level,
				index:   pagetables.Index(level, tg.va),
				pte:     *pte,
			})
			return true
		})
	}
	return rows
}

// printLayout writes the layout summary for conf to w.
func printLayout(w io.Writer, conf *config.Config) error {
	bt := build(conf)
	s := conf.TranslationScheme()
	satp := ring0.MakeSATP(ring0.ModeFor(s), 0, uint64(conf.TableBase)>>hostarch.PageShift)

	fmt.Fprintf(w, "scheme: %v (%d levels, %d table(s))\n", s, s.Levels(), s.Tables())
	fmt.Fprintf(w, "tables: %v\n", conf.TableBase)
	fmt.Fprintf(w, "satp: %#016x (mode %v, asid %d, ppn %#x)\n\n", uint64(satp), satp.Mode(), satp.ASID(), satp.PPN())

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "MAPPING\tVIRTUAL\tLEVEL\tTABLE\tINDEX\tENTRY")
	for _, r := range layoutRows(conf, bt) {
		fmt.Fprintf(tw, "%s\t%#016x\t%d\t%d\t%#03x\t%v\n", r.name, uint64(r.virtual), r.level, r.table, r.index, r.pte)
	}
	return tw.Flush()
}
