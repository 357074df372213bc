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
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/subcommands"
	"rvboot.dev/rvboot/mkpt/cmd/util"
	"rvboot.dev/rvboot/mkpt/config"
	"rvboot.dev/rvboot/pkg/log"
)

// Output formats supported by Gen.
const (
	formatBinary = "bin"
	formatAsm    = "asm"
)

// Gen implements subcommands.Command for the "gen" command.
type Gen struct {
	output string
	format string
	symbol string
}

// Name implements subcommands.Command.Name.
func (*Gen) Name() string {
	return "gen"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Gen) Synopsis() string {
	return "generate a boot table image"
}

// Usage implements subcommands.Command.Usage.
func (*Gen) Usage() string {
	return `gen [flags] - build the boot tables for the configured layout and write them out.

The binary format is the table set as little-endian 64-bit words, root first,
ready to be copied into the kernel's boot table section. The asm format is Go
assembly data for the same bytes.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (g *Gen) SetFlags(f *flag.FlagSet) {
	f.StringVar(&g.output, "o", "", "output file. Defaults to stdout.")
	f.StringVar(&g.format, "format", formatBinary, "output format: bin or asm.")
	f.StringVar(&g.symbol, "symbol", "bootTableImage", "symbol name for asm output.")
}

// Execute implements subcommands.Command.Execute.
func (g *Gen) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	if g.format != formatBinary && g.format != formatAsm {
		log.Warningf("invalid format %q", g.format)
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)

	bt := build(conf)
	s := conf.TranslationScheme()
	log.Infof("Built %v boot tables at %v", s, conf.TableBase)

	write := func(w io.Writer) error {
		if g.format == formatAsm {
			return writeAsm(w, bt, s, g.symbol)
		}
		_, err := w.Write(encodeImage(bt, s))
		return err
	}
	if g.output == "" {
		if err := write(os.Stdout); err != nil {
			util.Fatalf("writing tables: %v", err)
		}
		return subcommands.ExitSuccess
	}
	unlock, err := lockOutput(g.output)
	if err != nil {
		util.Fatalf("%v", err)
	}
	defer unlock()
	if err := writeFileAtomic(g.output, write); err != nil {
		util.Fatalf("writing tables: %v", err)
	}
	log.Infof("Wrote %s", g.output)
	return subcommands.ExitSuccess
}

// lockOutput takes a file lock next to path, serializing parallel build steps
// that regenerate the same image.
func lockOutput(path string) (func() error, error) {
	f := path + ".lock"
	l := flock.NewFlock(f)
	if err := l.Lock(); err != nil {
		return nil, fmt.Errorf("error acquiring lock on %q: %w", f, err)
	}
	return l.Unlock, nil
}

// writeFileAtomic writes path through a temporary file in the same directory
// and renames it into place, so a failed build never leaves a truncated
// image behind.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %q: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
