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
	"runtime"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
	"rvboot.dev/rvboot/mkpt/cmd/util"
	"rvboot.dev/rvboot/mkpt/config"
	"rvboot.dev/rvboot/pkg/hostarch"
	"rvboot.dev/rvboot/pkg/log"
	"rvboot.dev/rvboot/pkg/ring0/pagetables"
)

// Verify implements subcommands.Command for the "verify" command.
type Verify struct {
	jobs int
}

// Name implements subcommands.Command.Name.
func (*Verify) Name() string {
	return "verify"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Verify) Synopsis() string {
	return "check boot table images against the configured layout"
}

// Usage implements subcommands.Command.Usage.
func (*Verify) Usage() string {
	return `verify [flags] <image>... - check that each image holds exactly the tables
built for the configured layout, and that every entry has the flags the boot
code expects.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (v *Verify) SetFlags(f *flag.FlagSet) {
	f.IntVar(&v.jobs, "j", runtime.GOMAXPROCS(0), "number of images to check concurrently.")
}

// Execute implements subcommands.Command.Execute.
func (v *Verify) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() == 0 || v.jobs < 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)
	problems, err := verifyImages(ctx, conf, f.Args(), v.jobs)
	if err != nil {
		util.Fatalf("verifying images: %v", err)
	}

	// Corrupted images tend to have every word wrong; keep the log readable.
	logger := log.RateLimitedLogger(log.Log(), 100*time.Millisecond, 16)
	status := subcommands.ExitSuccess
	for i, path := range f.Args() {
		if len(problems[i]) == 0 {
			util.Infof("%s: OK", path)
			continue
		}
		status = subcommands.ExitFailure
		for _, p := range problems[i] {
			logger.Warningf("%s: %s", path, p)
		}
		util.Infof("%s: %d problem(s)", path, len(problems[i]))
	}
	return status
}

// verifyImages checks each image at paths against the tables built for conf,
// up to jobs at a time. It returns the problems found in each image, in the
// order of paths. An image that cannot be read fails the whole check.
func verifyImages(ctx context.Context, conf *config.Config, paths []string, jobs int) ([][]string, error) {
	want := build(conf)
	s := conf.TranslationScheme()
	if log.IsLogging(log.Debug) {
		t := pagetables.LinkTranslator{Tables: want, Base: uintptr(conf.TableBase)}
		for _, m := range pagetables.Mappings(want.Root(), s, t) {
			log.Debugf("Expected mapping %#x (%#x bytes) -> %#x", m.Virtual, m.Length, m.Physical)
		}
	}

	problems := make([][]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			got, gotScheme, err := loadImage(path)
			if err != nil {
				return err
			}
			if gotScheme != s {
				problems[i] = []string{fmt.Sprintf("image is %v, configured scheme is %v", gotScheme, s)}
				return nil
			}
			problems[i] = compareTables(want, got, s, uintptr(conf.TableBase))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return problems, nil
}

// compareTables returns a description of each way got differs from want, or
// violates the entry rules of the boot tables. Leaves carry exactly the full
// permission set. Branches carry only the valid bit and name a table of the
// set placed at base.
func compareTables(want, got *pagetables.BootTables, s pagetables.Scheme, base uintptr) []string {
	t := pagetables.LinkTranslator{Tables: got, Base: base}
	inSet := func(physical uintptr) bool {
		// The translator covers every table of the set; s may use fewer.
		return t.LookupPTEs(physical) != nil && (physical-base)/hostarch.PageSize < uintptr(s.Tables())
	}
	var problems []string
	for i := 0; i < s.Tables(); i++ {
		wt, gt := want.Table(i), got.Table(i)
		for j := range gt {
			pte := &gt[j]
			if *pte != wt[j] {
				problems = append(problems, fmt.Sprintf("table %d [%#03x]: got %v, wanted %v", i, j, *pte, wt[j]))
			}
			if !pte.Valid() {
				continue
			}
			switch {
			case pte.IsLeaf() && pte.Opts() != pagetables.FullPermissions:
				problems = append(problems, fmt.Sprintf("table %d [%#03x]: leaf flags %v, wanted %v", i, j, pte.Opts(), pagetables.FullPermissions))
			case !pte.IsLeaf() && pte.Opts() != pagetables.Valid:
				problems = append(problems, fmt.Sprintf("table %d [%#03x]: branch flags %v, wanted %v", i, j, pte.Opts(), pagetables.Valid))
			case !pte.IsLeaf() && !inSet(pte.Address()):
				problems = append(problems, fmt.Sprintf("table %d [%#03x]: branch to %#x is outside the table set at %#x", i, j, pte.Address(), base))
			}
		}
	}
	return problems
}
