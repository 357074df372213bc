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

package pagetables

// sv39LeafLevel is the level of the 1 GiB leaves written by BuildSv39.
const sv39LeafLevel = 2

// BuildSv39 populates the root of bt with three 1 GiB leaves, each mapping
// l.PhysBase with full permissions:
//
//   - the identity window at l.PhysBase, so the instructions around the satp
//     write keep resolving;
//   - the direct map alias at l.PhysBase + l.PhysVirtOffset;
//   - l.KernelBase, where the kernel runs once relocated.
//
// Precondition: bt is zeroed and l.Validate(Sv39) succeeds. Nothing is
// checked here; a bad layout produces a bad mapping.
//
//go:nosplit
func BuildSv39(bt *BootTables, l *Layout) {
	bt.checkWritable()
	root := bt.Root()
	root[Index(sv39LeafLevel, l.PhysBase)].SetLeaf(l.PhysBase)
	root[Index(sv39LeafLevel, l.DirectMapBase())].SetLeaf(l.PhysBase)
	root[Index(sv39LeafLevel, l.KernelBase)].SetLeaf(l.PhysBase)
}

// BuildSv48 populates all four tables of bt with a single translation path
// from l.Sv48Virtual to the 4 KiB page at l.Sv48Physical. Each table down the
// path holds a branch entry (valid bit only) to the next one; the last holds
// the leaf.
//
// Precondition: bt is zeroed and l.Validate(Sv48) succeeds.
//
//go:nosplit
func BuildSv48(bt *BootTables, l *Layout, t Translator) {
	bt.checkWritable()
	va := l.Sv48Virtual
	table := bt.Root()
	for level, next := Sv48.Levels()-1, 1; level > 0; level, next = level-1, next+1 {
		child := bt.Table(next)
		table[Index(level, va)].setPageTable(t.PhysicalFor(child))
		table = child
	}
	table[Index(0, va)].SetLeaf(l.Sv48Physical)
}
