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

//go:build sv48

package ring0

import (
	"rvboot.dev/rvboot/pkg/ring0/pagetables"
)

// BootScheme is the translation scheme the kernel is built for.
const BootScheme = pagetables.Sv48

//go:nosplit
func buildBootTables(bt *pagetables.BootTables) {
	pagetables.BuildSv48(bt, &pagetables.DefaultLayout, pagetables.IdentityTranslator{})
}
