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

package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"rvboot.dev/rvboot/pkg/log"
)

func TestNewEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := newEmitter("text", &buf)
	if _, ok := e.(log.GoogleEmitter); !ok {
		t.Errorf("newEmitter(text) = %T, wanted log.GoogleEmitter", e)
	}

	e = newEmitter("json", &buf)
	if _, ok := e.(log.JSONEmitter); !ok {
		t.Fatalf("newEmitter(json) = %T, wanted log.JSONEmitter", e)
	}
	e.Emit(0, log.Warning, time.Now(), "table %d", 3)
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("json output %q: %v", buf.String(), err)
	}
	if got := line["msg"]; got != "table 3" {
		t.Errorf("msg = %v, wanted %q", got, "table 3")
	}
}

func TestWarningsOnly(t *testing.T) {
	var buf bytes.Buffer
	e := warningsOnly{newEmitter("text", &buf)}
	e.Emit(0, log.Info, time.Now(), "built %s", "sv39")
	e.Emit(0, log.Debug, time.Now(), "mapping %#x", 0x8000_0000)
	if buf.Len() != 0 {
		t.Fatalf("info and debug lines were written: %q", buf.String())
	}
	e.Emit(0, log.Warning, time.Now(), "image %s is stale", "a.bin")
	out := buf.String()
	if !strings.HasPrefix(out, "W") || !strings.Contains(out, "image a.bin is stale") {
		t.Errorf("warning output = %q", out)
	}
}
