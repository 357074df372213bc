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

package log

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testWriter struct {
	lines []string
	fail  bool
}

func (w *testWriter) Write(bytes []byte) (int, error) {
	if w.fail {
		return 0, fmt.Errorf("simulated failure")
	}
	w.lines = append(w.lines, string(bytes))
	return len(bytes), nil
}

func TestDropMessages(t *testing.T) {
	tw := &testWriter{}
	w := Writer{Next: tw}
	if _, err := w.Write([]byte("line 1\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	tw.fail = true
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}

	tw.fail = false
	if _, err := w.Write([]byte("line 2\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	expected := []string{
		"line 1\n",
		"line 2\n",
		"\n*** Dropped 2 log messages ***\n",
	}
	if len(tw.lines) != len(expected) {
		t.Fatalf("Writer should have logged %d lines, got: %v, expected: %v", len(expected), tw.lines, expected)
	}
	for i, l := range tw.lines {
		if l != expected[i] {
			t.Fatalf("line %d doesn't match, got: %q, expected: %q", i, l, expected[i])
		}
	}
}

func TestWriterAppendsNewline(t *testing.T) {
	tw := &testWriter{}
	w := Writer{Next: tw}
	if _, err := w.Write([]byte("no newline")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}
	if got := strings.Join(tw.lines, ""); got != "no newline\n" {
		t.Errorf("got %q, want %q", got, "no newline\n")
	}
}

func TestGoogleEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := GoogleEmitter{&Writer{Next: &buf}}
	ts := time.Date(2026, time.May, 4, 13, 2, 1, 7000, time.UTC)
	e.Emit(0, Warning, ts, "root at %#x", 0x80200000)

	got := buf.String()
	if !strings.HasPrefix(got, "W0504 13:02:01.000007 ") {
		t.Errorf("bad header: %q", got)
	}
	if !strings.Contains(got, "log_test.go:") {
		t.Errorf("missing caller in %q", got)
	}
	if !strings.HasSuffix(got, "] root at 0x80200000\n") {
		t.Errorf("bad message: %q", got)
	}
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := &BasicLogger{Level: Info, Emitter: &Writer{Next: &buf}}

	l.Debugf("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message emitted at info level: %q", buf.String())
	}
	l.Infof("shown")
	if got := buf.String(); got != "shown\n" {
		t.Errorf("got %q, want %q", got, "shown\n")
	}

	l.SetLevel(Debug)
	if !l.IsLogging(Debug) {
		t.Errorf("IsLogging(Debug) = false after SetLevel(Debug)")
	}
}

func TestMultiEmitter(t *testing.T) {
	var a, b bytes.Buffer
	m := MultiEmitter{&Writer{Next: &a}, &Writer{Next: &b}}
	m.Emit(0, Info, time.Now(), "satp=%#x", uint64(9)<<60)
	for i, buf := range []*bytes.Buffer{&a, &b} {
		if got, want := buf.String(), "satp=0x9000000000000000\n"; got != want {
			t.Errorf("emitter %d: got %q, want %q", i, got, want)
		}
	}
}

func TestRateLimitedLogger(t *testing.T) {
	var buf bytes.Buffer
	l := &BasicLogger{Level: Warning, Emitter: &Writer{Next: &buf}}
	rl := RateLimitedLogger(l, time.Hour, 2)
	for i := 0; i < 5; i++ {
		rl.Warningf("mismatch %d", i)
	}
	if got, want := buf.String(), "mismatch 0\nmismatch 1\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	f, err := OpenFile(filepath.Join(dir, "sub", "mkpt-%COMMAND%.log"), os.O_CREATE|os.O_WRONLY, CommandFileOpts{Command: "gen"})
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()
	if want := filepath.Join(dir, "sub", "mkpt-gen.log"); f.Name() != want {
		t.Errorf("got %q, want %q", f.Name(), want)
	}

	f, err = OpenFile("", os.O_CREATE|os.O_WRONLY, CommandFileOpts{})
	if err != nil || f != nil {
		t.Errorf("OpenFile(\"\") = %v, %v, want nil, nil", f, err)
	}
}
