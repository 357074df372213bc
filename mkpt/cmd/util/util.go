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

// Package util groups a bunch of common helper functions used by commands.
package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"rvboot.dev/rvboot/pkg/log"
)

// ErrorLogger is where error messages should be written to. These messages
// are consumed by build scripts that wrap mkpt.
var ErrorLogger io.Writer

// Writer writes command output to stdout, and to the log at debug level so
// that a -log file captures what was printed.
type Writer struct {
	// Out is where output goes. Defaults to stdout.
	Out io.Writer
}

// Write implements io.Writer.
func (i *Writer) Write(data []byte) (n int, err error) {
	log.Debugf("%s", data)
	out := i.Out
	if out == nil {
		out = os.Stdout
	}
	return out.Write(data)
}

// Infof writes message to log and stdout.
func Infof(format string, args ...any) {
	log.Infof(format, args...)
	fmt.Printf(format+"\n", args...)
}

// errorf logs error to the log, stderr and ErrorLogger.
func errorf(format string, args ...any) {
	log.Warningf(format, args...)

	fmt.Fprintf(os.Stderr, "mkpt: "+format+"\n", args...)

	if ErrorLogger != nil {
		j := struct {
			Msg   string    `json:"msg"`
			Level string    `json:"level"`
			Time  time.Time `json:"time"`
		}{
			Msg:   fmt.Sprintf(format, args...),
			Level: "error",
			Time:  time.Now(),
		}
		b, err := json.Marshal(j)
		if err != nil {
			panic(err)
		}
		_, _ = ErrorLogger.Write(b)
		_, _ = ErrorLogger.Write([]byte("\n"))
	}
}

// Fatalf logs the same way as Errorf() does, plus *exits* the process with
// status 128, which is unlikely to collide with a status callers check for.
func Fatalf(format string, args ...any) {
	errorf(format, args...)
	os.Exit(128)
}
