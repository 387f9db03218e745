/*
Copyright 2021 ICS-FORTH.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package ui is the small console-output helper testwatchctl's commands call
// into, in the shape the teacher's cmd/kubectl-frisbee commands assume of its
// own (unretrieved) pkg/ui: Info/Success/Fail/Failf/NL/ExitOnError/Debug,
// plus a verbosity toggle.
package ui

import (
	"fmt"
	"os"

	"github.com/gookit/color"
)

var verbose bool

// SetVerbose toggles whether Debug output is printed.
func SetVerbose(v bool) {
	verbose = v
}

// NL prints a blank line, used by commands to separate sections.
func NL() {
	fmt.Println()
}

// Info prints an informational line.
func Info(args ...interface{}) {
	color.FgCyan.Println(args...)
}

// Success prints a line marking a step as done.
func Success(args ...interface{}) {
	color.FgGreen.Println(args...)
}

// Warn prints a non-fatal warning line.
func Warn(args ...interface{}) {
	color.FgYellow.Println(args...)
}

// Debug prints a line only when SetVerbose(true) was called.
func Debug(args ...interface{}) {
	if verbose {
		color.FgDarkGray.Println(args...)
	}
}

// Fail prints err in red and exits the process with status 1.
func Fail(err error) {
	color.FgRed.Println(err.Error())
	os.Exit(1)
}

// Failf formats a message, prints it in red, and exits the process.
func Failf(format string, args ...interface{}) {
	Fail(fmt.Errorf(format, args...))
}

// ExitOnError prints step and exits the process if err is non-nil.
func ExitOnError(step string, err error) {
	if err != nil {
		Fail(fmt.Errorf("%s: %w", step, err))
	}
}

// PrintOnError prints a non-fatal error without exiting, mirroring the help
// rendering call sites in the teacher's command tree.
func PrintOnError(step string, err error) {
	if err != nil {
		color.FgRed.Println(step+":", err.Error())
	}
}
