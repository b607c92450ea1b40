// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import "github.com/muesli/termenv"

var (
	resolvedStyle = termenv.Style{}.Foreground(termenv.ANSIGreen)
	failedStyle   = termenv.Style{}.Foreground(termenv.ANSIRed)
	queueStyle    = termenv.Style{}.Foreground(termenv.ANSIYellow)
)

var summaryStyle = termenv.Style{}.Bold()
