// Package logger provides the console output helpers used across the app.
// Plain stdout printing with ANSI colors; no levels, no files, no deps.
package logger

import (
	"fmt"
	"strings"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	cyan   = "\033[36m"
	green  = "\033[32m"
	yellow = "\033[33m"
	red    = "\033[31m"
)

// Info prints a neutral status line tagged with the subsystem name.
func Info(tag, msg string) {
	line(cyan, "*", tag, msg)
}

// Success prints a completed-step line.
func Success(tag, msg string) {
	line(green, "+", tag, msg)
}

// Warn prints a non-fatal problem line.
func Warn(tag, msg string) {
	line(yellow, "!", tag, msg)
}

// Error prints a failure line. It does not exit; callers decide that.
func Error(tag, msg string) {
	line(red, "x", tag, msg)
}

func line(color, mark, tag, msg string) {
	fmt.Printf("%s%s%s %s%-10s%s %s\n", color, mark, reset, bold, "["+tag+"]", reset, msg)
}

// Banner prints the startup header. An empty version is shown as "dev".
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	title := "EVE Wayfinder " + version
	rule := strings.Repeat("=", len(title)+4)
	fmt.Printf("%s%s%s\n", dim, rule, reset)
	fmt.Printf("%s  %s%s\n", bold, title, reset)
	fmt.Printf("%s%s%s\n", dim, rule, reset)
}

// Section prints a titled divider before a block of Stats lines.
func Section(title string) {
	fmt.Printf("\n%s-- %s --%s\n", bold, title, reset)
}

// Stats prints an aligned name/count pair under a Section.
func Stats(name string, value int) {
	fmt.Printf("   %s%-14s%s %d\n", dim, name, reset, value)
}

// Server prints the final "listening" line once the HTTP server is up.
func Server(addr string) {
	fmt.Printf("\n%s>%s %sListening on http://%s%s\n\n", green, reset, bold, addr, reset)
}
