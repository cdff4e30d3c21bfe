// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines abstractions used throughout devflow
// to run git and the project's manage.py interpreter in a testable manner.
package execshell
