// Package ui renders command lifecycle events for interactive terminal sessions.
//
// ConsoleCommandEventLogger implements execshell.CommandEventObserver and mirrors
// the progress messages the retired shell scripts used to echo, writing them to
// the command's output stream rather than the diagnostic log.
package ui
