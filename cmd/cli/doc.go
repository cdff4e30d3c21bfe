// Package cli wires the devflow root command, configuration loading, and
// structured logging, and registers the serve and save subcommands.
package cli
