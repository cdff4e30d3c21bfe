// Package save implements the stage, commit, and push workflow that replaced
// the repository's commit automation shell scripts.
//
// It exposes CommandBuilder for wiring the save Cobra command, Service for
// driving the workflow programmatically, and a prompter abstraction for
// collecting the commit message interactively.
package save
