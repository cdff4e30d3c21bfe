// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// It exposes RepositoryManager for staging, committing, and pushing changes,
// along with the worktree and branch inspection used by the save workflow.
package gitrepo
