package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/jayray/devflow/internal/execshell"
)

const (
	gitExecutorNotConfiguredMessageConstant     = "git executor not configured"
	gitRevParseSubcommandConstant               = "rev-parse"
	gitWorkTreeFlagConstant                     = "--is-inside-work-tree"
	gitAbbrevRefFlagConstant                    = "--abbrev-ref"
	gitHeadReferenceConstant                    = "HEAD"
	gitStatusSubcommandConstant                 = "status"
	gitStatusPorcelainFlagConstant              = "--porcelain"
	gitAddSubcommandConstant                    = "add"
	gitAddAllFlagConstant                       = "--all"
	gitDiffSubcommandConstant                   = "diff"
	gitDiffCachedFlagConstant                   = "--cached"
	gitDiffQuietFlagConstant                    = "--quiet"
	gitCommitSubcommandConstant                 = "commit"
	gitCommitMessageFlagConstant                = "-m"
	gitPushSubcommandConstant                   = "push"
	gitLogSubcommandConstant                    = "log"
	gitLogSingleEntryFlagConstant               = "-1"
	gitLogSubjectFormatFlagConstant             = "--pretty=%B"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	stagedChangesPresentExitCodeConstant        = 1
)

// ErrGitExecutorNotConfigured indicates the manager was constructed without an executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorNotConfiguredMessageConstant)

// GitExecutor exposes the subset of shell execution used by repository operations.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager performs git operations against a repository working directory.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager from the provided executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// IsGitRepository reports whether the path sits inside a git work tree.
func (manager *RepositoryManager) IsGitRepository(executionContext context.Context, repositoryPath string) bool {
	_, executionError := manager.executeGit(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitWorkTreeFlagConstant)
	return executionError == nil
}

// CheckCleanWorktree reports whether the repository has no pending changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	executionResult, executionError := manager.executeGit(executionContext, repositoryPath, gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant)
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) == 0, nil
}

// GetCurrentBranch resolves the checked-out branch name; an empty value signals a detached HEAD.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.executeGit(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitAbbrevRefFlagConstant, gitHeadReferenceConstant)
	if executionError != nil {
		return "", executionError
	}

	branchName := strings.TrimSpace(executionResult.StandardOutput)
	if strings.EqualFold(branchName, gitHeadReferenceConstant) {
		return "", nil
	}
	return branchName, nil
}

// StageAllChanges stages every pending change in the repository.
func (manager *RepositoryManager) StageAllChanges(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.executeGit(executionContext, repositoryPath, gitAddSubcommandConstant, gitAddAllFlagConstant)
	return executionError
}

// HasStagedChanges reports whether the index differs from HEAD.
func (manager *RepositoryManager) HasStagedChanges(executionContext context.Context, repositoryPath string) (bool, error) {
	_, executionError := manager.executeGit(executionContext, repositoryPath, gitDiffSubcommandConstant, gitDiffCachedFlagConstant, gitDiffQuietFlagConstant)
	if executionError == nil {
		return false, nil
	}

	// git diff --cached --quiet exits 1 when staged changes are present.
	failedError := execshell.CommandFailedError{}
	if errors.As(executionError, &failedError) && failedError.Result.ExitCode == stagedChangesPresentExitCodeConstant {
		return true, nil
	}

	return false, executionError
}

// CreateCommit records a commit carrying the provided message verbatim.
func (manager *RepositoryManager) CreateCommit(executionContext context.Context, repositoryPath string, commitMessage string) error {
	_, executionError := manager.executeGit(executionContext, repositoryPath, gitCommitSubcommandConstant, gitCommitMessageFlagConstant, commitMessage)
	return executionError
}

// Push publishes the branch to the named remote.
func (manager *RepositoryManager) Push(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error {
	_, executionError := manager.executeGit(executionContext, repositoryPath, gitPushSubcommandConstant, remoteName, branchName)
	return executionError
}

// HeadCommitMessage returns the full message of the HEAD commit.
func (manager *RepositoryManager) HeadCommitMessage(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.executeGit(executionContext, repositoryPath, gitLogSubcommandConstant, gitLogSingleEntryFlagConstant, gitLogSubjectFormatFlagConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

func (manager *RepositoryManager) executeGit(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
		EnvironmentVariables: map[string]string{
			gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant,
		},
	}
	return manager.executor.ExecuteGit(executionContext, commandDetails)
}
