package save

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	repositoryManagerMissingMessageConstant   = "repository manager not configured"
	repositoryPathRequiredMessageConstant     = "repository path must be provided"
	emptyCommitMessageMessageConstant         = "commit message must not be empty"
	commitMessageRequiredMessageConstant      = "commit message required and no interactive prompt available"
	noStagedChangesMessageConstant            = "no staged changes to commit"
	notGitRepositoryMessageConstant           = "path is not inside a git repository"
	commitMessagePromptTextConstant           = "Enter commit message: "
	worktreeInspectionFailureTemplateConstant = "failed to inspect working tree: %w"
	branchResolutionFailureTemplateConstant   = "failed to resolve current branch: %w"
	promptFailureTemplateConstant             = "failed to read commit message: %w"
	stageFailureTemplateConstant              = "failed to stage changes: %w"
	stagedCheckFailureTemplateConstant        = "failed to check staged changes: %w"
	commitFailureTemplateConstant             = "failed to create commit: %w"
	pushFailureTemplateConstant               = "failed to push %s to %s: %w"
)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrEmptyCommitMessage indicates the collected commit message was empty or whitespace.
var ErrEmptyCommitMessage = errors.New(emptyCommitMessageMessageConstant)

// ErrCommitMessageRequired indicates no message was supplied and no prompter is configured.
var ErrCommitMessageRequired = errors.New(commitMessageRequiredMessageConstant)

// ErrNoStagedChanges indicates staging produced nothing to commit.
var ErrNoStagedChanges = errors.New(noStagedChangesMessageConstant)

// ErrNotGitRepository indicates the configured path is not a git work tree.
var ErrNotGitRepository = errors.New(notGitRepositoryMessageConstant)

// GitRepositoryManager exposes the repository operations the save workflow needs.
type GitRepositoryManager interface {
	IsGitRepository(executionContext context.Context, repositoryPath string) bool
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	StageAllChanges(executionContext context.Context, repositoryPath string) error
	HasStagedChanges(executionContext context.Context, repositoryPath string) (bool, error)
	CreateCommit(executionContext context.Context, repositoryPath string, commitMessage string) error
	Push(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error
}

// Dependencies enumerates external collaborators required for save operations.
type Dependencies struct {
	RepositoryManager     GitRepositoryManager
	CommitMessagePrompter CommitMessagePrompter
}

// Options configures a save operation.
type Options struct {
	RepositoryPath string
	CommitMessage  string
	RemoteName     string
	BranchName     string
	// FailFast aborts on the first failed step; when disabled the workflow
	// attempts every step and reports the collected failures at the end.
	FailFast bool
}

// Result captures the observable outcomes of a save operation.
type Result struct {
	RepositoryPath string
	CommitMessage  string
	RemoteName     string
	BranchName     string
	CommitCreated  bool
	Pushed         bool
}

// Service coordinates the stage, commit, and push workflow through git.
type Service struct {
	repositoryManager     GitRepositoryManager
	commitMessagePrompter CommitMessagePrompter
}

// NewService constructs a Service from the provided dependencies. The commit
// message prompter is optional; without one every save must carry a message.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	return &Service{
		repositoryManager:     dependencies.RepositoryManager,
		commitMessagePrompter: dependencies.CommitMessagePrompter,
	}, nil
}

// Save stages all pending changes, verifies the index holds something to
// commit, resolves the commit message, then commits and pushes the branch.
// The prompter is consulted only after staged changes are confirmed, so a
// clean repository never asks for a message.
func (service *Service) Save(executionContext context.Context, options Options) (Result, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}

	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = defaultRemoteNameConstant
	}

	result := Result{
		RepositoryPath: trimmedRepositoryPath,
		CommitMessage:  strings.TrimSpace(options.CommitMessage),
		RemoteName:     remoteName,
		BranchName:     strings.TrimSpace(options.BranchName),
	}

	if !service.repositoryManager.IsGitRepository(executionContext, trimmedRepositoryPath) {
		return result, ErrNotGitRepository
	}

	worktreeClean, worktreeError := service.repositoryManager.CheckCleanWorktree(executionContext, trimmedRepositoryPath)
	if worktreeError != nil {
		return result, fmt.Errorf(worktreeInspectionFailureTemplateConstant, worktreeError)
	}
	if worktreeClean {
		return result, ErrNoStagedChanges
	}

	if stageError := service.repositoryManager.StageAllChanges(executionContext, trimmedRepositoryPath); stageError != nil {
		return result, fmt.Errorf(stageFailureTemplateConstant, stageError)
	}

	stagedChangesPresent, stagedCheckError := service.repositoryManager.HasStagedChanges(executionContext, trimmedRepositoryPath)
	if stagedCheckError != nil {
		return result, fmt.Errorf(stagedCheckFailureTemplateConstant, stagedCheckError)
	}
	if !stagedChangesPresent {
		return result, ErrNoStagedChanges
	}

	commitMessage, messageError := service.resolveCommitMessage(result.CommitMessage)
	if messageError != nil {
		return result, messageError
	}
	result.CommitMessage = commitMessage

	var stepErrors []error

	commitError := service.repositoryManager.CreateCommit(executionContext, trimmedRepositoryPath, commitMessage)
	if commitError != nil {
		if isContextError(commitError) {
			return result, commitError
		}
		wrappedCommitError := fmt.Errorf(commitFailureTemplateConstant, commitError)
		if options.FailFast {
			return result, wrappedCommitError
		}
		stepErrors = append(stepErrors, wrappedCommitError)
	} else {
		result.CommitCreated = true
	}

	// Resolved after the commit step so a repository born by this very commit
	// still reports its branch.
	branchName, branchError := service.resolveBranchName(executionContext, trimmedRepositoryPath, result.BranchName)
	if branchError != nil {
		if isContextError(branchError) {
			return result, branchError
		}
		stepErrors = append(stepErrors, branchError)
		return result, errors.Join(stepErrors...)
	}
	result.BranchName = branchName

	pushError := service.repositoryManager.Push(executionContext, trimmedRepositoryPath, remoteName, branchName)
	if pushError != nil {
		if isContextError(pushError) {
			return result, pushError
		}
		wrappedPushError := fmt.Errorf(pushFailureTemplateConstant, branchName, remoteName, pushError)
		if options.FailFast {
			return result, wrappedPushError
		}
		stepErrors = append(stepErrors, wrappedPushError)
	} else {
		result.Pushed = true
	}

	if len(stepErrors) > 0 {
		return result, errors.Join(stepErrors...)
	}

	return result, nil
}

// resolveBranchName keeps an explicitly configured branch and otherwise asks
// the repository for the checked-out one. A detached HEAD falls back to the
// default branch.
func (service *Service) resolveBranchName(executionContext context.Context, repositoryPath string, configuredBranchName string) (string, error) {
	if len(configuredBranchName) > 0 {
		return configuredBranchName, nil
	}

	currentBranchName, branchError := service.repositoryManager.GetCurrentBranch(executionContext, repositoryPath)
	if branchError != nil {
		return "", fmt.Errorf(branchResolutionFailureTemplateConstant, branchError)
	}
	if len(currentBranchName) == 0 {
		return defaultBranchNameConstant, nil
	}
	return currentBranchName, nil
}

func (service *Service) resolveCommitMessage(providedMessage string) (string, error) {
	if len(providedMessage) > 0 {
		return providedMessage, nil
	}
	if service.commitMessagePrompter == nil {
		return "", ErrCommitMessageRequired
	}

	promptedMessage, promptError := service.commitMessagePrompter.PromptCommitMessage(commitMessagePromptTextConstant)
	if promptError != nil {
		return "", fmt.Errorf(promptFailureTemplateConstant, promptError)
	}

	trimmedMessage := strings.TrimSpace(promptedMessage)
	if len(trimmedMessage) == 0 {
		return "", ErrEmptyCommitMessage
	}
	return trimmedMessage, nil
}

func isContextError(candidateError error) bool {
	return errors.Is(candidateError, context.Canceled) || errors.Is(candidateError, context.DeadlineExceeded)
}
