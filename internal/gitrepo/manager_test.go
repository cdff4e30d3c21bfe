package gitrepo_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jayray/devflow/internal/execshell"
	"github.com/jayray/devflow/internal/gitrepo"
)

const (
	testRepositoryPathConstant = "/workspace/repo"
	testBranchNameConstant     = "main"
	testRemoteNameConstant     = "origin"
	testCommitMessageConstant  = "update content recorder"
)

type scriptedGitExecutor struct {
	resultsBySubcommand map[string]execshell.ExecutionResult
	errorsBySubcommand  map[string]error
	recordedCommands    []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)

	subcommand := ""
	if len(details.Arguments) > 0 {
		subcommand = details.Arguments[0]
	}

	if executionError, exists := executor.errorsBySubcommand[subcommand]; exists {
		return execshell.ExecutionResult{}, executionError
	}
	if result, exists := executor.resultsBySubcommand[subcommand]; exists {
		return result, nil
	}
	return execshell.ExecutionResult{}, nil
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	manager, creationError := gitrepo.NewRepositoryManager(nil)
	require.Nil(testInstance, manager)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrGitExecutorNotConfigured)
}

func TestCheckCleanWorktreeInterpretsPorcelainOutput(testInstance *testing.T) {
	testCases := []struct {
		name           string
		porcelainLines string
		expectedClean  bool
	}{
		{name: "clean", porcelainLines: "", expectedClean: true},
		{name: "dirty", porcelainLines: " M manage.py\n?? notes.txt\n", expectedClean: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{
				resultsBySubcommand: map[string]execshell.ExecutionResult{
					"status": {StandardOutput: testCase.porcelainLines},
				},
			}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			clean, cleanError := manager.CheckCleanWorktree(context.Background(), testRepositoryPathConstant)
			require.NoError(testInstance, cleanError)
			require.Equal(testInstance, testCase.expectedClean, clean)
		})
	}
}

func TestHasStagedChangesTranslatesExitCodes(testInstance *testing.T) {
	testCases := []struct {
		name           string
		diffError      error
		expectedStaged bool
		expectError    bool
	}{
		{
			name:           "nothing_staged",
			diffError:      nil,
			expectedStaged: false,
		},
		{
			name: "staged_changes_present",
			diffError: execshell.CommandFailedError{
				Command: execshell.ShellCommand{Name: execshell.CommandGit},
				Result:  execshell.ExecutionResult{ExitCode: 1},
			},
			expectedStaged: true,
		},
		{
			name: "diff_failure_propagates",
			diffError: execshell.CommandFailedError{
				Command: execshell.ShellCommand{Name: execshell.CommandGit},
				Result:  execshell.ExecutionResult{ExitCode: 129},
			},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{
				errorsBySubcommand: map[string]error{},
			}
			if testCase.diffError != nil {
				executor.errorsBySubcommand["diff"] = testCase.diffError
			}

			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			staged, stagedError := manager.HasStagedChanges(context.Background(), testRepositoryPathConstant)
			if testCase.expectError {
				require.Error(testInstance, stagedError)
				return
			}
			require.NoError(testInstance, stagedError)
			require.Equal(testInstance, testCase.expectedStaged, staged)
		})
	}
}

func TestCreateCommitPassesMessageVerbatim(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	commitError := manager.CreateCommit(context.Background(), testRepositoryPathConstant, testCommitMessageConstant)
	require.NoError(testInstance, commitError)

	require.Len(testInstance, executor.recordedCommands, 1)
	recordedArguments := executor.recordedCommands[0].Arguments
	require.Equal(testInstance, []string{"commit", "-m", testCommitMessageConstant}, recordedArguments)
}

func TestPushTargetsConfiguredRemoteAndBranch(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	pushError := manager.Push(context.Background(), testRepositoryPathConstant, testRemoteNameConstant, testBranchNameConstant)
	require.NoError(testInstance, pushError)

	require.Len(testInstance, executor.recordedCommands, 1)
	require.Equal(testInstance, []string{"push", testRemoteNameConstant, testBranchNameConstant}, executor.recordedCommands[0].Arguments)
}

func TestGetCurrentBranchDetectsDetachedHead(testInstance *testing.T) {
	executor := &scriptedGitExecutor{
		resultsBySubcommand: map[string]execshell.ExecutionResult{
			"rev-parse": {StandardOutput: "HEAD\n"},
		},
	}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	branchName, branchError := manager.GetCurrentBranch(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, branchError)
	require.Empty(testInstance, branchName)
}

func TestEveryInvocationDisablesTerminalPrompts(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	stageError := manager.StageAllChanges(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, stageError)

	require.Len(testInstance, executor.recordedCommands, 1)
	promptSetting, promptConfigured := executor.recordedCommands[0].EnvironmentVariables["GIT_TERMINAL_PROMPT"]
	require.True(testInstance, promptConfigured)
	require.Equal(testInstance, "0", promptSetting)
	require.True(testInstance, strings.HasPrefix(executor.recordedCommands[0].WorkingDirectory, testRepositoryPathConstant))
}
