package execshell

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildStartedMessageForPushIncludesBranchAndRemote(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"push", "origin", "main"},
			WorkingDirectory: "/workspace/repo",
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Pushing main to origin from /workspace/repo", message)
}

func TestBuildStartedMessageForStageAllUsesAllChangesLabel(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"add", "--all"},
			WorkingDirectory: "/workspace/repo",
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Staging all changes in /workspace/repo", message)
}

func TestBuildSuccessMessageForWorkTreeProbeConfirmsRepository(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"rev-parse", "--is-inside-work-tree"},
			WorkingDirectory: "/workspace/repo",
		},
	}

	message := formatter.BuildSuccessMessage(command)

	require.Equal(t, "/workspace/repo is a Git repository", message)
}

func TestBuildFailureMessageForCommitIncludesMessageAndStderr(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments:        []string{"commit", "-m", "initial import"},
			WorkingDirectory: "/workspace/repo",
		},
	}
	result := ExecutionResult{ExitCode: 1, StandardError: "nothing to commit"}

	message := formatter.BuildFailureMessage(command, result)

	require.Equal(t, `Failed to create commit in /workspace/repo with message "initial import" (exit code 1: nothing to commit)`, message)
}

func TestBuildStartedMessageForRunServerUsesListenAddress(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandPython,
		Details: CommandDetails{
			Arguments:        []string{"manage.py", "runserver", "0.0.0.0:8000"},
			WorkingDirectory: "/workspace/app",
		},
	}

	message := formatter.BuildStartedMessage(command)

	require.Equal(t, "Starting development server on 0.0.0.0:8000 via manage.py", message)
}

func TestBuildSuccessMessageForMigrateNamesTheScript(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandPython,
		Details: CommandDetails{
			Arguments:        []string{"manage.py", "migrate"},
			WorkingDirectory: "/workspace/app",
		},
	}

	message := formatter.BuildSuccessMessage(command)

	require.Equal(t, "Applied migrations via manage.py in /workspace/app", message)
}

func TestStagedChangesProbeSkipsStartAnnouncement(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{
		Name: CommandGit,
		Details: CommandDetails{
			Arguments: []string{"diff", "--cached", "--quiet"},
		},
	}

	require.False(t, formatter.shouldLogStartMessage(command))
}
