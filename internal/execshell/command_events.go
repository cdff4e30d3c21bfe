package execshell

// CommandEventObserver is notified as external commands start, finish, or
// fail to launch. The console renderer in the ui package implements it for
// human-readable runs.
type CommandEventObserver interface {
	// CommandStarted fires before the command process is spawned.
	CommandStarted(command ShellCommand)
	// CommandCompleted fires after the process exits and carries its result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed fires when the process could not be started.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// noopCommandEventObserver swallows every event. It backs executors that run
// without a console renderer attached.
type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
