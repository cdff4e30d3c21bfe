package ui

import (
	"fmt"
	"io"

	"github.com/jayray/devflow/internal/execshell"
)

const (
	eventLineTemplateConstant = "%s\n"
)

// ConsoleCommandEventLogger renders command lifecycle events to an output stream.
type ConsoleCommandEventLogger struct {
	writer    io.Writer
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided writer.
func NewConsoleCommandEventLogger(writer io.Writer) *ConsoleCommandEventLogger {
	return &ConsoleCommandEventLogger{writer: writer, formatter: execshell.CommandMessageFormatter{}}
}

// CommandStarted implements execshell.CommandEventObserver by announcing command start.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	eventLogger.writeLine(eventLogger.formatter.BuildStartedMessage(command))
}

// CommandCompleted implements execshell.CommandEventObserver by reporting command completion.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if result.ExitCode == 0 {
		eventLogger.writeLine(eventLogger.formatter.BuildSuccessMessage(command))
		return
	}
	eventLogger.writeLine(eventLogger.formatter.BuildFailureMessage(command, result))
}

// CommandExecutionFailed implements execshell.CommandEventObserver by reporting execution failures.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	eventLogger.writeLine(eventLogger.formatter.BuildExecutionFailureMessage(command, failure))
}

func (eventLogger *ConsoleCommandEventLogger) writeLine(message string) {
	if eventLogger == nil || eventLogger.writer == nil {
		return
	}
	fmt.Fprintf(eventLogger.writer, eventLineTemplateConstant, message)
}
