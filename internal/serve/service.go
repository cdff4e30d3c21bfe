package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/jayray/devflow/internal/execshell"
)

const (
	commandExecutorMissingMessageConstant   = "command executor not configured"
	interpreterNotFoundMessageConstant      = "python interpreter not found on PATH"
	projectDirectoryRequiredMessageConstant = "project directory must be provided"
	interpreterResolutionTemplateConstant   = "interpreter %q unavailable: %w"
	makeMigrationsFailureTemplateConstant   = "failed to generate migrations: %w"
	migrateFailureTemplateConstant          = "failed to apply migrations: %w"
	serverFailureTemplateConstant           = "development server exited with an error: %w"
	migrationStepSkippedLogMessageConstant  = "Migration steps skipped"
	migrationStepFailedLogMessageConstant   = "Migration step failed, continuing"
	logFieldMigrationStepConstant           = "step"
	logFieldProjectDirectoryConstant        = "project_directory"
	makeMigrationsStepNameConstant          = "makemigrations"
	migrateStepNameConstant                 = "migrate"
	runServerSubcommandConstant             = "runserver"
)

// ErrCommandExecutorNotConfigured indicates the command executor dependency was missing.
var ErrCommandExecutorNotConfigured = errors.New(commandExecutorMissingMessageConstant)

// ErrInterpreterNotFound indicates the configured Python interpreter is not installed.
var ErrInterpreterNotFound = errors.New(interpreterNotFoundMessageConstant)

// ErrProjectDirectoryRequired indicates the project directory option was empty.
var ErrProjectDirectoryRequired = errors.New(projectDirectoryRequiredMessageConstant)

// CommandExecutor runs external commands on behalf of the serve workflow.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// InterpreterResolver locates an interpreter executable on the system.
type InterpreterResolver interface {
	ResolveInterpreter(interpreterName string) (string, error)
}

// OSInterpreterResolver resolves interpreters through the system PATH.
type OSInterpreterResolver struct{}

// ResolveInterpreter returns the absolute path of the named interpreter.
func (resolver OSInterpreterResolver) ResolveInterpreter(interpreterName string) (string, error) {
	return exec.LookPath(interpreterName)
}

// Dependencies enumerates external collaborators required for serve operations.
type Dependencies struct {
	CommandExecutor     CommandExecutor
	InterpreterResolver InterpreterResolver
	Logger              *zap.Logger
}

// Options configures a serve operation.
type Options struct {
	ProjectDirectory  string
	PythonInterpreter string
	ManageScriptName  string
	ServerHost        string
	ServerPort        string
	SkipMigrations    bool
	// StrictMigrations aborts when a migration step fails; when disabled the
	// failures are logged and the server launch proceeds anyway.
	StrictMigrations bool
}

// Result captures the observable outcomes of a serve operation.
type Result struct {
	ProjectDirectory  string
	InterpreterPath   string
	ServerAddress     string
	MigrationsApplied bool
}

// Service coordinates the bootstrap and dev-server launch workflow.
type Service struct {
	commandExecutor     CommandExecutor
	interpreterResolver InterpreterResolver
	logger              *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.CommandExecutor == nil {
		return nil, ErrCommandExecutorNotConfigured
	}

	interpreterResolver := dependencies.InterpreterResolver
	if interpreterResolver == nil {
		interpreterResolver = OSInterpreterResolver{}
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		commandExecutor:     dependencies.CommandExecutor,
		interpreterResolver: interpreterResolver,
		logger:              logger,
	}, nil
}

// Serve verifies the interpreter, applies migrations, and runs the development server.
//
// The call blocks until the server process exits; its error status reflects
// the server's exit code.
func (service *Service) Serve(executionContext context.Context, options Options) (Result, error) {
	sanitizedOptions := service.applyOptionDefaults(options)
	if len(sanitizedOptions.ProjectDirectory) == 0 {
		return Result{}, ErrProjectDirectoryRequired
	}

	serverAddress := net.JoinHostPort(sanitizedOptions.ServerHost, sanitizedOptions.ServerPort)
	result := Result{
		ProjectDirectory: sanitizedOptions.ProjectDirectory,
		ServerAddress:    serverAddress,
	}

	interpreterPath, resolutionError := service.interpreterResolver.ResolveInterpreter(sanitizedOptions.PythonInterpreter)
	if resolutionError != nil {
		return result, fmt.Errorf(interpreterResolutionTemplateConstant, sanitizedOptions.PythonInterpreter, ErrInterpreterNotFound)
	}
	result.InterpreterPath = interpreterPath

	if sanitizedOptions.SkipMigrations {
		service.logger.Info(
			migrationStepSkippedLogMessageConstant,
			zap.String(logFieldProjectDirectoryConstant, sanitizedOptions.ProjectDirectory),
		)
	} else {
		migrationsApplied, migrationError := service.runMigrationSteps(executionContext, sanitizedOptions)
		if migrationError != nil {
			return result, migrationError
		}
		result.MigrationsApplied = migrationsApplied
	}

	serverArguments := []string{sanitizedOptions.ManageScriptName, runServerSubcommandConstant, serverAddress}
	_, serverError := service.commandExecutor.Execute(executionContext, execshell.ShellCommand{
		Name: execshell.CommandName(sanitizedOptions.PythonInterpreter),
		Details: execshell.CommandDetails{
			Arguments:        serverArguments,
			WorkingDirectory: sanitizedOptions.ProjectDirectory,
			StreamOutput:     true,
		},
	})
	if serverError != nil {
		if isContextError(serverError) {
			return result, serverError
		}
		return result, fmt.Errorf(serverFailureTemplateConstant, serverError)
	}

	return result, nil
}

// runMigrationSteps runs makemigrations and migrate, honoring strict mode.
// It reports whether both steps completed without failure.
func (service *Service) runMigrationSteps(executionContext context.Context, options Options) (bool, error) {
	migrationSteps := []struct {
		stepName        string
		failureTemplate string
	}{
		{stepName: makeMigrationsStepNameConstant, failureTemplate: makeMigrationsFailureTemplateConstant},
		{stepName: migrateStepNameConstant, failureTemplate: migrateFailureTemplateConstant},
	}

	allStepsSucceeded := true
	for _, migrationStep := range migrationSteps {
		_, stepError := service.commandExecutor.Execute(executionContext, execshell.ShellCommand{
			Name: execshell.CommandName(options.PythonInterpreter),
			Details: execshell.CommandDetails{
				Arguments:        []string{options.ManageScriptName, migrationStep.stepName},
				WorkingDirectory: options.ProjectDirectory,
			},
		})
		if stepError == nil {
			continue
		}
		if isContextError(stepError) {
			return false, stepError
		}
		if options.StrictMigrations {
			return false, fmt.Errorf(migrationStep.failureTemplate, stepError)
		}

		allStepsSucceeded = false
		service.logger.Warn(
			migrationStepFailedLogMessageConstant,
			zap.String(logFieldMigrationStepConstant, migrationStep.stepName),
			zap.String(logFieldProjectDirectoryConstant, options.ProjectDirectory),
			zap.Error(stepError),
		)
	}

	return allStepsSucceeded, nil
}

func (service *Service) applyOptionDefaults(options Options) Options {
	defaults := DefaultCommandConfiguration()
	sanitized := options
	sanitized.ProjectDirectory = strings.TrimSpace(options.ProjectDirectory)
	sanitized.PythonInterpreter = strings.TrimSpace(options.PythonInterpreter)
	sanitized.ManageScriptName = strings.TrimSpace(options.ManageScriptName)
	sanitized.ServerHost = strings.TrimSpace(options.ServerHost)
	sanitized.ServerPort = strings.TrimSpace(options.ServerPort)

	if len(sanitized.PythonInterpreter) == 0 {
		sanitized.PythonInterpreter = defaults.PythonInterpreter
	}
	if len(sanitized.ManageScriptName) == 0 {
		sanitized.ManageScriptName = defaults.ManageScriptName
	}
	if len(sanitized.ServerHost) == 0 {
		sanitized.ServerHost = defaults.ServerHost
	}
	if len(sanitized.ServerPort) == 0 {
		sanitized.ServerPort = defaults.ServerPort
	}

	return sanitized
}

func isContextError(candidateError error) bool {
	return errors.Is(candidateError, context.Canceled) || errors.Is(candidateError, context.DeadlineExceeded)
}
