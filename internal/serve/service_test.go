package serve_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jayray/devflow/internal/execshell"
	"github.com/jayray/devflow/internal/serve"
)

const (
	testServeCaseMissingExecutorConstant     = "missing_command_executor"
	testServeCaseInterpreterMissingConstant  = "interpreter_not_on_path"
	testServeCaseFullWorkflowConstant        = "migrations_then_server"
	testServeCaseSkipMigrationsConstant      = "migrations_skipped"
	testServeCaseStrictAbortConstant         = "strict_mode_aborts_on_migration_failure"
	testServeCaseLenientContinueConstant     = "lenient_mode_continues_past_migration_failure"
	testServeCaseServerFailureConstant       = "server_exit_reported"
	testServeCaseContextCancellationConstant = "context_cancellation_passthrough"
	testServeProjectDirectoryConstant        = "/tmp/webapp"
	testServeInterpreterConstant             = "python3"
	testServeInterpreterPathConstant         = "/usr/bin/python3"
	testServeManageScriptConstant            = "manage.py"
	testServeServerAddressConstant           = "0.0.0.0:8000"
	testServeMigrationFailureMessageConstant = "relation already exists"
	testServeServerFailureMessageConstant    = "port already in use"
)

type recordedCommand struct {
	name             string
	arguments        []string
	workingDirectory string
	streamOutput     bool
}

type scriptedCommandExecutor struct {
	commands       []recordedCommand
	failures       map[string]error
	executionError error
}

func (executor *scriptedCommandExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.commands = append(executor.commands, recordedCommand{
		name:             string(command.Name),
		arguments:        command.Details.Arguments,
		workingDirectory: command.Details.WorkingDirectory,
		streamOutput:     command.Details.StreamOutput,
	})

	if executor.executionError != nil {
		return execshell.ExecutionResult{}, executor.executionError
	}
	if len(command.Details.Arguments) > 1 {
		if failure, found := executor.failures[command.Details.Arguments[1]]; found {
			return execshell.ExecutionResult{}, failure
		}
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *scriptedCommandExecutor) subcommands() []string {
	subcommandNames := make([]string, 0, len(executor.commands))
	for _, command := range executor.commands {
		if len(command.arguments) > 1 {
			subcommandNames = append(subcommandNames, command.arguments[1])
		}
	}
	return subcommandNames
}

type staticInterpreterResolver struct {
	interpreterPath string
	resolutionError error
	requestedNames  []string
}

func (resolver *staticInterpreterResolver) ResolveInterpreter(interpreterName string) (string, error) {
	resolver.requestedNames = append(resolver.requestedNames, interpreterName)
	return resolver.interpreterPath, resolver.resolutionError
}

func defaultServeOptions() serve.Options {
	return serve.Options{
		ProjectDirectory:  testServeProjectDirectoryConstant,
		PythonInterpreter: testServeInterpreterConstant,
		ManageScriptName:  testServeManageScriptConstant,
		ServerHost:        "0.0.0.0",
		ServerPort:        "8000",
	}
}

func TestNewServiceRequiresCommandExecutor(testInstance *testing.T) {
	testInstance.Run(testServeCaseMissingExecutorConstant, func(subtest *testing.T) {
		service, creationError := serve.NewService(serve.Dependencies{})

		require.Nil(subtest, service)
		require.ErrorIs(subtest, creationError, serve.ErrCommandExecutorNotConfigured)
	})
}

func TestServiceServeRequiresInterpreter(testInstance *testing.T) {
	testInstance.Run(testServeCaseInterpreterMissingConstant, func(subtest *testing.T) {
		commandExecutor := &scriptedCommandExecutor{}
		interpreterResolver := &staticInterpreterResolver{resolutionError: errors.New("executable file not found in $PATH")}
		service, creationError := serve.NewService(serve.Dependencies{
			CommandExecutor:     commandExecutor,
			InterpreterResolver: interpreterResolver,
		})
		require.NoError(subtest, creationError)

		_, serveError := service.Serve(context.Background(), defaultServeOptions())

		require.ErrorIs(subtest, serveError, serve.ErrInterpreterNotFound)
		require.Contains(subtest, serveError.Error(), testServeInterpreterConstant)
		require.Empty(subtest, commandExecutor.commands)
		require.Equal(subtest, []string{testServeInterpreterConstant}, interpreterResolver.requestedNames)
	})
}

func TestServiceServeRunsMigrationsAndServer(testInstance *testing.T) {
	testInstance.Run(testServeCaseFullWorkflowConstant, func(subtest *testing.T) {
		commandExecutor := &scriptedCommandExecutor{}
		service := newServeTestService(subtest, commandExecutor, zap.NewNop())

		result, serveError := service.Serve(context.Background(), defaultServeOptions())

		require.NoError(subtest, serveError)
		require.Equal(subtest, []string{"makemigrations", "migrate", "runserver"}, commandExecutor.subcommands())
		require.True(subtest, result.MigrationsApplied)
		require.Equal(subtest, testServeInterpreterPathConstant, result.InterpreterPath)
		require.Equal(subtest, testServeServerAddressConstant, result.ServerAddress)

		serverCommand := commandExecutor.commands[len(commandExecutor.commands)-1]
		require.Equal(subtest, testServeInterpreterConstant, serverCommand.name)
		require.Equal(subtest, []string{testServeManageScriptConstant, "runserver", testServeServerAddressConstant}, serverCommand.arguments)
		require.Equal(subtest, testServeProjectDirectoryConstant, serverCommand.workingDirectory)
		require.True(subtest, serverCommand.streamOutput)

		for _, migrationCommand := range commandExecutor.commands[:len(commandExecutor.commands)-1] {
			require.False(subtest, migrationCommand.streamOutput)
			require.Equal(subtest, testServeProjectDirectoryConstant, migrationCommand.workingDirectory)
		}
	})
}

func TestServiceServeSkipsMigrationsWhenRequested(testInstance *testing.T) {
	testInstance.Run(testServeCaseSkipMigrationsConstant, func(subtest *testing.T) {
		commandExecutor := &scriptedCommandExecutor{}
		service := newServeTestService(subtest, commandExecutor, zap.NewNop())

		options := defaultServeOptions()
		options.SkipMigrations = true

		result, serveError := service.Serve(context.Background(), options)

		require.NoError(subtest, serveError)
		require.Equal(subtest, []string{"runserver"}, commandExecutor.subcommands())
		require.False(subtest, result.MigrationsApplied)
	})
}

func TestServiceServeStrictModeAbortsOnMigrationFailure(testInstance *testing.T) {
	testInstance.Run(testServeCaseStrictAbortConstant, func(subtest *testing.T) {
		migrationFailure := errors.New(testServeMigrationFailureMessageConstant)
		commandExecutor := &scriptedCommandExecutor{failures: map[string]error{"makemigrations": migrationFailure}}
		service := newServeTestService(subtest, commandExecutor, zap.NewNop())

		options := defaultServeOptions()
		options.StrictMigrations = true

		_, serveError := service.Serve(context.Background(), options)

		require.ErrorIs(subtest, serveError, migrationFailure)
		require.Equal(subtest, []string{"makemigrations"}, commandExecutor.subcommands())
	})
}

func TestServiceServeLenientModeContinuesPastMigrationFailure(testInstance *testing.T) {
	testInstance.Run(testServeCaseLenientContinueConstant, func(subtest *testing.T) {
		observedCore, observedLogs := observer.New(zapcore.WarnLevel)
		migrationFailure := errors.New(testServeMigrationFailureMessageConstant)
		commandExecutor := &scriptedCommandExecutor{failures: map[string]error{"migrate": migrationFailure}}
		service := newServeTestService(subtest, commandExecutor, zap.New(observedCore))

		result, serveError := service.Serve(context.Background(), defaultServeOptions())

		require.NoError(subtest, serveError)
		require.Equal(subtest, []string{"makemigrations", "migrate", "runserver"}, commandExecutor.subcommands())
		require.False(subtest, result.MigrationsApplied)

		warningEntries := observedLogs.All()
		require.Len(subtest, warningEntries, 1)
		require.Equal(subtest, zapcore.WarnLevel, warningEntries[0].Level)
	})
}

func TestServiceServeReportsServerFailure(testInstance *testing.T) {
	testInstance.Run(testServeCaseServerFailureConstant, func(subtest *testing.T) {
		serverFailure := errors.New(testServeServerFailureMessageConstant)
		commandExecutor := &scriptedCommandExecutor{failures: map[string]error{"runserver": serverFailure}}
		service := newServeTestService(subtest, commandExecutor, zap.NewNop())

		_, serveError := service.Serve(context.Background(), defaultServeOptions())

		require.ErrorIs(subtest, serveError, serverFailure)
		require.Equal(subtest, []string{"makemigrations", "migrate", "runserver"}, commandExecutor.subcommands())
	})
}

func TestServiceServePropagatesContextCancellation(testInstance *testing.T) {
	testInstance.Run(testServeCaseContextCancellationConstant, func(subtest *testing.T) {
		commandExecutor := &scriptedCommandExecutor{executionError: context.Canceled}
		service := newServeTestService(subtest, commandExecutor, zap.NewNop())

		_, serveError := service.Serve(context.Background(), defaultServeOptions())

		require.ErrorIs(subtest, serveError, context.Canceled)
		require.Equal(subtest, []string{"makemigrations"}, commandExecutor.subcommands())
	})
}

func TestServiceServeAppliesOptionDefaults(testInstance *testing.T) {
	commandExecutor := &scriptedCommandExecutor{}
	service := newServeTestService(testInstance, commandExecutor, zap.NewNop())

	result, serveError := service.Serve(context.Background(), serve.Options{
		ProjectDirectory: testServeProjectDirectoryConstant,
		SkipMigrations:   true,
	})

	require.NoError(testInstance, serveError)
	require.Equal(testInstance, testServeServerAddressConstant, result.ServerAddress)

	serverCommand := commandExecutor.commands[0]
	require.Equal(testInstance, testServeInterpreterConstant, serverCommand.name)
	require.Equal(testInstance, []string{testServeManageScriptConstant, "runserver", testServeServerAddressConstant}, serverCommand.arguments)
}

func TestServiceServeRequiresProjectDirectory(testInstance *testing.T) {
	commandExecutor := &scriptedCommandExecutor{}
	service := newServeTestService(testInstance, commandExecutor, zap.NewNop())

	_, serveError := service.Serve(context.Background(), serve.Options{ProjectDirectory: "   "})

	require.ErrorIs(testInstance, serveError, serve.ErrProjectDirectoryRequired)
	require.Empty(testInstance, commandExecutor.commands)
}

func newServeTestService(testInstance *testing.T, commandExecutor *scriptedCommandExecutor, logger *zap.Logger) *serve.Service {
	testInstance.Helper()

	service, creationError := serve.NewService(serve.Dependencies{
		CommandExecutor:     commandExecutor,
		InterpreterResolver: &staticInterpreterResolver{interpreterPath: testServeInterpreterPathConstant},
		Logger:              logger,
	})
	require.NoError(testInstance, creationError)

	return service
}
