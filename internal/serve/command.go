package serve

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jayray/devflow/internal/execshell"
	"github.com/jayray/devflow/internal/ui"
	"github.com/jayray/devflow/internal/utils"
)

const (
	commandUseConstant                    = "serve"
	commandShortDescriptionConstant       = "Apply pending migrations and start the development server"
	commandLongDescriptionConstant        = "serve verifies the Python interpreter is available, runs manage.py makemigrations and migrate, and starts the development server on the configured address."
	projectDirectoryFlagNameConstant      = "project-dir"
	projectDirectoryFlagUsageConstant     = "Directory containing the manage script"
	pythonInterpreterFlagNameConstant     = "python"
	pythonInterpreterFlagUsageConstant    = "Python interpreter used to run the manage script"
	manageScriptFlagNameConstant          = "manage-script"
	manageScriptFlagUsageConstant         = "Management script invoked for migrations and the server"
	serverHostFlagNameConstant            = "host"
	serverHostFlagUsageConstant           = "Address the development server binds to"
	serverPortFlagNameConstant            = "port"
	serverPortFlagUsageConstant           = "Port the development server listens on"
	skipMigrationsFlagNameConstant        = "skip-migrations"
	skipMigrationsFlagUsageConstant       = "Skip the makemigrations and migrate steps"
	strictMigrationsFlagNameConstant      = "strict"
	strictMigrationsFlagUsageConstant     = "Abort when a migration step fails instead of continuing"
	serveExecutionErrorTemplateConstant   = "serve workflow failed: %w"
	executorCreationErrorTemplateConstant = "unable to construct command executor: %w"
	serveStartedLogMessageConstant        = "Serve workflow starting"
	logFieldServerAddressConstant         = "server_address"
	logFieldInterpreterConstant           = "interpreter"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the serve command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	CommandExecutor              CommandExecutor
	InterpreterResolver          InterpreterResolver
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

type commandOptions struct {
	debugLoggingEnabled bool
	projectDirectory    string
	pythonInterpreter   string
	manageScriptName    string
	serverHost          string
	serverPort          string
	skipMigrations      bool
	strictMigrations    bool
}

// Build constructs the serve command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}

	configuration := builder.resolveConfiguration()
	command.Flags().String(projectDirectoryFlagNameConstant, configuration.ProjectDirectory, projectDirectoryFlagUsageConstant)
	command.Flags().String(pythonInterpreterFlagNameConstant, configuration.PythonInterpreter, pythonInterpreterFlagUsageConstant)
	command.Flags().String(manageScriptFlagNameConstant, configuration.ManageScriptName, manageScriptFlagUsageConstant)
	command.Flags().String(serverHostFlagNameConstant, configuration.ServerHost, serverHostFlagUsageConstant)
	command.Flags().String(serverPortFlagNameConstant, configuration.ServerPort, serverPortFlagUsageConstant)
	command.Flags().Bool(skipMigrationsFlagNameConstant, configuration.SkipMigrations, skipMigrationsFlagUsageConstant)
	command.Flags().Bool(strictMigrationsFlagNameConstant, configuration.StrictMigrations, strictMigrationsFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger(options.debugLoggingEnabled)

	commandExecutor, executorError := builder.resolveCommandExecutor(command, logger)
	if executorError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	service, serviceError := NewService(Dependencies{
		CommandExecutor:     commandExecutor,
		InterpreterResolver: builder.InterpreterResolver,
		Logger:              logger,
	})
	if serviceError != nil {
		return serviceError
	}

	serveOptions := Options{
		ProjectDirectory:  options.projectDirectory,
		PythonInterpreter: options.pythonInterpreter,
		ManageScriptName:  options.manageScriptName,
		ServerHost:        options.serverHost,
		ServerPort:        options.serverPort,
		SkipMigrations:    options.skipMigrations,
		StrictMigrations:  options.strictMigrations,
	}

	logger.Info(
		serveStartedLogMessageConstant,
		zap.String(logFieldServerAddressConstant, serveOptions.ServerHost+":"+serveOptions.ServerPort),
		zap.String(logFieldInterpreterConstant, serveOptions.PythonInterpreter),
	)

	if _, serveError := service.Serve(command.Context(), serveOptions); serveError != nil {
		return fmt.Errorf(serveExecutionErrorTemplateConstant, serveError)
	}

	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	debugEnabled := configuration.EnableDebugLogging
	if command != nil {
		contextAccessor := utils.NewCommandContextAccessor()
		if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
			if strings.EqualFold(logLevel, string(utils.LogLevelDebug)) {
				debugEnabled = true
			}
		}
	}

	projectDirectory, projectDirectoryFlagError := command.Flags().GetString(projectDirectoryFlagNameConstant)
	if projectDirectoryFlagError != nil {
		return commandOptions{}, projectDirectoryFlagError
	}
	pythonInterpreter, pythonFlagError := command.Flags().GetString(pythonInterpreterFlagNameConstant)
	if pythonFlagError != nil {
		return commandOptions{}, pythonFlagError
	}
	manageScriptName, manageScriptFlagError := command.Flags().GetString(manageScriptFlagNameConstant)
	if manageScriptFlagError != nil {
		return commandOptions{}, manageScriptFlagError
	}
	serverHost, serverHostFlagError := command.Flags().GetString(serverHostFlagNameConstant)
	if serverHostFlagError != nil {
		return commandOptions{}, serverHostFlagError
	}
	serverPort, serverPortFlagError := command.Flags().GetString(serverPortFlagNameConstant)
	if serverPortFlagError != nil {
		return commandOptions{}, serverPortFlagError
	}
	skipMigrations, skipMigrationsFlagError := command.Flags().GetBool(skipMigrationsFlagNameConstant)
	if skipMigrationsFlagError != nil {
		return commandOptions{}, skipMigrationsFlagError
	}
	strictMigrations, strictMigrationsFlagError := command.Flags().GetBool(strictMigrationsFlagNameConstant)
	if strictMigrationsFlagError != nil {
		return commandOptions{}, strictMigrationsFlagError
	}

	return commandOptions{
		debugLoggingEnabled: debugEnabled,
		projectDirectory:    strings.TrimSpace(projectDirectory),
		pythonInterpreter:   strings.TrimSpace(pythonInterpreter),
		manageScriptName:    strings.TrimSpace(manageScriptName),
		serverHost:          strings.TrimSpace(serverHost),
		serverPort:          strings.TrimSpace(serverPort),
		skipMigrations:      skipMigrations,
		strictMigrations:    strictMigrations,
	}, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveCommandExecutor(command *cobra.Command, logger *zap.Logger) (CommandExecutor, error) {
	if builder.CommandExecutor != nil {
		return builder.CommandExecutor, nil
	}

	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	if humanReadableLogging && command != nil {
		shellExecutor.SetEventObserver(ui.NewConsoleCommandEventLogger(utils.NewFlushingWriter(command.OutOrStdout())))
	}

	return shellExecutor, nil
}
