package save

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jayray/devflow/internal/execshell"
	"github.com/jayray/devflow/internal/gitrepo"
	"github.com/jayray/devflow/internal/ui"
	"github.com/jayray/devflow/internal/utils"
)

const (
	commandUseConstant                     = "save"
	commandShortDescriptionConstant        = "Stage, commit, and push all pending changes"
	commandLongDescriptionConstant         = "save stages every pending change, commits it with the provided message, and pushes the branch to the configured remote."
	repositoryFlagNameConstant             = "repository"
	repositoryFlagUsageConstant            = "Path to the git repository to operate on"
	messageFlagNameConstant                = "message"
	messageFlagShorthandConstant           = "m"
	messageFlagUsageConstant               = "Commit message; prompted interactively when omitted"
	remoteFlagNameConstant                 = "remote"
	remoteFlagUsageConstant                = "Remote to push to"
	branchFlagNameConstant                 = "branch"
	branchFlagUsageConstant                = "Branch to push"
	failFastFlagNameConstant               = "fail-fast"
	failFastFlagUsageConstant              = "Abort on the first failed step instead of reporting failures at the end"
	saveExecutionErrorTemplateConstant     = "save workflow failed: %w"
	repositoryManagerCreationErrorTemplate = "unable to construct repository manager: %w"
	saveSuccessMessageTemplateConstant     = "SAVED: %s (%s/%s)\n"
	saveCompletedLogMessageConstant        = "Save workflow completed"
	logFieldRepositoryPathConstant         = "repository"
	logFieldRemoteNameConstant             = "remote"
	logFieldBranchNameConstant             = "branch"
	logFieldCommitCreatedConstant          = "commit_created"
	logFieldPushedConstant                 = "pushed"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the save command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  gitrepo.GitExecutor
	RepositoryManager            GitRepositoryManager
	Prompter                     CommitMessagePrompter
	TerminalChecker              func() bool
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

type commandOptions struct {
	debugLoggingEnabled bool
	repositoryPath      string
	commitMessage       string
	remoteName          string
	branchName          string
	failFast            bool
}

// Build constructs the save command.
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
	command.Flags().String(repositoryFlagNameConstant, configuration.RepositoryPath, repositoryFlagUsageConstant)
	command.Flags().StringP(messageFlagNameConstant, messageFlagShorthandConstant, "", messageFlagUsageConstant)
	command.Flags().String(remoteFlagNameConstant, configuration.RemoteName, remoteFlagUsageConstant)
	command.Flags().String(branchFlagNameConstant, configuration.BranchName, branchFlagUsageConstant)
	command.Flags().Bool(failFastFlagNameConstant, configuration.FailFast, failFastFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger(options.debugLoggingEnabled)

	repositoryManager, managerError := builder.resolveRepositoryManager(command, logger)
	if managerError != nil {
		return fmt.Errorf(repositoryManagerCreationErrorTemplate, managerError)
	}

	service, serviceError := NewService(Dependencies{
		RepositoryManager:     repositoryManager,
		CommitMessagePrompter: builder.resolveCommitMessagePrompter(command),
	})
	if serviceError != nil {
		return serviceError
	}

	result, saveError := service.Save(command.Context(), Options{
		RepositoryPath: options.repositoryPath,
		CommitMessage:  options.commitMessage,
		RemoteName:     options.remoteName,
		BranchName:     options.branchName,
		FailFast:       options.failFast,
	})
	if saveError != nil {
		return fmt.Errorf(saveExecutionErrorTemplateConstant, saveError)
	}

	logger.Info(
		saveCompletedLogMessageConstant,
		zap.String(logFieldRepositoryPathConstant, result.RepositoryPath),
		zap.String(logFieldRemoteNameConstant, result.RemoteName),
		zap.String(logFieldBranchNameConstant, result.BranchName),
		zap.Bool(logFieldCommitCreatedConstant, result.CommitCreated),
		zap.Bool(logFieldPushedConstant, result.Pushed),
	)

	fmt.Fprintf(command.OutOrStdout(), saveSuccessMessageTemplateConstant, result.RepositoryPath, result.RemoteName, result.BranchName)

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

	repositoryPath, repositoryFlagError := command.Flags().GetString(repositoryFlagNameConstant)
	if repositoryFlagError != nil {
		return commandOptions{}, repositoryFlagError
	}
	commitMessage, messageFlagError := command.Flags().GetString(messageFlagNameConstant)
	if messageFlagError != nil {
		return commandOptions{}, messageFlagError
	}
	remoteName, remoteFlagError := command.Flags().GetString(remoteFlagNameConstant)
	if remoteFlagError != nil {
		return commandOptions{}, remoteFlagError
	}
	branchName, branchFlagError := command.Flags().GetString(branchFlagNameConstant)
	if branchFlagError != nil {
		return commandOptions{}, branchFlagError
	}
	failFast, failFastFlagError := command.Flags().GetBool(failFastFlagNameConstant)
	if failFastFlagError != nil {
		return commandOptions{}, failFastFlagError
	}

	return commandOptions{
		debugLoggingEnabled: debugEnabled,
		repositoryPath:      strings.TrimSpace(repositoryPath),
		commitMessage:       strings.TrimSpace(commitMessage),
		remoteName:          strings.TrimSpace(remoteName),
		branchName:          strings.TrimSpace(branchName),
		failFast:            failFast,
	}, nil
}

// resolveCommitMessagePrompter yields the interactive prompter backing the
// save workflow, or nil when standard input is not a terminal.
func (builder *CommandBuilder) resolveCommitMessagePrompter(command *cobra.Command) CommitMessagePrompter {
	if builder.Prompter != nil {
		return builder.Prompter
	}
	if !builder.standardInputIsTerminal() {
		return nil
	}
	return NewIOCommitMessagePrompter(command.InOrStdin(), command.OutOrStdout())
}

func (builder *CommandBuilder) standardInputIsTerminal() bool {
	if builder.TerminalChecker != nil {
		return builder.TerminalChecker()
	}
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
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

func (builder *CommandBuilder) resolveRepositoryManager(command *cobra.Command, logger *zap.Logger) (GitRepositoryManager, error) {
	if builder.RepositoryManager != nil {
		return builder.RepositoryManager, nil
	}

	gitExecutor := builder.GitExecutor
	if gitExecutor == nil {
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
		gitExecutor = shellExecutor
	}

	return gitrepo.NewRepositoryManager(gitExecutor)
}
