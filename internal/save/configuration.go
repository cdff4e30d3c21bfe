package save

import "strings"

const (
	defaultRepositoryPathConstant = "."
	defaultRemoteNameConstant     = "origin"
	defaultBranchNameConstant     = "main"
	repositoryConfigKeySuffix     = ".repository"
	remoteConfigKeySuffix         = ".remote"
	branchConfigKeySuffix         = ".branch"
	failFastConfigKeySuffix       = ".fail_fast"
	debugConfigKeySuffix          = ".debug"
)

// CommandConfiguration captures persisted configuration for the save workflow.
type CommandConfiguration struct {
	RepositoryPath     string `mapstructure:"repository"`
	RemoteName         string `mapstructure:"remote"`
	BranchName         string `mapstructure:"branch"`
	FailFast           bool   `mapstructure:"fail_fast"`
	EnableDebugLogging bool   `mapstructure:"debug"`
}

// DefaultCommandConfiguration returns baseline configuration values for the save workflow.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath: defaultRepositoryPathConstant,
		RemoteName:     defaultRemoteNameConstant,
		BranchName:     defaultBranchNameConstant,
		FailFast:       true,
	}
}

// DefaultConfigurationValues exposes save defaults for registration with the configuration loader.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKeyPrefix + repositoryConfigKeySuffix: defaults.RepositoryPath,
		configurationKeyPrefix + remoteConfigKeySuffix:     defaults.RemoteName,
		configurationKeyPrefix + branchConfigKeySuffix:     defaults.BranchName,
		configurationKeyPrefix + failFastConfigKeySuffix:   defaults.FailFast,
		configurationKeyPrefix + debugConfigKeySuffix:      defaults.EnableDebugLogging,
	}
}

// Sanitize trims configured values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.RepositoryPath = strings.TrimSpace(configuration.RepositoryPath)
	sanitized.RemoteName = strings.TrimSpace(configuration.RemoteName)
	sanitized.BranchName = strings.TrimSpace(configuration.BranchName)

	defaults := DefaultCommandConfiguration()
	if len(sanitized.RepositoryPath) == 0 {
		sanitized.RepositoryPath = defaults.RepositoryPath
	}
	if len(sanitized.RemoteName) == 0 {
		sanitized.RemoteName = defaults.RemoteName
	}
	if len(sanitized.BranchName) == 0 {
		sanitized.BranchName = defaults.BranchName
	}

	return sanitized
}
