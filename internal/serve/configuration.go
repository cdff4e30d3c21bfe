package serve

import "strings"

const (
	defaultProjectDirectoryConstant  = "."
	defaultPythonInterpreterConstant = "python3"
	defaultManageScriptNameConstant  = "manage.py"
	defaultServerHostConstant        = "0.0.0.0"
	defaultServerPortConstant        = "8000"
	projectDirectoryConfigKeySuffix  = ".project_dir"
	pythonInterpreterConfigKeySuffix = ".python"
	manageScriptConfigKeySuffix      = ".manage_script"
	serverHostConfigKeySuffix        = ".host"
	serverPortConfigKeySuffix        = ".port"
	skipMigrationsConfigKeySuffix    = ".skip_migrations"
	strictMigrationsConfigKeySuffix  = ".strict"
	debugConfigKeySuffix             = ".debug"
)

// CommandConfiguration captures persisted configuration for the serve workflow.
type CommandConfiguration struct {
	ProjectDirectory   string `mapstructure:"project_dir"`
	PythonInterpreter  string `mapstructure:"python"`
	ManageScriptName   string `mapstructure:"manage_script"`
	ServerHost         string `mapstructure:"host"`
	ServerPort         string `mapstructure:"port"`
	SkipMigrations     bool   `mapstructure:"skip_migrations"`
	StrictMigrations   bool   `mapstructure:"strict"`
	EnableDebugLogging bool   `mapstructure:"debug"`
}

// DefaultCommandConfiguration returns baseline configuration values for the serve workflow.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		ProjectDirectory:  defaultProjectDirectoryConstant,
		PythonInterpreter: defaultPythonInterpreterConstant,
		ManageScriptName:  defaultManageScriptNameConstant,
		ServerHost:        defaultServerHostConstant,
		ServerPort:        defaultServerPortConstant,
	}
}

// DefaultConfigurationValues exposes serve defaults for registration with the configuration loader.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKeyPrefix + projectDirectoryConfigKeySuffix:  defaults.ProjectDirectory,
		configurationKeyPrefix + pythonInterpreterConfigKeySuffix: defaults.PythonInterpreter,
		configurationKeyPrefix + manageScriptConfigKeySuffix:      defaults.ManageScriptName,
		configurationKeyPrefix + serverHostConfigKeySuffix:        defaults.ServerHost,
		configurationKeyPrefix + serverPortConfigKeySuffix:        defaults.ServerPort,
		configurationKeyPrefix + skipMigrationsConfigKeySuffix:    defaults.SkipMigrations,
		configurationKeyPrefix + strictMigrationsConfigKeySuffix:  defaults.StrictMigrations,
		configurationKeyPrefix + debugConfigKeySuffix:             defaults.EnableDebugLogging,
	}
}

// Sanitize trims configured values and restores defaults for empty entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.ProjectDirectory = strings.TrimSpace(configuration.ProjectDirectory)
	sanitized.PythonInterpreter = strings.TrimSpace(configuration.PythonInterpreter)
	sanitized.ManageScriptName = strings.TrimSpace(configuration.ManageScriptName)
	sanitized.ServerHost = strings.TrimSpace(configuration.ServerHost)
	sanitized.ServerPort = strings.TrimSpace(configuration.ServerPort)

	defaults := DefaultCommandConfiguration()
	if len(sanitized.ProjectDirectory) == 0 {
		sanitized.ProjectDirectory = defaults.ProjectDirectory
	}
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
