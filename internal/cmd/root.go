package cmd

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/tandem/internal/config"
	"github.com/Iron-Ham/tandem/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "tandem",
	Short: "Open several documents together and close them together",
	Long: `Tandem opens a set of related documents, one editor instance each,
and attaches a shared close command to every one of them. Picking the
command in any document closes all of them. Tandem exits once no document
is left open in the tool.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.config/tandem/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/tandem")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TANDEM")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TANDEM_LOGGING_LEVEL for logging.level
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// watchConfig reloads the config file on change and applies the new log
// level. Other settings only take effect on the next run.
func watchConfig(logger *logging.Logger) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		applyConfigChange(logger, e)
	})
	viper.WatchConfig()
}

func applyConfigChange(logger *logging.Logger, e fsnotify.Event) {
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("ignoring invalid config change", "file", e.Name, "error", err.Error())
		return
	}
	if cfg.Logging.Level != "" && logging.ParseLevel(cfg.Logging.Level) != logger.Level() {
		logger.SetLevel(cfg.Logging.Level)
		logger.Info("log level changed", "file", e.Name, "level", logger.Level())
	}
}
