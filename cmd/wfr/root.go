package cmd

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	logwriter "github.com/sirupsen/logrus/hooks/writer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/apicurio/workflow-results/pkg"
	"github.com/apicurio/workflow-results/pkg/cmd/adm"
	"github.com/apicurio/workflow-results/pkg/cmd/index"
	"github.com/apicurio/workflow-results/pkg/cmd/publish"
	"github.com/apicurio/workflow-results/pkg/cmd/summary"
	"github.com/apicurio/workflow-results/pkg/version"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wfr",
	Short: "Workflow results dashboard",
	Long:  `wfr builds static HTML dashboards from the test artifacts of the Apicurio Registry QE workflow runs`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error

		// Validate logging level
		loglevel := viper.GetString("log-level")
		logrusLevel, err := log.ParseLevel(loglevel)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)

		// Additional log options
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})

		log.SetOutput(os.Stdout)
		logFile, err := pkg.LogFilePath()
		if err != nil {
			log.Errorf("unable to create log file: %v", err)
			return
		}
		fdLog, err := os.OpenFile(logFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			log.Errorf("error opening file %s: %v", logFile, err)
			return
		}
		log.AddHook(&logwriter.Hook{
			Writer: fdLog,
			LogLevels: []log.Level{
				log.PanicLevel,
				log.FatalLevel,
				log.ErrorLevel,
				log.WarnLevel,
				log.InfoLevel,
				log.DebugLevel,
			},
		})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func initBindFlag(flag string) {
	err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
	if err != nil {
		log.Warnf("Unable to bind flag %s\n", flag)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML) with the default flag values")
	rootCmd.PersistentFlags().String("log-level", "info", "logging level")
	initBindFlag("log-level")

	// Link in child commands
	rootCmd.AddCommand(summary.NewCmdSummary())
	rootCmd.AddCommand(index.NewCmdIndex())
	rootCmd.AddCommand(publish.NewCmdPublish())
	rootCmd.AddCommand(adm.NewCmdAdm())
	rootCmd.AddCommand(version.NewCmdVersion())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix(pkg.ProjectName)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("unable to read config file %s: %v", cfgFile, err)
	}
	log.Debugf("Using config file %s", viper.ConfigFileUsed())
}
