package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	apiBaseURL string
	apiKey     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "loadforge",
	Short: "LoadForge HTTP load-testing CLI",
	Long: `LoadForge drives a load test's worker fleet from the command line
and talks to a running loadforge-server over its control-plane API.

Use this CLI to launch runs from scenario files, watch them live, and
export their results for CI/CD and automated performance testing.`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.loadforge.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api", "http://localhost:8080", "loadforge-server base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "control-plane API key (or LOADFORGE_API_KEY)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("api", rootCmd.PersistentFlags().Lookup("api"))
	viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".loadforge")
	}

	viper.SetEnvPrefix("LOADFORGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetAPIBaseURL returns the configured API base URL
func GetAPIBaseURL() string {
	return viper.GetString("api")
}

// GetAPIKey returns the configured control-plane API key, if any.
func GetAPIKey() string {
	return viper.GetString("api_key")
}

// IsVerbose returns whether verbose output is enabled
func IsVerbose() bool {
	return viper.GetBool("verbose")
}
