/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/ingest"
	"github.com/ademuri/spotify-insights/internal/logging"
)

var cfgFile string
var projectRoot string
var proxyURL string
var kaggleUsername string
var kaggleKey string
var logLevel string
var logFormat string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spotify-insights",
	Short: "Analytics and score prediction for the most streamed Spotify songs of 2024",
	Long: `Downloads the Kaggle dataset, cleans it, trains a track score model and
serves a dashboard with a prediction simulator.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is $HOME/.spotify-insights.yaml)")

	rootCmd.PersistentFlags().StringVarP(
		&projectRoot, "root", "r", ".", "Project root holding data/, models/, reports/ and static/")
	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))

	rootCmd.PersistentFlags().StringVar(
		&proxyURL, "proxy", "", "Proxy URL for the dataset download, e.g. http://127.0.0.1:3128")
	viper.BindPFlag("proxy", rootCmd.PersistentFlags().Lookup("proxy"))

	rootCmd.PersistentFlags().StringVar(&kaggleUsername, "kaggle_username", "", "Kaggle username")
	viper.BindPFlag("kaggle_username", rootCmd.PersistentFlags().Lookup("kaggle_username"))

	rootCmd.PersistentFlags().StringVar(&kaggleKey, "kaggle_key", "", "Kaggle API key")
	viper.BindPFlag("kaggle_key", rootCmd.PersistentFlags().Lookup("kaggle_key"))

	var kaggleBaseURL string
	rootCmd.PersistentFlags().StringVar(&kaggleBaseURL, "kaggle_base_url", ingest.DefaultBaseURL, "Kaggle API base URL")
	rootCmd.PersistentFlags().MarkHidden("kaggle_base_url")
	viper.BindPFlag("kaggle_base_url", rootCmd.PersistentFlags().Lookup("kaggle_base_url"))

	rootCmd.PersistentFlags().StringVar(&logLevel, "log_level", "info", "Log level: debug, info, warn or error")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log_level"))

	rootCmd.PersistentFlags().StringVar(&logFormat, "log_format", "console", "Log format: console or json")
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log_format"))

	viper.BindEnv("kaggle_username", "KAGGLE_USERNAME")
	viper.BindEnv("kaggle_key", "KAGGLE_KEY")
	viper.BindEnv("proxy", "SPOTIFY_INSIGHTS_PROXY")
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".spotify-insights" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".spotify-insights")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// See https://github.com/spf13/viper/pull/852
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			rootCmd.Flags().Set(f.Name, viper.GetString(f.Name))
		}
	})

	logging.Init(logging.Config{
		Level:  viper.GetString("log_level"),
		Format: viper.GetString("log_format"),
	})
}

// loadConfig assembles the runtime configuration from viper.
func loadConfig() config.Config {
	return config.Config{
		Root:          viper.GetString("root"),
		Proxy:         viper.GetString("proxy"),
		KaggleUser:    viper.GetString("kaggle_username"),
		KaggleKey:     viper.GetString("kaggle_key"),
		KaggleBaseURL: viper.GetString("kaggle_base_url"),
		Listen:        viper.GetString("listen"),
		PredictRate:   viper.GetFloat64("predict_rate"),
		LogLevel:      viper.GetString("log_level"),
		LogFormat:     viper.GetString("log_format"),
	}
}
