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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-insights/internal/logging"
	"github.com/ademuri/spotify-insights/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the dashboard and simulator",
	Long: `Loads the cleaned dataset and the trained model once and serves the web
dashboard. Pages that need a missing artifact answer with an error.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := logging.WithComponent("server")

		app, err := server.LoadApp(cfg.Paths(), cfg.PredictRate, logger)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if err := server.Run(cmd.Context(), cfg.Listen, server.NewRouter(app), logger); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	var listen string
	serveCmd.Flags().StringVar(&listen, "listen", ":5001", "Address to listen on")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))

	var predictRate float64
	serveCmd.Flags().Float64Var(&predictRate, "predict_rate", 5, "Predictions allowed per second, 0 for no limit")
	viper.BindPFlag("predict_rate", serveCmd.Flags().Lookup("predict_rate"))
}
