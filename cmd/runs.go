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
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-insights/internal/config"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Lists recorded training runs",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRuns(os.Stdout, loadConfig(), viper.GetInt("runs_limit")); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	var limit int
	runsCmd.Flags().IntVar(&limit, "limit", 20, "Number of most recent runs to show, 0 for all")
	viper.BindPFlag("runs_limit", runsCmd.Flags().Lookup("limit"))
}

func runRuns(out io.Writer, cfg config.Config, limit int) error {
	db, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return printAnalyses(out, db, []Analyser{trainingRunsAnalyser{numToReturn: limit}})
}
