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
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/ingest"
	"github.com/ademuri/spotify-insights/internal/logging"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Downloads the raw dataset from Kaggle",
	Long: `Fetches the dataset archive, unpacks it into data/raw and renames the CSV
to its canonical name. Does nothing when the raw file already exists.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDownload(cmd.Context(), loadConfig()); err != nil {
			logging.Error().Err(err).Msg("an error occurred during download")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(ctx context.Context, cfg config.Config) error {
	paths := cfg.Paths()
	if err := paths.Ensure(); err != nil {
		return err
	}

	ingester, err := newIngester(cfg, paths)
	if err != nil {
		return err
	}
	return ingester.Ingest(ctx)
}

func newIngester(cfg config.Config, paths config.Paths) (*ingest.Ingester, error) {
	logger := logging.WithComponent("ingest")

	credPath, err := ingest.DefaultCredentialsPath()
	if err != nil {
		return nil, fmt.Errorf("locating kaggle.json: %w", err)
	}
	creds, credErr := ingest.LoadCredentials(cfg.KaggleUser, cfg.KaggleKey, credPath)

	httpClient, err := ingest.NewHTTPClient(cfg.Proxy)
	if err != nil {
		return nil, err
	}
	if cfg.Proxy != "" {
		logger.Info().Str("proxy", cfg.Proxy).Msg("using proxy for download")
	}

	return &ingest.Ingester{
		Client: &credentialedClient{
			client: &ingest.Client{
				HTTP:        httpClient,
				BaseURL:     cfg.KaggleBaseURL,
				Credentials: creds,
				Progress:    os.Stderr,
			},
			err: credErr,
		},
		DatasetID: config.DatasetID,
		RawDir:    paths.RawDir,
		RawFile:   paths.RawFile(),
		Logger:    logger,
	}, nil
}

// credentialedClient defers a credential error until a download is attempted,
// so an existing raw file never needs credentials.
type credentialedClient struct {
	client *ingest.Client
	err    error
}

func (c *credentialedClient) Download(ctx context.Context, dataset string, w io.Writer) error {
	if c.err != nil {
		return c.err
	}
	return c.client.Download(ctx, dataset, w)
}
