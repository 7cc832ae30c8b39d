package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/mitchellh/go-homedir"
)

var ErrNoCredentials = errors.New("no Kaggle credentials: set KAGGLE_USERNAME and KAGGLE_KEY or create ~/.kaggle/kaggle.json")

type Credentials struct {
	Username string `json:"username"`
	Key      string `json:"key"`
}

// DefaultCredentialsPath is kaggle.json under KAGGLE_CONFIG_DIR, or ~/.kaggle.
func DefaultCredentialsPath() (string, error) {
	if dir := os.Getenv("KAGGLE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "kaggle.json"), nil
	}
	return homedir.Expand("~/.kaggle/kaggle.json")
}

// LoadCredentials prefers explicit values and falls back to the JSON file
// at path.
func LoadCredentials(username, key, path string) (Credentials, error) {
	if username != "" && key != "" {
		return Credentials{Username: username, Key: key}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if c.Username == "" || c.Key == "" {
		return Credentials{}, ErrNoCredentials
	}
	return c, nil
}
