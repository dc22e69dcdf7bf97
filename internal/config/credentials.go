package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ErrMissingEnv marks a required environment variable that could not be resolved.
// It is the only configuration error that stops a run.
var ErrMissingEnv = errors.New("missing required environment variable")

// Credentials authenticate the lacework CLI
type Credentials struct {
	Account   string
	APIKey    string
	APISecret string
}

// cliProfile is one profile section of the CLI's own ~/.lacework.toml
type cliProfile struct {
	Account   string `toml:"account"`
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
}

// LoadCredentials resolves the CLI credentials from LW_ACCOUNT_NAME, LW_API_KEY
// and LW_API_SECRET. Values missing from the environment are looked up in the
// profile named by LW_PROFILE (default "default") of profilePath; an empty
// profilePath disables the fallback.
func LoadCredentials(getenv func(string) string, profilePath string) (Credentials, error) {
	creds := Credentials{
		Account:   getenv("LW_ACCOUNT_NAME"),
		APIKey:    getenv("LW_API_KEY"),
		APISecret: getenv("LW_API_SECRET"),
	}

	if creds.complete() || profilePath == "" {
		return creds, creds.validate()
	}

	profiles := map[string]cliProfile{}
	if _, err := toml.DecodeFile(profilePath, &profiles); err != nil {
		if os.IsNotExist(err) {
			return creds, creds.validate()
		}
		return creds, fmt.Errorf("failed to read CLI profile %s: %w", profilePath, err)
	}

	name := getenv("LW_PROFILE")
	if name == "" {
		name = "default"
	}
	if p, ok := profiles[name]; ok {
		if creds.Account == "" {
			creds.Account = p.Account
		}
		if creds.APIKey == "" {
			creds.APIKey = p.APIKey
		}
		if creds.APISecret == "" {
			creds.APISecret = p.APISecret
		}
	}

	return creds, creds.validate()
}

// DefaultProfilePath returns ~/.lacework.toml, or "" if there is no home directory
func DefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lacework.toml")
}

func (c Credentials) complete() bool {
	return c.Account != "" && c.APIKey != "" && c.APISecret != ""
}

func (c Credentials) validate() error {
	switch {
	case c.Account == "":
		return fmt.Errorf("%w LW_ACCOUNT_NAME", ErrMissingEnv)
	case c.APIKey == "":
		return fmt.Errorf("%w LW_API_KEY", ErrMissingEnv)
	case c.APISecret == "":
		return fmt.Errorf("%w LW_API_SECRET", ErrMissingEnv)
	}
	return nil
}
