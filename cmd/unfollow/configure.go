package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/goccy/go-yaml"
	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/ssh/terminal"
)

// configureCmd represents the configure command
var configureCmd = &cobra.Command{
	Use:     "configure [flags]",
	Aliases: []string{"init"},
	Short:   "Save the tracked account and API credentials",
	Long: `Prompts for the account to track and the application's consumer key,
consumer secret, access token and access token secret, then writes them to
the config file. Secrets are read without echo.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := configPath()
		if err != nil {
			log.WithError(err).Error("error finding config file")
			os.Exit(exitFailure)
		}

		conf, err := readFileConfig(os.Stdin, readSecret)
		if err != nil {
			log.WithError(err).Error("error reading credentials")
			os.Exit(exitFailure)
		}
		conf.Store = viper.GetString("store")

		if err := conf.Save(path); err != nil {
			log.WithError(err).Error("error saving config")
			os.Exit(exitFailure)
		}

		log.Infof("config saved to %s", path)
	},
}

func init() {
	RootCmd.AddCommand(configureCmd)
}

// fileConfig is the on-disk config written by configure
type fileConfig struct {
	Username          string `yaml:"username"`
	ConsumerKey       string `yaml:"consumer_key"`
	ConsumerSecret    string `yaml:"consumer_secret"`
	AccessToken       string `yaml:"access_token"`
	AccessTokenSecret string `yaml:"access_token_secret"`
	Store             string `yaml:"store,omitempty"`
}

// Save saves the config to the given path, readable by the owner only
func (c *fileConfig) Save(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	data, err := yaml.MarshalWithOptions(c, yaml.Indent(4))
	if err != nil {
		f.Close()
		return err
	}

	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err = f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func configPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}

	// Find home directory.
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".unfollow.yaml"), nil
}

func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	data, err := terminal.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readFileConfig(in io.Reader, secret func(prompt string) (string, error)) (*fileConfig, error) {
	reader := bufio.NewReader(in)
	conf := &fileConfig{}

	fmt.Print("Username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("error reading username: %w", err)
	}
	conf.Username = strings.TrimPrefix(strings.TrimSpace(username), "@")

	fmt.Print("Consumer key: ")
	key, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("error reading consumer key: %w", err)
	}
	conf.ConsumerKey = strings.TrimSpace(key)

	prompts := []struct {
		prompt string
		value  *string
	}{
		{"Consumer secret: ", &conf.ConsumerSecret},
		{"Access token: ", &conf.AccessToken},
		{"Access token secret: ", &conf.AccessTokenSecret},
	}
	for _, p := range prompts {
		value, err := secret(p.prompt)
		if err != nil {
			return nil, err
		}
		*p.value = strings.TrimSpace(value)
	}

	return conf, nil
}
