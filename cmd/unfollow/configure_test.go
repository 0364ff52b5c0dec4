package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileConfig(t *testing.T) {
	secrets := map[string]string{
		"Consumer secret: ":     "csecret",
		"Access token: ":        "atoken ",
		"Access token secret: ": "asecret",
	}
	secret := func(prompt string) (string, error) {
		return secrets[prompt], nil
	}

	conf, err := readFileConfig(strings.NewReader("@prologic\nckey\n"), secret)
	require.NoError(t, err)
	assert.Equal(t, &fileConfig{
		Username:          "prologic",
		ConsumerKey:       "ckey",
		ConsumerSecret:    "csecret",
		AccessToken:       "atoken",
		AccessTokenSecret: "asecret",
	}, conf)
}

func TestFileConfig_Save(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".unfollow.yaml")
	conf := &fileConfig{
		Username:          "prologic",
		ConsumerKey:       "ckey",
		ConsumerSecret:    "csecret",
		AccessToken:       "atoken",
		AccessTokenSecret: "asecret",
		Store:             "json://./data",
	}
	require.NoError(t, conf.Save(path))

	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), stat.Mode().Perm())

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)

	var loaded fileConfig
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, *conf, loaded)
}
