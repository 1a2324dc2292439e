// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/paratii/configuration"
	"github.com/bitmark-inc/paratii/fault"
)

const sample = `
local address = "0xabc"
return {
  data_directory = ".",
  verbose = true,
  ipfs = {
    repo = "blocks",
    swarm = { "/ip4/127.0.0.1/tcp/4001" },
    bootstrap = { "/ip4/127.0.0.1/tcp/4002/p2p/QmYyQSo1c1Ym7orWxLYvCrM2EmxFTANf8wXmmE7DWjhx5N" },
    pinner = "/ip4/127.0.0.1/tcp/4002/p2p/QmYyQSo1c1Ym7orWxLYvCrM2EmxFTANf8wXmmE7DWjhx5N",
    max_message_size = 4096,
    connections = { low = 2, high = 8, grace = "5s" },
  },
  account = { address = address },
  pin = { serve = true, attempt_timeout = "1m", block_timeout = "20s" },
  index = { url = "http://localhost:3000/api/v1/", timeout = "5s", cache = "1m" },
  logging = {
    directory = "log",
    file = "node.log",
    size = 1024,
    count = 3,
    levels = { DEFAULT = "debug" },
  },
}
`

func writeConfiguration(t *testing.T, text string) (string, func()) {
	directory, err := ioutil.TempDir("", "paratii-configuration")
	if nil != err {
		t.Fatalf("temporary directory error: %s", err)
	}
	fileName := filepath.Join(directory, "paratii.conf")
	if err := ioutil.WriteFile(fileName, []byte(text), 0600); nil != err {
		t.Fatalf("write error: %s", err)
	}
	return fileName, func() {
		_ = os.RemoveAll(directory)
	}
}

func TestGetConfiguration(t *testing.T) {
	fileName, remove := writeConfiguration(t, sample)
	defer remove()

	c, err := configuration.GetConfiguration(fileName)
	if !assert.Nil(t, err, "get configuration") {
		return
	}

	directory, _ := filepath.Split(fileName)
	assert.Equal(t, directory, c.DataDirectory, "data directory")
	assert.Equal(t, filepath.Join(directory, "blocks"), c.IPFS.Repo, "repo")
	assert.Equal(t, []string{"/ip4/127.0.0.1/tcp/4001"}, c.IPFS.Swarm, "swarm")
	assert.Equal(t, 1, len(c.IPFS.Bootstrap), "bootstrap")
	assert.Equal(t, 4096, c.IPFS.MaxMessageSize, "max message size")
	assert.Equal(t, 8, c.IPFS.Connections.High, "connections high")
	assert.Equal(t, 5*time.Second, c.IPFS.Connections.GraceDuration(), "grace")
	assert.Equal(t, "0xabc", c.Account.Address, "address")
	assert.Equal(t, "0xabc", c.IPFS.Identity, "identity from account")
	assert.True(t, c.Pin.Serve, "serve")
	assert.Equal(t, "http://localhost:3000/api/v1/", c.Index.URL, "index url")
	assert.Equal(t, filepath.Join(directory, "log"), c.Logging.Directory, "log directory")
	assert.Equal(t, "node.log", c.Logging.File, "log file")
	assert.True(t, c.Logging.Console, "verbose enables console")

	info, err := os.Stat(c.Logging.Directory)
	assert.Nil(t, err, "log directory created")
	assert.True(t, info.IsDir(), "log directory is a directory")
}

func TestGetConfigurationDefaults(t *testing.T) {
	fileName, remove := writeConfiguration(t, `return { data_directory = "." }`)
	defer remove()

	c, err := configuration.GetConfiguration(fileName)
	if !assert.Nil(t, err, "get configuration") {
		return
	}

	directory, _ := filepath.Split(fileName)
	assert.Equal(t, filepath.Join(directory, "ipfs-repo"), c.IPFS.Repo, "default repo")
	assert.Equal(t, "paratii.log", c.Logging.File, "default log file")
	assert.Equal(t, "", c.IPFS.Identity, "no account")
	assert.False(t, c.Logging.Console, "quiet")
}

func TestGetConfigurationErrors(t *testing.T) {
	items := []struct {
		text  string
		fault error
	}{
		{`return { data_directory = "" }`, fault.ErrInvalidDirectory},
		{`return { data_directory = "~" }`, fault.ErrInvalidDirectory},
		{`return 42`, fault.ErrConfigurationNotTable},
		{`return { data_directory = ".", logging = { file = "a/b.log" } }`, fault.ErrNotPlainFileName},
		{`return { data_directory = ".", pin = { attempt_timeout = "soon" } }`, fault.ErrInvalidDuration},
		{`return { data_directory = ".", index = { cache = "-1s" } }`, fault.ErrInvalidDuration},
	}

	for i, item := range items {
		fileName, remove := writeConfiguration(t, item.text)
		_, err := configuration.GetConfiguration(fileName)
		remove()
		assert.True(t, errors.Is(err, item.fault), "%d: expected %s got %v", i, item.fault, err)
	}
}

func TestGetConfigurationMissingDirectory(t *testing.T) {
	fileName, remove := writeConfiguration(t, `return { data_directory = "does-not-exist" }`)
	defer remove()

	_, err := configuration.GetConfiguration(fileName)
	assert.True(t, os.IsNotExist(err), "missing directory")
}

func TestGetConfigurationSyntaxError(t *testing.T) {
	fileName, remove := writeConfiguration(t, `return {`)
	defer remove()

	_, err := configuration.GetConfiguration(fileName)
	assert.NotNil(t, err, "syntax error")
}

func TestDuration(t *testing.T) {
	d, err := configuration.Duration("", time.Minute)
	assert.Nil(t, err, "blank")
	assert.Equal(t, time.Minute, d, "fallback")

	d, err = configuration.Duration("90s", time.Minute)
	assert.Nil(t, err, "valid")
	assert.Equal(t, 90*time.Second, d, "parsed")

	_, err = configuration.Duration("0s", time.Minute)
	assert.True(t, errors.Is(err, fault.ErrInvalidDuration), "zero")
}
