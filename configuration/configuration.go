// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/index"
	"github.com/bitmark-inc/paratii/node"
	"github.com/bitmark-inc/paratii/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultRepo = "ipfs-repo"

	defaultLogDirectory = "log"
	defaultLogFile      = "paratii.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		"main":            "info",
		logger.DefaultTag: "critical",
	}
)

// AccountConfiguration - identity used to tag protocol messages and pin requests
type AccountConfiguration struct {
	Address string `gluamapper:"address" json:"address"`
}

// PinConfiguration - pinning timeouts and pinner mode
type PinConfiguration struct {
	Serve          bool   `gluamapper:"serve" json:"serve"`
	AttemptTimeout string `gluamapper:"attempt_timeout" json:"attempt_timeout"`
	BlockTimeout   string `gluamapper:"block_timeout" json:"block_timeout"`
}

// Configuration - the whole configuration file
type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory" json:"data_directory"`
	Verbose       bool                 `gluamapper:"verbose" json:"verbose"`
	IPFS          node.Configuration   `gluamapper:"ipfs" json:"ipfs"`
	Account       AccountConfiguration `gluamapper:"account" json:"account"`
	Pin           PinConfiguration     `gluamapper:"pin" json:"pin"`
	Index         index.Configuration  `gluamapper:"index" json:"index"`
	Logging       logger.Configuration `gluamapper:"logging" json:"logging"`
}

// GetConfiguration - read, decode and verify the configuration
func GetConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{
		DataDirectory: defaultDataDirectory,

		IPFS: node.Configuration{
			Repo: defaultRepo,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fault.Join(fault.ErrInvalidDirectory, quoted(options.DataDirectory))
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(util.EnsureAbsolute(dataDirectory, options.DataDirectory))
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fault.Join(fault.ErrInvalidDirectory, quoted(options.DataDirectory))
	}

	// log file must be a plain name inside the log directory
	switch filepath.Dir(options.Logging.File) {
	case "", ".":
	default:
		return nil, fault.Join(fault.ErrNotPlainFileName, quoted(options.Logging.File))
	}

	// an empty repo keeps blocks in memory
	if "" != options.IPFS.Repo {
		options.IPFS.Repo = util.EnsureAbsolute(options.DataDirectory, options.IPFS.Repo)
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Logging.Directory,
	} {
		*d = util.EnsureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	for _, s := range []string{
		options.IPFS.Connections.Grace,
		options.Pin.AttemptTimeout,
		options.Pin.BlockTimeout,
		options.Index.Timeout,
		options.Index.Cache,
	} {
		if _, err := Duration(s, 0); nil != err {
			return nil, err
		}
	}

	if options.Verbose {
		options.Logging.Console = true
	}

	// protocol messages carry the account address
	options.IPFS.Identity = options.Account.Address

	// done
	return options, nil
}

// Duration - parse an optional duration, blank gives the fallback
func Duration(s string, fallback time.Duration) (time.Duration, error) {
	if "" == s {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if nil != err {
		return 0, fault.Join(fault.ErrInvalidDuration, err)
	}
	if d <= 0 {
		return 0, fault.Join(fault.ErrInvalidDuration, quoted(s))
	}
	return d, nil
}

// quoted value as an error cause
type quoted string

func (p quoted) Error() string {
	return strconv.Quote(string(p))
}
