// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/paratii/configuration"
	"github.com/bitmark-inc/paratii/content"
	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/index"
	"github.com/bitmark-inc/paratii/ipfs"
	"github.com/bitmark-inc/paratii/pin"
	"github.com/bitmark-inc/paratii/protocol"
	"github.com/bitmark-inc/paratii/util"
)

const stopTimeout = 10 * time.Second

// setup command handler
//
// commands that do not need the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "run"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "generate-identity", "id":
		key, err := util.MakeEd25519PeerKey()
		if nil != err {
			exitwithstatus.Message("generate private key error: %s", err)
		}
		if 0 == len(arguments) {
			fmt.Printf("%s\n", key)
			return true
		}

		fileName := arguments[0]
		if util.EnsureFileExists(fileName) {
			exitwithstatus.Message("generate private key: %q error: %s", fileName, fault.ErrAlreadyInitialised)
		}
		if err := ioutil.WriteFile(fileName, []byte(key+"\n"), 0600); nil != err {
			_ = os.Remove(fileName)
			exitwithstatus.Message("generate private key: %q error: %s", fileName, err)
		}
		fmt.Printf("generated private key: %q\n", fileName)
		return true

	case "run", "start", "pinner", "add-json", "get-json", "add-and-pin", "user", "video", "search", "config-test", "cfg":
		return false // needs the configuration

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		failed := true
		switch command {
		case "help", "h", "?":
			failed = false
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] --config-file=FILE [--timeout=DURATION] [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version string\n\n")

		fmt.Printf("  generate-identity [FILE]   (id)     - create a hex encoded node private key\n")
		fmt.Printf("                                        written to FILE or printed\n")
		fmt.Printf("\n")

		fmt.Printf("  run                        (start)  - start the node and log incoming commands\n")
		fmt.Printf("                                        same as no arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  pinner                              - run as a pinning service for other nodes\n")
		fmt.Printf("\n")

		fmt.Printf("  add-json FILE                       - store a JSON document, print its identifier\n")
		fmt.Printf("\n")

		fmt.Printf("  get-json CID                        - print a stored JSON document\n")
		fmt.Printf("\n")

		fmt.Printf("  add-and-pin FILE                    - store a JSON document and wait until it is pinned\n")
		fmt.Printf("                                        on the configured pinner, bounded by --timeout\n")
		fmt.Printf("\n")

		fmt.Printf("  user ID                             - print a user record from the index\n")
		fmt.Printf("  video ID                            - print a video record from the index\n")
		fmt.Printf("  search KEYWORD [OWNER]              - search the index for videos\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		if failed {
			exitwithstatus.Exit(1)
		}
	}
	return true
}

// configuration command handler
func processConfigCommand(log *logger.L, arguments []string, options *configuration.Configuration, wait time.Duration) {

	command := "run"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "config-test", "cfg":
		fmt.Printf("configuration: %q is valid\n", options.DataDirectory)

	case "run", "start":
		serve(log, options, options.Pin.Serve)

	case "pinner":
		serve(log, options, true)

	case "add-json":
		if 1 != len(arguments) {
			exitwithstatus.Message("add-json: requires a single FILE argument")
		}
		v := readJSON(arguments[0])

		i := open(log, options, false)
		defer closeFacade(log, i)

		id, err := i.AddJSON(context.Background(), v)
		if nil != err {
			exitwithstatus.Message("add-json: error: %s", err)
		}
		fmt.Printf("%s\n", id)

	case "get-json":
		if 1 != len(arguments) {
			exitwithstatus.Message("get-json: requires a single CID argument")
		}
		id, err := content.Parse(arguments[0])
		if nil != err {
			exitwithstatus.Message("get-json: %q error: %s", arguments[0], err)
		}

		i := open(log, options, false)
		defer closeFacade(log, i)

		var v interface{}
		if err := i.GetJSON(context.Background(), id, &v); nil != err {
			exitwithstatus.Message("get-json: %s error: %s", id, err)
		}
		printJSON(v)

	case "add-and-pin":
		if 1 != len(arguments) {
			exitwithstatus.Message("add-and-pin: requires a single FILE argument")
		}
		v := readJSON(arguments[0])

		i := open(log, options, false)
		defer closeFacade(log, i)

		go func() {
			for w := range i.Warnings() {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()

		id, err := i.AddAndPinJSON(ctx, v)
		if nil != err {
			if id.Defined() {
				exitwithstatus.Message("add-and-pin: stored as: %s  pin error: %s", id, err)
			}
			exitwithstatus.Message("add-and-pin: error: %s", err)
		}
		fmt.Printf("%s\n", id)

	case "user", "video":
		if 1 != len(arguments) {
			exitwithstatus.Message("%s: requires a single ID argument", command)
		}
		idx := openIndex(log, options)
		ctx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()

		var record index.Record
		var err error
		if "user" == command {
			record, err = idx.GetUser(ctx, arguments[0])
		} else {
			record, err = idx.GetVideo(ctx, arguments[0])
		}
		if nil != err {
			exitwithstatus.Message("%s: %q error: %s", command, arguments[0], err)
		}
		printJSON(record)

	case "search":
		if 0 == len(arguments) || len(arguments) > 2 {
			exitwithstatus.Message("search: requires KEYWORD and optional OWNER arguments")
		}
		query := index.Query{
			Keyword: arguments[0],
		}
		if 2 == len(arguments) {
			query.Owner = arguments[1]
		}
		idx := openIndex(log, options)
		ctx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()

		result, err := idx.SearchVideos(ctx, query)
		if nil != err {
			exitwithstatus.Message("search: error: %s", err)
		}
		printJSON(result)

	default:
		exitwithstatus.Message("no such command: %q", command)
	}
}

func openIndex(log *logger.L, options *configuration.Configuration) *index.Client {
	idx, err := index.New(options.Index, logger.New("index"))
	if nil != err {
		log.Criticalf("index setup error: %s", err)
		exitwithstatus.Message("index setup error: %s", err)
	}
	return idx
}

func open(log *logger.L, options *configuration.Configuration, server bool) *ipfs.IPFS {
	attemptTimeout, _ := configuration.Duration(options.Pin.AttemptTimeout, pin.DefaultAttemptTimeout)
	blockTimeout, _ := configuration.Duration(options.Pin.BlockTimeout, pin.DefaultBlockTimeout)

	i, err := ipfs.New(ipfs.Configuration{
		Node:         options.IPFS,
		Author:       options.Account.Address,
		Serve:        server,
		PinTimeout:   attemptTimeout,
		BlockTimeout: blockTimeout,
	}, logger.New("ipfs"))
	if nil != err {
		log.Criticalf("ipfs setup error: %s", err)
		exitwithstatus.Message("ipfs setup error: %s", err)
	}
	return i
}

func closeFacade(log *logger.L, i *ipfs.IPFS) {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := i.Close(ctx); nil != err {
		log.Errorf("stop error: %s", err)
	}
}

// start the node and wait for a signal
func serve(log *logger.L, options *configuration.Configuration, server bool) {
	i := open(log, options, server)
	defer closeFacade(log, i)

	unsubscribe := i.Subscribe(func(event protocol.PeerEvent) {
		log.Infof("received: %s", event)
	})
	defer unsubscribe()

	if err := i.Start(context.Background()); nil != err {
		log.Criticalf("start error: %s", err)
		exitwithstatus.Message("start error: %s", err)
	}

	addresses, err := i.Addresses(context.Background())
	if nil == err {
		for _, a := range addresses {
			log.Infof("listening on: %s", a)
			fmt.Printf("listening on: %s\n", a)
		}
	}
	if server {
		log.Info("serving pin requests")
	}

	// wait for CTRL-C SIGINT or SIGTERM
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	log.Info("shutting down…")
}

func readJSON(fileName string) interface{} {
	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		exitwithstatus.Message("read: %q error: %s", fileName, err)
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); nil != err {
		exitwithstatus.Message("read: %q is not JSON: %s", fileName, err)
	}
	return v
}

func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if nil != err {
		exitwithstatus.Message("print JSON error: %s", err)
	}
	fmt.Printf("%s\n", b)
}
