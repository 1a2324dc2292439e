// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package index - read access to the searchable index of users and videos
package index

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	cache "github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/util"
)

// defaults
const (
	DefaultURL     = "https://db.paratii.video/api/v1/"
	defaultTimeout = 10 * time.Second
	defaultCache   = 2 * time.Minute
)

// Configuration - index server settings
type Configuration struct {
	URL     string `gluamapper:"url" json:"url"`
	Timeout string `gluamapper:"timeout" json:"timeout"`
	Cache   string `gluamapper:"cache" json:"cache"`
}

// Record - an index entry as returned by the server
type Record map[string]interface{}

// String - value of a string field, empty if missing
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Query - video search parameters
type Query struct {
	Keyword string
	Owner   string
}

// SearchResult - one page of search results
type SearchResult struct {
	Results []Record `json:"results"`
	Total   int      `json:"total"`
}

// Client - index client with a read-through cache
type Client struct {
	log     *logger.L
	baseURL string
	http    *http.Client
	cache   *cache.Cache
}

// New - create an index client
func New(configuration Configuration, log *logger.L) (*Client, error) {
	if nil == log {
		log = logger.New("index")
	}

	base := configuration.URL
	if "" == base {
		base = DefaultURL
	}
	if _, err := url.Parse(base); nil != err {
		return nil, fault.Join(fault.ErrInvalidAddress, err)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	timeout := duration(configuration.Timeout, defaultTimeout)
	expiry := duration(configuration.Cache, defaultCache)

	log.Infof("index: %s  timeout: %s  cache: %s", base, timeout, expiry)
	return &Client{
		log:     log,
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		cache: cache.New(expiry, 2*expiry),
	}, nil
}

func duration(s string, fallback time.Duration) time.Duration {
	if "" == s {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if nil != err || d <= 0 {
		return fallback
	}
	return d
}

// GetUser - fetch a user record
func (c *Client) GetUser(ctx context.Context, id string) (Record, error) {
	if "" == id {
		return nil, fault.ErrMissingIdentifier
	}
	record := Record{}
	err := c.fetch(ctx, "users/"+url.PathEscape(id), &record)
	return record, err
}

// GetVideo - fetch a video record
func (c *Client) GetVideo(ctx context.Context, id string) (Record, error) {
	if "" == id {
		return nil, fault.ErrMissingIdentifier
	}
	record := Record{}
	err := c.fetch(ctx, "videos/"+url.PathEscape(id), &record)
	return record, err
}

// SearchVideos - search videos by keyword and owner
func (c *Client) SearchVideos(ctx context.Context, query Query) (*SearchResult, error) {
	values := url.Values{}
	if "" != query.Keyword {
		values.Set("keyword", query.Keyword)
	}
	if "" != query.Owner {
		values.Set("owner", query.Owner)
	}
	path := "videos/"
	if len(values) > 0 {
		path += "?" + values.Encode()
	}

	result := &SearchResult{}
	err := c.fetch(ctx, path, result)
	if nil != err {
		return nil, err
	}
	return result, nil
}

// Forget - drop every cached response
func (c *Client) Forget() {
	c.cache.Flush()
}

// cached GET, the cache holds the raw decoded reply
func (c *Client) fetch(ctx context.Context, path string, reply interface{}) error {
	u := c.baseURL + path

	if item, ok := c.cache.Get(u); ok {
		c.log.Debugf("cache hit: %s", u)
		return copyReply(item, reply)
	}

	var raw interface{}
	if err := util.FetchJSON(ctx, c.http, u, &raw); nil != err {
		c.log.Debugf("fetch: %s  error: %s", u, err)
		return err
	}
	c.cache.SetDefault(u, raw)
	return copyReply(raw, reply)
}
