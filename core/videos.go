// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package core

import (
	"context"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/index"
	"github.com/bitmark-inc/paratii/ledger"
)

// VideoOptions - parameters for a new video
type VideoOptions struct {
	ID          string
	Owner       string
	Price       uint64
	Title       string
	Description string
}

// descriptive fields kept in the content store
type videoData struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Videos - video registration
type Videos struct {
	log    *logger.L
	store  ContentStore
	ledger ledger.Client
	index  Index
}

// NewVideos - create the video workflows
func NewVideos(store ContentStore, ledgerClient ledger.Client, indexClient Index, log *logger.L) *Videos {
	if nil == log {
		log = logger.New("core")
	}
	return &Videos{
		log:    log,
		store:  store,
		ledger: ledgerClient,
		index:  indexClient,
	}
}

// Create - register a video
//
// the transcoded stream hash is not known yet, so IPFSHash starts
// empty
func (v *Videos) Create(ctx context.Context, options VideoOptions) (*ledger.Video, error) {
	if "" == options.ID {
		return nil, fault.ErrMissingIdentifier
	}
	if "" == options.Owner {
		return nil, fault.ErrMissingParameters
	}

	data, err := v.store.AddJSON(ctx, videoData{
		Title:       options.Title,
		Description: options.Description,
	})
	if nil != err {
		return nil, err
	}

	video := ledger.Video{
		ID:       options.ID,
		Owner:    options.Owner,
		Price:    options.Price,
		IPFSHash: "",
		IPFSData: data.String(),
	}
	if err := v.ledger.CreateVideo(ctx, video); nil != err {
		return nil, err
	}
	v.log.Infof("created video: %s  owner: %s  data: %s", video.ID, video.Owner, video.IPFSData)
	return &video, nil
}

// Get - read a video from the index
func (v *Videos) Get(ctx context.Context, id string) (index.Record, error) {
	return v.index.GetVideo(ctx, id)
}
