// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package core

import (
	"context"
	"fmt"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/paratii/fault"
	"github.com/bitmark-inc/paratii/index"
	"github.com/bitmark-inc/paratii/ledger"
)

// Users - user registration
type Users struct {
	log    *logger.L
	store  ContentStore
	ledger ledger.Client
	index  Index
}

// NewUsers - create the user workflows
func NewUsers(store ContentStore, ledgerClient ledger.Client, indexClient Index, log *logger.L) *Users {
	if nil == log {
		log = logger.New("core")
	}
	return &Users{
		log:    log,
		store:  store,
		ledger: ledgerClient,
		index:  indexClient,
	}
}

// Create - register a user
//
// id, name and email go on-chain, every other field is stored as a
// JSON document whose identifier becomes the user's IPFSData
func (u *Users) Create(ctx context.Context, fields map[string]interface{}) (*ledger.User, error) {
	id, _ := fields["id"].(string)
	if "" == id {
		return nil, fault.ErrMissingIdentifier
	}

	onChain := map[string]string{}
	offChain := map[string]interface{}{}
	for k, v := range fields {
		if ledger.IsUserField(k) {
			onChain[k] = fmt.Sprint(v)
		} else {
			offChain[k] = v
		}
	}

	data, err := u.store.AddJSON(ctx, offChain)
	if nil != err {
		return nil, err
	}

	user := ledger.User{
		ID:       id,
		Name:     onChain["name"],
		Email:    onChain["email"],
		IPFSData: data.String(),
	}
	if err := u.ledger.CreateUser(ctx, user); nil != err {
		return nil, err
	}
	u.log.Infof("created user: %s  data: %s", user.ID, user.IPFSData)
	return &user, nil
}

// Get - read a user from the index
func (u *Users) Get(ctx context.Context, id string) (index.Record, error) {
	return u.index.GetUser(ctx, id)
}

// Update - change name and email, empty values keep the current ones
//
// the merged record is registered again
func (u *Users) Update(ctx context.Context, id string, name string, email string) (index.Record, error) {
	if "" == id {
		return nil, fault.ErrMissingIdentifier
	}

	data, err := u.Get(ctx, id)
	if nil != err {
		return nil, err
	}
	if "" != name {
		data["name"] = name
	}
	if "" != email {
		data["email"] = email
	}
	data["id"] = id

	if _, err := u.Create(ctx, data); nil != err {
		return nil, err
	}
	return data, nil
}
