// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger - boundary to the on-chain user and video registries
//
// only the fields of User and Video are written on-chain, anything
// else about a user or video lives in the content store and is
// referenced by IPFSData
package ledger

import (
	"context"
)

// UserFields - keys of a user record that are stored on-chain
var UserFields = []string{"id", "name", "email"}

// User - on-chain user record
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IPFSData string `json:"ipfsData"`
}

// Video - on-chain video record
type Video struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Price    uint64 `json:"price"`
	IPFSHash string `json:"ipfsHash"`
	IPFSData string `json:"ipfsData"`
}

// Client - ledger operations
type Client interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateUser(ctx context.Context, id string, patch map[string]interface{}) error
	DeleteUser(ctx context.Context, id string) error

	CreateVideo(ctx context.Context, video Video) error
	GetVideo(ctx context.Context, id string) (*Video, error)
	UpdateVideo(ctx context.Context, id string, patch map[string]interface{}) error
	DeleteVideo(ctx context.Context, id string) error
}

// IsUserField - true if key is written on-chain for a user
func IsUserField(key string) bool {
	for _, f := range UserFields {
		if f == key {
			return true
		}
	}
	return false
}
