// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/bitmark-inc/paratii/fault"
)

// FetchJSON - fetch a JSON response from an HTTP request and decode
// it
func FetchJSON(ctx context.Context, client *http.Client, url string, reply interface{}) error {
	request, err := http.NewRequest("GET", url, nil)
	if nil != err {
		return err
	}
	request = request.WithContext(ctx)
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if nil != err {
		return fault.Join(fault.ErrIndexRequestFail, err)
	}
	defer response.Body.Close()
	body, err := ioutil.ReadAll(response.Body)
	if nil != err {
		return fault.Join(fault.ErrIndexRequestFail, err)
	}

	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fault.ErrRecordNotFound
	default:
		return fault.Join(fault.ErrIndexRequestFail, fmt.Errorf("status: %d %q on: %q", response.StatusCode, response.Status, url))
	}
	return json.Unmarshal(body, reply)
}
