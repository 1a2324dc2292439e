// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	proto "github.com/golang/protobuf/proto"
	cid "github.com/ipfs/go-cid"

	"github.com/bitmark-inc/paratii/content"
	"github.com/bitmark-inc/paratii/fault"
)

// record kinds
const (
	kindCommand = "C"
	kindBlock   = "B"
)

// Message - wire record, a list of byte fields
type Message struct {
	Data                 [][]byte `protobuf:"bytes,1,rep,name=data,proto3" json:"data,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Message) Reset()         { *m = Message{} }
func (m *Message) String() string { return proto.CompactTextString(m) }
func (*Message) ProtoMessage()    {}

// PackCommand - command record: name, identity tag then arguments
func PackCommand(name string, identity string, args ...string) ([]byte, error) {
	if "" == name {
		return nil, fault.ErrMissingParameters
	}
	data := make([][]byte, 0, len(args)+3)
	data = append(data, []byte(kindCommand), []byte(name), []byte(identity))
	for _, a := range args {
		data = append(data, []byte(a))
	}
	return proto.Marshal(&Message{Data: data})
}

// PackBlock - block record
func PackBlock(id cid.Cid, block []byte) ([]byte, error) {
	if !id.Defined() {
		return nil, fault.ErrInvalidCID
	}
	return proto.Marshal(&Message{Data: [][]byte{[]byte(kindBlock), id.Bytes(), block}})
}

// Unpack - decode a record into an event for peer
func Unpack(packed []byte) (*PeerEvent, error) {
	m := Message{}
	if err := proto.Unmarshal(packed, &m); nil != err {
		return nil, fault.Join(fault.ErrInvalidMessage, err)
	}
	if len(m.Data) < 2 {
		return nil, fault.ErrWrongNumberOfHeaders
	}

	switch string(m.Data[0]) {

	case kindCommand:
		if len(m.Data) < 3 || 0 == len(m.Data[1]) {
			return nil, fault.ErrWrongNumberOfHeaders
		}
		args := make([]string, 0, len(m.Data)-3)
		for _, a := range m.Data[3:] {
			args = append(args, string(a))
		}
		return &PeerEvent{
			Kind:     ProtocolCommand,
			Command:  string(m.Data[1]),
			Identity: string(m.Data[2]),
			Args:     args,
		}, nil

	case kindBlock:
		if 3 != len(m.Data) {
			return nil, fault.ErrWrongNumberOfHeaders
		}
		id, err := content.Cast(m.Data[1])
		if nil != err {
			return nil, err
		}
		return &PeerEvent{
			Kind:    BlockReceived,
			CID:     id,
			Payload: m.Data[2],
		}, nil

	default:
		return nil, fault.ErrInvalidMessage
	}
}
