// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"math"
	"reflect"
)

// ProtocolVersion must be the "v" of every inbound message.
const ProtocolVersion = "0.1.0"

var (
	// Valid inbound message types: messageType to type
	inboundMessageTypes = make(map[messageType]reflect.Type)
	// Valid outbound message types: to messageType
	outboundMessageTypes = make(map[reflect.Type]messageType)
)

type (
	inbound interface {
		Inbound(h *Hub, client Client, player *Player)
	}

	// enveloped inbounds are checked for a valid Envelope before they are handled.
	enveloped interface {
		envelope() Envelope
	}

	// outbound is any registered outbound type. Sending an unregistered type panics.
	outbound interface{}

	// Envelope is embedded in every inbound sent by a well behaved client.
	Envelope struct {
		V         string   `json:"v"`
		ClientSeq *float64 `json:"client_seq"`
	}

	Message struct {
		Data interface{}
	}

	messageJSON struct {
		Type messageType `json:"type"`
		Data interface{} `json:"data"`
	}

	messageType string

	SignedInbound struct {
		Client Client
		inbound
	}
)

func (e Envelope) envelope() Envelope {
	return e
}

// Valid checks the version and that client_seq is a finite number.
// Sequence numbers are not required to increase.
func (e Envelope) Valid() bool {
	if e.V != ProtocolVersion || e.ClientSeq == nil {
		return false
	}
	seq := *e.ClientSeq
	return !math.IsNaN(seq) && !math.IsInf(seq, 0)
}

func registerInbound(m messageType, in inbound) {
	inboundMessageTypes[m] = reflect.TypeOf(in)
}

func registerOutbound(m messageType, out outbound) {
	outboundMessageTypes[reflect.TypeOf(out)] = m
}

func (message Message) messageJSON() messageJSON {
	typ := reflect.TypeOf(message.Data)

	mType, ok := outboundMessageTypes[typ]
	if !ok {
		// Panic because outbounds only come from trusted sources
		panic("invalid outbound message type " + typ.String())
	}

	return messageJSON{Data: message.Data, Type: mType}
}

// Overridden by jsoniter
func (message Message) MarshalJSON() ([]byte, error) {
	panic("unimplemented")
}

// Overridden by jsoniter
func (message *Message) UnmarshalJSON([]byte) error {
	panic("unimplemented")
}
