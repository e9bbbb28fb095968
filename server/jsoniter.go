// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"reflect"
	"sync"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
)

var errNoMessageType = errors.New("no inbound message type")

// Make sure functions get run first
var json = func() jsoniter.API {
	neverEmpty := func(pointer unsafe.Pointer) bool { return false }

	jsoniter.RegisterTypeEncoderFunc(reflect.TypeOf(Message{}).String(), encodeMessage, neverEmpty)
	jsoniter.RegisterTypeDecoderFunc(reflect.TypeOf(Message{}).String(), decodeMessage)

	return jsoniter.Config{
		EscapeHTML:                    false,
		SortMapKeys:                   true,
		TagKey:                        "json",
		ObjectFieldMustBeSimpleString: true,
		CaseSensitive:                 true,
	}.Froze()
}()

func encodeMessage(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	message := (*Message)(ptr)
	stream.WriteVal(message.messageJSON())
}

// Buffers large enough to hold most inbounds
var decodeMessagePool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, 256)
		return &buf
	},
}

// decodeMessage reads {"type": ..., "data": ...} in either field order.
// An unknown type decodes to InvalidInbound rather than failing so the hub
// can count it against the sender.
func decodeMessage(ptr unsafe.Pointer, topLevelIter *jsoniter.Iterator) {
	bufPtr := decodeMessagePool.Get().(*[]byte)
	defer func() {
		*bufPtr = (*bufPtr)[:0]
		decodeMessagePool.Put(bufPtr)
	}()

	// Read bytes so can read twice
	messageBytes := topLevelIter.SkipAndAppendBytes(*bufPtr)
	*bufPtr = messageBytes
	if topLevelIter.Error != nil {
		return
	}

	pool := topLevelIter.Pool()
	iter := pool.BorrowIterator(messageBytes)
	defer pool.ReturnIterator(iter)

	// First pass finds the type.
	var mType messageType
	found := false
	iter.ReadObjectCB(func(i *jsoniter.Iterator, field string) bool {
		if field == "type" && !found {
			mType = messageType(i.ReadString())
			found = true
			return true
		}
		i.Skip()
		return true
	})
	if iter.Error != nil {
		topLevelIter.Error = iter.Error
		return
	}
	if !found {
		topLevelIter.Error = errNoMessageType
		return
	}

	inboundType, ok := inboundMessageTypes[mType]
	if !ok {
		(*Message)(ptr).Data = InvalidInbound{messageType: mType}
		return
	}

	// Second pass reads the data into the registered type.
	in := reflect.New(inboundType)
	iter.ResetBytes(messageBytes)
	iter.ReadObjectCB(func(i *jsoniter.Iterator, field string) bool {
		if field == "data" {
			i.ReadVal(in.Interface())
			return false
		}
		i.Skip()
		return true
	})
	if iter.Error != nil {
		topLevelIter.Error = iter.Error
		return
	}

	(*Message)(ptr).Data = in.Elem().Interface()
}
