// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// JSONMarshaler and MessagePackMarshaler are the record-serializer
// collaborators spec.md §1 names as out of the CORE's scope ("a
// general-purpose JSON / MessagePack library — the core only calls
// encode(record) -> bytes"). The frame encoders in frame.go depend only on
// these interfaces, never on a concrete library.
type JSONMarshaler interface {
	MarshalJSON(record any) ([]byte, error)
}

type MessagePackMarshaler interface {
	MarshalMessagePack(record any) ([]byte, error)
}

// stdJSONMarshaler is the default JSONMarshaler: encoding/json.
type stdJSONMarshaler struct{}

func (stdJSONMarshaler) MarshalJSON(record any) ([]byte, error) {
	return json.Marshal(record)
}

// vmihailencoMarshaler is the default MessagePackMarshaler.
type vmihailencoMarshaler struct{}

func (vmihailencoMarshaler) MarshalMessagePack(record any) ([]byte, error) {
	return msgpack.Marshal(record)
}

// DefaultJSONMarshaler is the JSONMarshaler used when NewJSONLogger is
// given a nil marshaler (as NewLogger always does).
var DefaultJSONMarshaler JSONMarshaler = stdJSONMarshaler{}

// DefaultMessagePackMarshaler is the MessagePackMarshaler used when
// NewMessagePackLogger is given a nil marshaler (as NewLogger always does).
var DefaultMessagePackMarshaler MessagePackMarshaler = vmihailencoMarshaler{}
