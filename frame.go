// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

import (
	"strconv"

	"code.hybscloud.com/fluentshipper/internal/wire"
)

// Framing selects which Forward-protocol encoding a Logger uses.
type Framing uint8

const (
	JSONFraming Framing = iota
	MessagePackFraming
)

// encodeJSON builds the ASCII text `["<tag>",<time>,<record-json>]` with no
// trailing newline. The tag is pasted between quotes without escaping
// (callers are contracted to supply tags that are valid JSON string
// contents, per spec.md §4.3); the record JSON comes verbatim from m.
func encodeJSON(tag string, t int64, record any, m JSONMarshaler) ([]byte, error) {
	recordJSON, err := m.MarshalJSON(record)
	if err != nil {
		return nil, &EncodeError{Framing: "json", Cause: err}
	}

	buf := make([]byte, 0, len(tag)+len(recordJSON)+24)
	buf = append(buf, '[', '"')
	buf = append(buf, tag...)
	buf = append(buf, '"', ',')
	buf = strconv.AppendInt(buf, t, 10)
	buf = append(buf, ',')
	buf = append(buf, recordJSON...)
	buf = append(buf, ']')
	return buf, nil
}

// encodeMessagePack builds the fixarray-of-3 frame: 0x93, the tag as a
// MessagePack string, the time as a 0xD3 int64 ext value, and the record's
// MessagePack bytes appended verbatim. It trusts the collaborator's output
// and never re-validates it.
func encodeMessagePack(tag string, t int64, record any, m MessagePackMarshaler) ([]byte, error) {
	recordBytes, err := m.MarshalMessagePack(record)
	if err != nil {
		return nil, &EncodeError{Framing: "msgpack", Cause: err}
	}

	buf := make([]byte, 0, 1+len(tag)+8+8+len(recordBytes))
	buf = wire.WriteArrayHeader3(buf)
	buf = wire.WriteString(tag, buf)
	buf = wire.WriteInt64(t, buf)
	buf = append(buf, recordBytes...)
	return buf, nil
}
