// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/poiesic/winesearch/core"
	"github.com/vmihailenco/msgpack/v5"
)

// signBit flips int64 ordering into unsigned byte ordering.
const signBit = 1 << 63

// MarshalID serializes a wine ID to 8 big-endian bytes with the sign bit
// flipped, so byte order matches numeric order for negative IDs too.
func MarshalID(id int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id)^signBit)
	return buf
}

// UnmarshalID deserializes a wine ID from bytes.
func UnmarshalID(data []byte) (int64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: id needs 8 bytes, got %d", ErrSerializationFailed, len(data))
	}
	return int64(binary.BigEndian.Uint64(data) ^ signBit), nil
}

// MarshalWine serializes an EmbeddedWine to msgpack. Field names follow the
// json tags so stored records match the dataset's field names.
func MarshalWine(w *core.EmbeddedWine) ([]byte, error) {
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)

	var buf bytes.Buffer
	enc.Reset(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return buf.Bytes(), nil
}

// UnmarshalWine deserializes an EmbeddedWine from msgpack.
func UnmarshalWine(data []byte) (*core.EmbeddedWine, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrSerializationFailed)
	}
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)

	dec.Reset(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	var w core.EmbeddedWine
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &w, nil
}
