package cache

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Values are msgpack-encoded using their json field names, so cached entities
// decode into the same shape the API serves.
const structTag = "json"

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag(structTag)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag(structTag)
	return dec.Decode(v)
}
