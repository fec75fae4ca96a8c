// Package rpc serves plain Go structs over gRPC using a JSON codec and
// hand-declared service descriptors.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// Name is the codec name and the content-subtype clients must send
// (application/grpc+json).
const Name = "json"

type jsonCodec struct{}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return Name
}
