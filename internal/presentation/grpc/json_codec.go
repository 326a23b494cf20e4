package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// The service exchanges the application DTOs as JSON. Clients select the
// codec with the "application/grpc+json" content subtype.
const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return codecName }
