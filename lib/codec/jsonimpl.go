package codec

import (
	"encoding/json"
)

// NewJSONCodec creates a new codec using json encoding. This is the default
// codec: records stay human-readable in backend dumps and interoperate with
// snapshots written by the browser side of the tool.
func NewJSONCodec() Codec {
	return jsonCodecImpl{}
}

// jsonCodecImpl implements the Codec interface using json encoding
type jsonCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (jsonCodecImpl) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodecImpl) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodecImpl) Name() string {
	return "json"
}
