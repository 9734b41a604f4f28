package codec

import (
	"bytes"
	"encoding/gob"
)

// NewGOBCodec creates a new codec using Go's binary gob format. Gob records
// are denser than json, which buys headroom under tight per-item byte
// limits, at the cost of not being readable in backend dumps.
func NewGOBCodec() Codec {
	return gobCodecImpl{}
}

// gobCodecImpl implements the Codec interface using gob encoding
type gobCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (gobCodecImpl) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodecImpl) Unmarshal(data []byte, v any) error {
	buf := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buf)
	return dec.Decode(v)
}

func (gobCodecImpl) Name() string {
	return "gob"
}
