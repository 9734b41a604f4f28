package codec

// Codec is the interface for all record encoders used by the store. A
// single Store instance always uses one codec for every record it writes,
// so the chunk index, chunk payloads and timer records of one backend are
// mutually decodable.
type Codec interface {
	// Marshal encodes a record into a byte slice.
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes a byte slice into the given record pointer.
	Unmarshal(data []byte, v any) error
	// Name returns the codec identifier used in configuration ("json", "gob").
	Name() string
}
