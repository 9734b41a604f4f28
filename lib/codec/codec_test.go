package codec

import (
	"reflect"
	"testing"
	"time"
)

// testCodecs is a map of codec name to factory function
var testCodecs = map[string]func() Codec{
	"JSON": NewJSONCodec,
	"GOB":  NewGOBCodec,
}

type testRecord struct {
	ID      string
	Count   int
	Raw     []byte
	Nested  map[string]string
	Stamp   time.Time
	Entries [][]byte
}

func TestCodecRoundTrip(t *testing.T) {
	records := []testRecord{
		{},
		{ID: "task-1", Count: 3, Stamp: time.Unix(1700000000, 0).UTC()},
		{
			ID:      "task-2",
			Raw:     []byte{0x00, 0xff, 0x10},
			Nested:  map[string]string{"Priority": "high", "Owner": "me"},
			Entries: [][]byte{[]byte(`{"a":1}`), []byte(`{"b":2}`)},
		},
	}

	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()

			for i, record := range records {
				data, err := c.Marshal(record)
				if err != nil {
					t.Errorf("Failed to marshal record %d: %v", i, err)
					continue
				}

				var result testRecord
				if err := c.Unmarshal(data, &result); err != nil {
					t.Errorf("Failed to unmarshal record %d: %v", i, err)
					continue
				}

				if !record.Stamp.Equal(result.Stamp) {
					t.Errorf("Record %d: timestamp changed after round trip: %v != %v",
						i, record.Stamp, result.Stamp)
				}
				record.Stamp = time.Time{}
				result.Stamp = time.Time{}
				if !reflect.DeepEqual(record, result) {
					t.Errorf("Record %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, record, result)
				}
			}
		})
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()

			var result testRecord
			if err := c.Unmarshal([]byte("definitely not encoded"), &result); err == nil {
				t.Errorf("Expected unmarshal of garbage to fail")
			}
		})
	}
}

func TestCodecNames(t *testing.T) {
	if got := NewJSONCodec().Name(); got != "json" {
		t.Errorf("Expected name json, got %s", got)
	}
	if got := NewGOBCodec().Name(); got != "gob" {
		t.Errorf("Expected name gob, got %s", got)
	}
}
