// Package codec defines the record encoding used for everything the store
// writes to a backend: the chunk index, chunk payloads and timer state
// records.
//
// Two implementations are provided: json (the default, human-readable and
// compatible with records written by the browser side of the tool) and gob
// (denser, useful under tight per-item byte limits). A store instance uses
// exactly one codec for all of its records; mixing codecs against the same
// backend keys makes previously written records undecodable, which the
// store then treats as corrupt and drops.
package codec
