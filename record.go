package newsketch

import "time"

// UnknownCategory is the bucket malformed records are normalized into so
// that ingestion stays non-blocking.
const UnknownCategory = "unknown"

// Record is one article as delivered by the stream. It is read-only to
// every sketch; the stream owns it.
type Record struct {
	ID          string
	Headline    string
	Content     string
	Category    string
	PublishedAt time.Time
}

// Normalize returns a copy with an empty category mapped to
// UnknownCategory. Sketches never reject a record over a missing label.
func (r Record) Normalize() Record {
	if r.Category == "" {
		r.Category = UnknownCategory
	}
	return r
}

// IdentifyingText is the byte string that stands for the record in
// hash-driven structures (dedup filter, per-key sampler).
func (r Record) IdentifyingText() []byte {
	text := make([]byte, 0, len(r.Headline)+len(r.Content)+1)
	text = append(text, r.Headline...)
	text = append(text, '-')
	text = append(text, r.Content...)
	return text
}
