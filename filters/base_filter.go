package filters

// BaseFilter is the membership surface the stream layer consumes.
// Insert reports whether the add was applied; Lookup may return a false
// positive but never a false negative.
type BaseFilter interface {
	Insert(data []byte) bool
	Lookup(data []byte) bool
}

var _ BaseFilter = (*BloomFilter)(nil)
