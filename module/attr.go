package module

// AttrMode is the access mode a module declares for one of its attributes.
type AttrMode int

const (
	// AttrRead means the module only reads this attribute.
	AttrRead AttrMode = iota
	// AttrWrite means the module only writes this attribute.
	AttrWrite
	// AttrUpdate means the module both reads and writes the attribute; for
	// scope-analysis purposes this counts as both a read and a write.
	AttrUpdate
)

func (m AttrMode) String() string {
	switch m {
	case AttrRead:
		return "read"
	case AttrWrite:
		return "write"
	case AttrUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// IsReader reports whether this mode requires a live writer upstream.
func (m AttrMode) IsReader() bool {
	return m == AttrRead || m == AttrUpdate
}

// IsWriter reports whether this mode produces a value for downstream readers.
func (m AttrMode) IsWriter() bool {
	return m == AttrWrite || m == AttrUpdate
}

// MaxAttrsPerModule bounds the number of attributes a single module
// instance may declare.
const MaxAttrsPerModule = 16

// Attr is an attribute descriptor: a named, sized, moded slice of the
// per-packet metadata scratch region shared across modules.
type Attr struct {
	Name string
	Size int
	Mode AttrMode
}

// Sentinel offsets the metadata compiler assigns instead of a real byte
// offset. All three are negative and therefore distinguishable from any
// valid offset in [0, pkt.MetadataTotal).
const (
	// NoRead marks a reader attribute with no live writer upstream.
	NoRead = -1
	// NoWrite marks a writer attribute whose value is never read downstream.
	NoWrite = -2
	// NoSpace marks an attribute whose scope component could not fit in
	// the metadata region.
	NoSpace = -3
)
