package enums

// MediaKind defines which upload slot a file belongs to.
type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindCover MediaKind = "cover"
)

var validMediaKinds = []MediaKind{
	MediaKindAudio,
	MediaKindCover,
}

// String returns the literal string for the kind.
func (k MediaKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is known.
func (k MediaKind) IsValid() bool {
	return known(k, validMediaKinds)
}
