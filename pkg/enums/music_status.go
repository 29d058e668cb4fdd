package enums

// MusicStatus describes the publication state of a track.
type MusicStatus string

const (
	MusicStatusDraft     MusicStatus = "DRAFT"
	MusicStatusPublished MusicStatus = "PUBLISHED"
	MusicStatusArchived  MusicStatus = "ARCHIVED"
)

var validMusicStatuses = []MusicStatus{
	MusicStatusDraft,
	MusicStatusPublished,
	MusicStatusArchived,
}

// String returns the literal string for the status.
func (m MusicStatus) String() string {
	return string(m)
}

// IsValid reports whether the status is known.
func (m MusicStatus) IsValid() bool {
	return known(m, validMusicStatuses)
}

// Label returns the French display label.
func (m MusicStatus) Label() string {
	switch m {
	case MusicStatusDraft:
		return "Brouillon"
	case MusicStatusPublished:
		return "Publié"
	case MusicStatusArchived:
		return "Archivé"
	}
	return string(m)
}

// UnmarshalText accepts the status in any letter case.
func (m *MusicStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseMusicStatus(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMusicStatus converts raw input into a MusicStatus.
func ParseMusicStatus(value string) (MusicStatus, error) {
	return parseFold("music status", value, validMusicStatuses)
}
