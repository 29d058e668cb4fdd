package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

var extensionsByKind = map[enums.MediaKind][]string{
	enums.MediaKindAudio: {".mp3", ".wav", ".flac", ".m4a", ".ogg"},
	enums.MediaKindCover: {".jpg", ".jpeg", ".png", ".webp"},
}

var rejectionByKind = map[enums.MediaKind]string{
	enums.MediaKindAudio: "Format de fichier audio non valide. Formats acceptés: mp3, wav, flac, m4a, ogg",
	enums.MediaKindCover: "Format d'image non valide. Formats acceptés: jpg, jpeg, png, webp",
}

var dirByKind = map[enums.MediaKind]string{
	enums.MediaKindAudio: "music",
	enums.MediaKindCover: "covers",
}

// AllowedExtension reports whether the file name carries an extension
// accepted for kind. The check ignores case.
func AllowedExtension(kind enums.MediaKind, fileName string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		return false
	}
	for _, candidate := range extensionsByKind[kind] {
		if candidate == ext {
			return true
		}
	}
	return false
}

// CheckExtension returns the user-facing rejection for a file kind does not
// accept.
func CheckExtension(kind enums.MediaKind, fileName string) error {
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown media kind %q", kind))
	}
	if AllowedExtension(kind, fileName) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, rejectionByKind[kind])
}
