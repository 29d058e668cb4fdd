package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

const sniffLen = 3072

// ErrTooLarge is returned when an upload exceeds the configured cap.
var ErrTooLarge = errors.New("media: upload too large")

// Stored describes a file written by the store.
type Stored struct {
	Path string
	Size int64
	MIME string
}

// Store keeps uploaded audio and covers on the local filesystem.
type Store struct {
	root     string
	maxBytes int64
	logg     *logger.Logger
}

// NewStore creates the kind directories under root.
func NewStore(root string, maxBytes int64, logg *logger.Logger) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("media root required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	for _, dir := range dirByKind {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating media dir: %w", err)
		}
	}
	return &Store{root: root, maxBytes: maxBytes, logg: logg}, nil
}

// Root returns the base directory.
func (s *Store) Root() string { return s.root }

// Save validates the file extension for kind and writes the content under a
// unique name. The detected MIME type is informational only.
func (s *Store) Save(ctx context.Context, kind enums.MediaKind, fileName string, content io.Reader) (*Stored, error) {
	if err := CheckExtension(kind, fileName); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading upload")
	}
	head = head[:n]
	detected := mimetype.Detect(head).String()

	target := filepath.Join(s.root, dirByKind[kind], UniqueFileName(fileName))
	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating media file")
	}

	src := io.MultiReader(bytes.NewReader(head), content)
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}
	written, copyErr := io.Copy(file, src)
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(target)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, copyErr, "writing media file")
	case closeErr != nil:
		_ = os.Remove(target)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, closeErr, "closing media file")
	case s.maxBytes > 0 && written > s.maxBytes:
		_ = os.Remove(target)
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrTooLarge, "Fichier trop volumineux")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"kind": kind, "path": target, "bytes": written, "mime": detected})
	s.logg.Debug(ctx, "media stored")

	return &Stored{Path: target, Size: written, MIME: detected}, nil
}

// Open returns the stored file for reading.
func (s *Store) Open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Fichier non trouvé")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "opening media file")
	}
	return file, nil
}

// Exists reports whether path points at a stored file.
func (s *Store) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Remove deletes a stored file; a missing file is not an error.
func (s *Store) Remove(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logg.WarnErr(s.logg.WithField(ctx, "path", path), "removing media file", err)
	}
}

// UniqueFileName appends a short random suffix before the extension:
// "song.mp3" becomes "song_1a2b3c4d.mp3".
func UniqueFileName(fileName string) string {
	base := sanitizeFileName(filepath.Base(fileName))
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if name == "" {
		name = "media"
	}
	return fmt.Sprintf("%s_%s%s", name, uuid.NewString()[:8], ext)
}

func sanitizeFileName(name string) string {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_")
}
