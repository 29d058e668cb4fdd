package validators

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

type registration struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestDecodeJSONBodyReportsFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","extra":1}`))
	var dest registration
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{
		"name":  "field required",
		"email": "value is not a valid email address",
	}, typed.Details())
}

func TestDecodeJSONBodyRejectsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	var dest registration
	err := DecodeJSONBody(req, &dest)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&skip=x", nil)
	_, err := ParseQueryInt(req, "limit", 50, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryInt(req, "skip", 0, 0, 1000)
	assert.Error(t, err)

	got, err := ParseQueryInt(req, "missing", 50, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 50, got)
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?is_free=true&is_active=maybe", nil)
	got, err := ParseQueryBool(req, "is_free")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, *got)

	got, err = ParseQueryBool(req, "role")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseQueryBool(req, "is_active")
	assert.Error(t, err)
}

func TestParsePathID(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "42")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	id, err := ParsePathID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ParsePathID(req, "other")
	assert.Error(t, err)
}

func TestMultipartHelpers(t *testing.T) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("title", "  Night Drive  "))
	require.NoError(t, writer.WriteField("is_free", "false"))
	require.NoError(t, writer.WriteField("price", "4.99"))
	part, err := writer.CreateFormFile("audio_file", "night.mp3")
	require.NoError(t, err)
	_, _ = part.Write([]byte("ID3audio"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	require.NoError(t, ParseMultipart(rec, req, 1<<20))

	assert.Equal(t, "Night Drive", FormString(req, "title", 255))
	free, err := FormBool(req, "is_free", true)
	require.NoError(t, err)
	assert.False(t, free)
	price, err := FormDecimal(req, "price")
	require.NoError(t, err)
	assert.Equal(t, "4.99", price.String())

	file, header, err := FormFile(req, "audio_file")
	require.NoError(t, err)
	require.NotNil(t, file)
	defer file.Close()
	assert.Equal(t, "night.mp3", header.Filename)

	file, header, err = FormFile(req, "cover_image")
	require.NoError(t, err)
	assert.Nil(t, file)
	assert.Nil(t, header)
}

func TestParseMultipartRejectsOversizedBody(t *testing.T) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio_file", "big.mp3")
	require.NoError(t, err)
	_, _ = part.Write(bytes.Repeat([]byte("a"), 4096))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	err = ParseMultipart(httptest.NewRecorder(), req, 512)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFormBoolRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(url.Values{"is_free": {"perhaps"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, ParseForm(req))
	_, err := FormBool(req, "is_free", false)
	assert.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "abcdef", SanitizeString("abcdef", 0))
}
