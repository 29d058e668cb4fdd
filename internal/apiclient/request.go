package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// Request describes one call to the marketplace API. At most one of JSON,
// Form and Multipart is set.
type Request struct {
	Method    string
	Path      string
	Query     Params
	JSON      any
	Form      Params
	Multipart *Multipart
	// Anonymous requests are sent without the bearer credential (login,
	// register).
	Anonymous bool
}

// Get builds a GET request.
func Get(path string, query Params) Request {
	return Request{Method: http.MethodGet, Path: path, Query: query}
}

// Post builds a POST request with an optional JSON body.
func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, JSON: body}
}

// Put builds a PUT request with an optional JSON body.
func Put(path string, body any) Request {
	return Request{Method: http.MethodPut, Path: path, JSON: body}
}

// Delete builds a DELETE request.
func Delete(path string) Request {
	return Request{Method: http.MethodDelete, Path: path}
}

// Multipart is a form body mixing text fields and files.
type Multipart struct {
	Fields Params
	Files  []FilePart
}

// FilePart is one uploaded file.
type FilePart struct {
	Field    string
	FileName string
	Content  io.Reader
}

// URL joins base, path and query.
func (r Request) URL(base string) string {
	path := r.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := strings.TrimRight(base, "/") + path
	if encoded := r.Query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

// Route is the request path without query, used for logs and metrics.
func (r Request) Route() string {
	return r.Path
}

func (r Request) body() (io.Reader, string, error) {
	switch {
	case r.Multipart != nil:
		return r.Multipart.encode()
	case r.Form != nil:
		return strings.NewReader(r.Form.Values().Encode()), "application/x-www-form-urlencoded", nil
	case r.JSON != nil:
		payload, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("marshal request body: %w", err)
		}
		return bytes.NewReader(payload), "application/json", nil
	}
	return nil, "", nil
}

// encode writes the multipart body. The content type, boundary included,
// comes from the writer that produced the body and is never assembled by hand.
func (m *Multipart) encode() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, field := range m.Fields {
		if err := writer.WriteField(field.Key, field.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.Key, err)
		}
	}
	for _, file := range m.Files {
		if file.Content == nil {
			continue
		}
		part, err := writer.CreateFormFile(file.Field, file.FileName)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", file.Field, err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", fmt.Errorf("copy form file %s: %w", file.Field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, writer.FormDataContentType(), nil
}
