package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strings"
)

// Body is a request payload that knows its own content type.
type Body interface {
	encode() (r io.Reader, contentType string, err error)
	// isForm reports whether the transport-level encoder picks the
	// content type; caller-supplied Content-Type headers are dropped then.
	isForm() bool
}

type jsonBody struct{ v any }

// JSONBody sends v as application/json.
func JSONBody(v any) Body { return jsonBody{v: v} }

func (b jsonBody) encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", fmt.Errorf("encode json body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func (jsonBody) isForm() bool { return false }

type formBody struct{ values url.Values }

// FormBody sends values url-encoded.
func FormBody(values url.Values) Body { return formBody{values: values} }

func (b formBody) encode() (io.Reader, string, error) {
	return strings.NewReader(b.values.Encode()), "application/x-www-form-urlencoded", nil
}

func (formBody) isForm() bool { return true }

// Field is one multipart form field. Order is preserved on the wire.
type Field struct {
	Name  string
	Value string
}

type multipartBody struct{ fields []Field }

// MultipartBody sends fields as multipart/form-data.
func MultipartBody(fields ...Field) Body { return multipartBody{fields: fields} }

func (b multipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range b.fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (multipartBody) isForm() bool { return true }
