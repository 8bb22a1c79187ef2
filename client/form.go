package client

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// File is an upload attached to a multipart call.
type File struct {
	Name    string
	Content io.Reader
}

type formFile struct {
	field string
	file  File
}

// Form is a multipart/form-data body. Fields keep their insertion order and a
// name may repeat, as list fields (objetivos, requisitos) do.
type Form struct {
	fields [][2]string
	files  []formFile
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// Set appends a field.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, [2]string{name, value})
	return f
}

// SetAll appends one field per value.
func (f *Form) SetAll(name string, values []string) *Form {
	for _, v := range values {
		f.Set(name, v)
	}
	return f
}

// Attach appends a file part. A nil file is ignored.
func (f *Form) Attach(field string, file *File) *Form {
	if file != nil && file.Content != nil {
		f.files = append(f.files, formFile{field: field, file: *file})
	}
	return f
}

func (f *Form) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", kv[0], err)
		}
	}
	for _, ff := range f.files {
		part, err := w.CreateFormFile(ff.field, ff.file.Name)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", ff.field, err)
		}
		if _, err := io.Copy(part, ff.file.Content); err != nil {
			return nil, "", fmt.Errorf("copy form file %s: %w", ff.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
