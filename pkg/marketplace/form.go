package marketplace

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// File is an uploaded file forwarded to the marketplace.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	name string
	file *File
}

// Form collects text fields and file parts and encodes them once as
// multipart/form-data. A field name may carry several files.
type Form struct {
	fields []formField
	files  []formFile
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// Set appends a text field.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name, value})
	return f
}

// File appends a file part. Empty files are skipped.
func (f *Form) File(name string, file *File) *Form {
	if file == nil || len(file.Data) == 0 {
		return f
	}
	f.files = append(f.files, formFile{name, file})
	return f
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode writes fields first, then files, and returns the body with its
// content type.
func (f *Form) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", field.name, err)
		}
	}
	for _, ff := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(ff.name), quoteEscaper.Replace(ff.file.Filename)))
		ct := ff.file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := part.Write(ff.file.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write file %s: %w", ff.file.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
