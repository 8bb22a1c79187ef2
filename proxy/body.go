package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/user/academia-go/apperror"
)

// forwardedHeaders are the only request headers that reach the backend.
var forwardedHeaders = []string{"Authorization", "Cookie"}

// newBackendRequest builds the outgoing request for r. The returned error, if any,
// is an *apperror.AppError describing a body the caller got wrong.
func (h *Handler) newBackendRequest(r *http.Request, target string) (*http.Request, error) {
	header := make(http.Header)
	var body io.Reader
	contentLength := int64(0)

	switch r.Method {
	case http.MethodPost, http.MethodPut:
		b, contentType, length, err := forwardBody(r)
		if err != nil {
			return nil, err
		}
		body, contentLength = b, length
		if contentType != "" {
			header.Set("Content-Type", contentType)
		}
	default:
		header.Set("Content-Type", "application/json")
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		return nil, apperror.NewBadRequestError("Invalid request path", err)
	}
	if contentLength > 0 {
		out.ContentLength = contentLength
	}
	for _, name := range forwardedHeaders {
		if values := r.Header.Values(name); len(values) > 0 {
			// HTTP/2 clients may split cookies over several header lines.
			sep := ", "
			if name == "Cookie" {
				sep = "; "
			}
			header.Set(name, strings.Join(values, sep))
		}
	}
	out.Header = header
	return out, nil
}

// forwardBody picks the body strategy for a POST or PUT from its content type.
// It returns the body, the content type to send (empty for none) and the length
// when known up front (-1 otherwise).
func forwardBody(r *http.Request) (io.Reader, string, int64, error) {
	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.Contains(contentType, "application/json"):
		compacted, err := reserializeJSON(r.Body)
		if err != nil {
			return nil, "", 0, err
		}
		return bytes.NewReader(compacted), "application/json", int64(len(compacted)), nil

	case strings.Contains(contentType, "multipart/form-data"):
		body, outType, err := reencodeMultipart(r)
		if err != nil {
			return nil, "", 0, err
		}
		return body, outType, -1, nil

	default:
		// Anything else goes through untouched, streamed rather than buffered.
		return r.Body, contentType, r.ContentLength, nil
	}
}

// reserializeJSON parses the body and writes it back out in compact form, preserving
// key order. Invalid JSON is the caller's mistake and is rejected before the backend
// is contacted.
func reserializeJSON(body io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, apperror.NewBadRequestError("Invalid JSON body", err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, apperror.NewBadRequestError("Invalid JSON body", err)
	}
	return buf.Bytes(), nil
}

// reencodeMultipart turns the incoming form into a fresh multipart body, part by part,
// as it streams. The result carries its own boundary, so the caller's Content-Type
// header is never reused.
func reencodeMultipart(r *http.Request) (io.Reader, string, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, "", apperror.NewBadRequestError("Invalid multipart body", err)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	contentType := writer.FormDataContentType()

	go func() {
		// Closing with the copy error makes the transport's read fail with it, which
		// also ends this goroutine when the backend stops reading early.
		pw.CloseWithError(copyParts(reader, writer))
	}()
	return pr, contentType, nil
}

func copyParts(reader *multipart.Reader, writer *multipart.Writer) error {
	for {
		part, err := reader.NextRawPart()
		if err == io.EOF {
			return writer.Close()
		}
		if err != nil {
			return apperror.NewBadRequestError("Invalid multipart body", err)
		}

		dst, err := writer.CreatePart(part.Header)
		if err != nil {
			part.Close()
			return fmt.Errorf("create part: %w", err)
		}
		if _, err := io.Copy(dst, part); err != nil {
			part.Close()
			return apperror.NewBadRequestError("Invalid multipart body", err)
		}
		part.Close()
	}
}
