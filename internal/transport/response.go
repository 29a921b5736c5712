package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
)

// Response is a received HTTP response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Empty reports a body with no content.
func (r *Response) Empty() bool {
	return len(bytes.TrimSpace(r.Body)) == 0
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body as a JSON object.
func (r *Response) JSON() (models.Document, error) {
	if r.Empty() {
		return nil, fmt.Errorf("empty response body")
	}
	var doc models.Document
	if err := json.Unmarshal(r.Body, &doc); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("response body is not a JSON object")
	}
	return doc, nil
}

const maxDiagnosticLen = 200

// UpdateResponse renders a failed response body for an error message. JSON
// bodies are reduced to their error message when they carry one.
func UpdateResponse(text string) string {
	var doc models.Document
	if err := json.Unmarshal([]byte(text), &doc); err == nil && doc != nil {
		for _, keys := range [][]string{
			{"errorMessage"},
			{"errorString"},
			{"error", "errorMessage"},
			{"error", "errorString"},
		} {
			if msg := doc.String(keys...); msg != "" {
				return msg
			}
		}
	}
	return truncate(strings.TrimSpace(text), maxDiagnosticLen)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
