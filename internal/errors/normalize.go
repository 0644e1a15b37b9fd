package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Failure is a raw failure value of one of three shapes: Raw, HTTP or Transport.
type Failure interface {
	failure()
}

// Raw is a plain failure string.
type Raw string

// HTTP is a non-2xx response with its undecoded body.
type HTTP struct {
	Status     int
	StatusText string
	Body       []byte
}

// Transport is a request that never obtained a response.
type Transport struct {
	BaseURL string
	Err     error
}

func (Raw) failure()       {}
func (HTTP) failure()      {}
func (Transport) failure() {}

// StatusMessage is the generic message for a status without a usable body.
func StatusMessage(status int, statusText string) string {
	return fmt.Sprintf("Error %d: %s", status, statusText)
}

// ConnectMessage is the connectivity message naming the resolved endpoint.
func ConnectMessage(baseURL string) string {
	return fmt.Sprintf("Cannot connect to server at %s. Please check if the backend is running.", baseURL)
}

// Message turns f into a single non-empty message. It never panics.
func Message(f Failure, def string) string {
	switch f := f.(type) {
	case Raw:
		return orDefault(string(f), def)
	case HTTP:
		status := StatusMessage(f.Status, f.StatusText)
		var v any
		if len(strings.TrimSpace(string(f.Body))) == 0 || json.Unmarshal(f.Body, &v) != nil {
			return status
		}
		return MessageFrom(v, orDefault(def, status))
	case Transport:
		return ConnectMessage(f.BaseURL)
	}
	return orDefault(def, "An unexpected error occurred. Please try again.")
}

// MessageFrom extracts a message from a decoded JSON value, a string or an error:
// a string verbatim; then detail (string, first validation entry, or object);
// then message or error; then def.
func MessageFrom(v any, def string) (msg string) {
	defer func() {
		if recover() != nil {
			msg = orDefault(def, "An unexpected error occurred. Please try again.")
		}
	}()

	switch v := v.(type) {
	case string:
		return orDefault(v, def)
	case error:
		return orDefault(v.Error(), def)
	case map[string]any:
		return orDefault(fromObject(v), def)
	}
	return orDefault("", def)
}

func fromObject(obj map[string]any) string {
	switch detail := obj["detail"].(type) {
	case string:
		if detail != "" {
			return detail
		}
	case []any:
		if len(detail) > 0 {
			if msg := entryMessage(detail[0]); msg != "" {
				return msg
			}
		}
	case map[string]any:
		if msg := entryMessage(detail); msg != "" {
			return msg
		}
	}

	for _, key := range []string{"message", "error"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// entryMessage reads a FastAPI-style validation entry.
func entryMessage(v any) string {
	if obj, ok := v.(map[string]any); ok {
		for _, key := range []string{"msg", "message"} {
			if s, ok := obj[key].(string); ok && s != "" {
				return s
			}
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	if def != "" {
		return def
	}
	return "An unexpected error occurred. Please try again."
}
