package apiclient

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/volunteerhub/portal/internal/shared"
)

// messageKeys are read in order; the first non-empty string wins.
var messageKeys = []string{"error", "detail", "message"}

// normalize converts a non-2xx answer into the tagged error shape. Status code and
// raw body are always preserved.
func normalize(status int, raw []byte, fallback string) *shared.Error {
	kind := shared.KindNetworkOrServer
	if status == http.StatusUnauthorized {
		kind = shared.KindAuthRejected
	}
	apiErr := &shared.Error{Kind: kind, StatusCode: status, RawBody: raw, Message: fallback}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apiErr
	}
	for _, key := range messageKeys {
		if msg := stringValue(payload[key]); msg != "" {
			apiErr.Message = msg
			break
		}
	}

	fields := make(map[string][]string)
	for key, value := range payload {
		if isMessageKey(key) || key == "code" || key == "status" {
			continue
		}
		if msgs := stringList(value); len(msgs) > 0 {
			fields[key] = msgs
		}
	}
	if len(fields) > 0 {
		apiErr.Fields = fields
	}
	return apiErr
}

// unexpectedResponse tags a 2xx answer whose body does not have the expected shape.
func unexpectedResponse(endpoint string, status int, body []byte, err error) *shared.Error {
	return &shared.Error{
		Kind:       shared.KindNetworkOrServer,
		StatusCode: status,
		Message:    "unexpected response from " + endpoint,
		RawBody:    body,
		Err:        err,
	}
}

func isMessageKey(key string) bool {
	for _, k := range messageKeys {
		if k == key {
			return true
		}
	}
	return false
}

func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// stringList accepts the DRF shapes "msg" and ["msg", ...].
func stringList(raw json.RawMessage) []string {
	if s := stringValue(raw); s != "" {
		return []string{s}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := list[:0]
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
