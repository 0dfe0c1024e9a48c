// internal/domain/homework/response.go
package homework

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	keyHomeworks   = "homeworks"
	keyCurrentDate = "current_date"
)

// Response is the decoded body of a homework_statuses reply.
type Response map[string]json.RawMessage

// Record is a single homework entry as sent by the API.
type Record map[string]any

// Name returns homework_name if it is present and a non-empty string.
func (r Record) Name() (string, bool) {
	name, ok := r["homework_name"].(string)
	return name, ok && name != ""
}

// Status returns the raw status field if it is a string.
func (r Record) Status() (string, bool) {
	status, ok := r["status"].(string)
	return status, ok
}

// CurrentDate returns the server timestamp the reply was produced at, if any.
func (r Response) CurrentDate() (int64, bool) {
	raw, ok := r[keyCurrentDate]
	if !ok {
		return 0, false
	}
	var ts int64
	if err := json.Unmarshal(raw, &ts); err != nil || ts <= 0 {
		return 0, false
	}
	return ts, true
}

// ExtractHomeworks validates the response shape and returns its records in server order.
// An empty list is a valid "no updates" result.
func ExtractHomeworks(resp Response) ([]Record, error) {
	raw, ok := resp[keyHomeworks]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, keyHomeworks)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: %q is not a list", ErrShape, keyHomeworks)
	}

	var records []Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %q must be a list of objects: %v", ErrShape, keyHomeworks, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
