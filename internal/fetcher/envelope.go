package fetcher

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bassista/jobsync/internal/apierror"
	"github.com/bassista/jobsync/internal/httpclient"
)

// DecodeField reads field from a `{"success": bool, <field>: ...}` envelope.
// A missing or null field, or success:false, is a parse error.
func DecodeField[V any](op string, resp *httpclient.Response, field string) (V, error) {
	var zero V
	var envelope map[string]json.RawMessage
	if err := resp.Decode(&envelope); err != nil {
		return zero, apierror.Parse(op, err)
	}

	if raw, ok := envelope["success"]; ok {
		var success bool
		if err := json.Unmarshal(raw, &success); err != nil || !success {
			return zero, apierror.Parse(op, errors.New("response reports success=false"))
		}
	}

	raw, ok := envelope[field]
	if !ok || string(raw) == "null" {
		return zero, apierror.Parse(op, fmt.Errorf("response has no %q", field))
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, apierror.Parse(op, fmt.Errorf("decode %q: %w", field, err))
	}
	return v, nil
}
