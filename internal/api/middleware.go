package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the wire envelope version. Bump only on breaking
// changes to the envelope shape itself; clients check this field first.
const EnvelopeVersion = 1

// APIEnvelope wraps every successful response and simple errors.
//
//nolint:revive // API prefix is intentional for clarity
type APIEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps errors that carry a machine-readable code.
//
//nolint:revive // API prefix is intentional for clarity
type APIErrorEnvelope struct {
	Version int    `json:"v"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps all huma responses in the versioned envelope.
// The version field is named exactly "v" - renaming it breaks every client.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		if apiErr.Code != "" {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   apiErr.Message,
		}, nil
	}

	if err, ok := v.(error); ok {
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	// Status strings are three digits, so lexical comparison is safe here.
	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: status < "400",
		Data:    v,
	}, nil
}
