package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/buddyread/buddyread-server/internal/errors"
	"github.com/buddyread/buddyread-server/internal/http/response"
)

// EnvelopeVersion is the version sent in every envelope's "v" field.
const EnvelopeVersion = response.Version

// EnvelopeTransformer wraps every huma response body in response.Envelope.
// Success bodies become "data"; errors become error/code/details.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)

	switch e := v.(type) {
	case *APIError:
		return response.Fail(domainerrors.Code(e.Code), e.Message, e.Details), nil
	case *domainerrors.Error:
		return response.Fail(e.Code, e.Message, e.Details), nil
	case error:
		return response.Fail(response.CodeForStatus(code), e.Error(), nil), nil
	}

	if code >= 400 {
		return response.Envelope{Version: EnvelopeVersion, Success: false, Data: v}, nil
	}
	return response.OK(v), nil
}
