package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/linernotes/linernotes/pkg/errors"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// converts it into an error. Bodies in the shared {"error":{code,message}}
// envelope become application errors carrying the remote status; anything
// else is reported verbatim.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s: status %d, read body: %w", service, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(raw, &env) != nil || env.Error == nil {
		return fmt.Errorf("%s: status %d: %s", service, resp.StatusCode, raw)
	}
	return remoteError(service, resp.StatusCode, env.Error.Code, env.Error.Message)
}

func remoteError(service string, status int, code, message string) error {
	msg := service + ": " + message

	switch status {
	case http.StatusNotFound:
		return apperrors.NotFound(service, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(msg)
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case http.StatusConflict:
		if code == apperrors.CodeAlreadyExists {
			return apperrors.Duplicate(msg)
		}
		return apperrors.Conflict(msg)
	case http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(msg)
	}
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("%s: status %d (%s): %s", service, status, code, message)
	}
	return &apperrors.AppError{Code: code, Message: msg, Status: status}
}
