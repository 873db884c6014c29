// Package handlers implements the rating API's HTTP handlers.
package handlers

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
	"github.com/turtacn/RateCraft/pkg/types/common"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeData[T any](w http.ResponseWriter, r *http.Request, status int, data T) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = logging.RequestIDFrom(r.Context())
	writeJSON(w, status, resp)
}

// writeAppError maps err to its HTTP status.  Server-side failures are
// masked; the full error goes to the log.
func writeAppError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	resp := common.NewErrorResponse(code.String(), err.Error())
	if status >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error("request failed", logging.String("code", code.String()), logging.Err(err))
		resp.Error.Message = errors.DefaultMessageForCode(code)
	} else {
		var ae *errors.AppError
		if errors.As(err, &ae) {
			resp.Error.Message = ae.Message
			resp.Error.Detail = ae.Detail
			if ae.Cause != nil {
				resp.Error.Detail = joinDetail(resp.Error.Detail, ae.Cause.Error())
			}
		}
	}
	resp.RequestID = logging.RequestIDFrom(r.Context())
	writeJSON(w, status, resp)
}

func joinDetail(a, b string) string {
	if a == "" {
		return b
	}
	return a + ": " + b
}

// decodeJSON rejects unknown fields and trailing data.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.InvalidParam("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.InvalidParam("request body is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.Newf(errors.CodeInvalidParam, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.Wrap(err, errors.CodeInvalidParam, "malformed JSON body")
	}
	if dec.More() {
		return errors.InvalidParam("request body must contain a single JSON object")
	}
	return nil
}

//Personal.AI order the ending
