package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"edu-platform/pkg/apierror"
)

const maxJSONBody = 1 << 20

// decodeJSON treats an empty body as "{}" so missing-field validation, not a
// decode error, reports what is wrong.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierror.WithStatus(apierror.KindValidation, "request body too large", "", http.StatusRequestEntityTooLarge)
		}

		return apierror.Validation("invalid JSON body", err.Error())
	}

	return nil
}
