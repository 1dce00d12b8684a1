/*
Package req provides helper functions for binding HTTP request bodies.

BindJSON enforces the content type, a body size cap and strict decoding so the
view API only accepts exactly the JSON shapes it documents.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"chatview/internal/pkg/errs"
)

// MaxJSONBodySize caps the request body accepted by BindJSON (64 KB).
const MaxJSONBodySize int64 = 64 << 10

// BindJSON binds the JSON request body to dst.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrInvalidParams)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
