package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/imgblocks/pkg/errors"
)

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err's code to a status. Errors without a code are 500s
// and their text is not exposed.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		writeJSON(w, http.StatusInternalServerError, map[string]errorBody{
			"error": {Code: errors.ErrCodeInternal, Message: "internal error"},
		})
		return
	}
	writeJSON(w, errors.HTTPStatus(code), map[string]errorBody{
		"error": {Code: code, Message: errors.UserMessage(err)},
	})
}

// decode reads a JSON body into v. Numbers keep their literal text, so
// "dpr": 1.0 is stored as "1.0" and "width": 800 as "800".
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
