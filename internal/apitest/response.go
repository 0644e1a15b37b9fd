package apitest

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/windfall/sprache/internal/errors"
)

// ValidationIssue is one entry of a FastAPI-style validation error list.
type ValidationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// writeJSON writes a bare JSON body, the way the learning backend answers.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeDetail writes {"detail": "..."}.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]interface{}{"detail": detail})
}

// writeValidation writes a 422 with a list of validation issues.
func writeValidation(w http.ResponseWriter, issues ...ValidationIssue) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"detail": issues})
}

// writeError maps an AppError to its status and detail body.
func writeError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		writeDetail(w, appErr.HTTPStatus(), appErr.Message)
		return
	}
	writeDetail(w, http.StatusInternalServerError, "internal server error")
}
