// Package respond contains the small JSON response envelope used by
// cmd/nedsad's HTTP API.
package respond

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// ErrorBody is the JSON body written for any non-2xx response.
type ErrorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// Result is a prepared API response, ready to be written to an
// http.ResponseWriter and logged.
type Result struct {
	Status      int
	InternalMsg string

	resp interface{}
}

// OK returns a 200 response carrying respObj as its JSON body.
func OK(respObj interface{}, internalMsg string, args ...interface{}) Result {
	return Result{Status: http.StatusOK, resp: respObj, InternalMsg: fmt.Sprintf(internalMsg, args...)}
}

// BadRequest returns a 400 response with userMsg as the error body.
func BadRequest(userMsg string, internalMsg string, args ...interface{}) Result {
	return errResult(http.StatusBadRequest, userMsg, internalMsg, args...)
}

// Unauthorized returns a 401 response with userMsg as the error body.
func Unauthorized(userMsg string, internalMsg string, args ...interface{}) Result {
	return errResult(http.StatusUnauthorized, userMsg, internalMsg, args...)
}

// NotFound returns a 404 response with userMsg as the error body.
func NotFound(userMsg string, internalMsg string, args ...interface{}) Result {
	return errResult(http.StatusNotFound, userMsg, internalMsg, args...)
}

// InternalServerError returns a 500 response with a generic error body; the
// detail is only ever written to the log.
func InternalServerError(internalMsg string, args ...interface{}) Result {
	return errResult(http.StatusInternalServerError, "an internal server error occurred", internalMsg, args...)
}

func errResult(status int, userMsg string, internalMsg string, args ...interface{}) Result {
	return Result{
		Status:      status,
		InternalMsg: fmt.Sprintf(internalMsg, args...),
		resp: ErrorBody{
			Error:  userMsg,
			Status: status,
		},
	}
}

// WriteResponse marshals and writes r to w, and logs the outcome via logger.
func (r Result) WriteResponse(w http.ResponseWriter, req *http.Request, logger *log.Logger) {
	if r.Status == 0 {
		panic("result not populated")
	}

	body, err := json.Marshal(r.resp)
	if err != nil {
		panic(fmt.Sprintf("could not marshal response: %s", err.Error()))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(r.Status)
	w.Write(body)

	if logger != nil {
		logger.Printf("%s %s -> %d: %s", req.Method, req.URL.Path, r.Status, r.InternalMsg)
	}
}
