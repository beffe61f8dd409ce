package handler

import (
	"net/http"

	"edu-platform/pkg/apierror"
	"edu-platform/pkg/envelope"
)

func NotFound(w http.ResponseWriter, r *http.Request) {
	envelope.SendAPIError(w, apierror.NotFound("Route not found", r.Method+" "+r.URL.Path))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	envelope.SendAPIError(w, apierror.New(apierror.KindMethodNotAllowed, "Method not allowed", r.Method+" "+r.URL.Path))
}
