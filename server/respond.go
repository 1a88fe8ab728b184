package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/liznear/golden-raspberry/table"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(rw http.ResponseWriter, code int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeMessage(rw http.ResponseWriter, code int, msg string) {
	writeJSON(rw, code, messageResponse{Message: msg})
}

func writeNotFound(rw http.ResponseWriter) {
	writeMessage(rw, http.StatusNotFound, "Not Found")
}

// writeError maps catalog errors to responses. Unknown errors are logged and reported as 500.
func (s *Server) writeError(rw http.ResponseWriter, hr *http.Request, err error) {
	if errors.Is(err, table.ErrNotFound) {
		writeNotFound(rw)
		return
	}
	s.cfg.Logger.Error("Fail to serve request",
		zap.String("method", hr.Method),
		zap.String("path", hr.URL.Path),
		zap.Error(err),
	)
	writeJSON(rw, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
