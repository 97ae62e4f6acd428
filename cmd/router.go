package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/apptracer/pkg/logger"
)

type levelResponse struct {
	Level string `json:"level"`
	Error string `json:"error,omitempty"`
}

func setupRouter(a *app) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /level", a.getLevel)
	mux.HandleFunc("PUT /level", a.putLevel)
	mux.HandleFunc("GET /metrics", a.collector.Handler(a.log.Name()))

	return mux
}

func (a *app) getLevel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, levelResponse{Level: logger.LevelName(a.log.Level())})
}

// putLevel changes the threshold of the logger and all of its sinks, e.g.
// PUT /level?level=DEBUG.
func (a *app) putLevel(w http.ResponseWriter, r *http.Request) {
	level, err := logger.ResolveSeverity(r.URL.Query().Get("level"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, levelResponse{
			Level: logger.LevelName(a.log.Level()),
			Error: err.Error(),
		})
		return
	}

	a.log.SetLevel(level)
	a.log.Warning("Log level changed", slog.String("level", logger.LevelName(level)))
	writeJSON(w, http.StatusOK, levelResponse{Level: logger.LevelName(level)})
}

// writeJSON encodes body before writing the header so that an encoding
// failure can still be answered with a 500.
func writeJSON(w http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("failed to write response", slog.Any("err", err))
	}
}
