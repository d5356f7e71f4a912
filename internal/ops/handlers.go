package ops

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type versionResponse struct {
	App     appInfo     `json:"app"`
	Runtime runtimeInfo `json:"runtime"`
}

type appInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

type runtimeInfo struct {
	Platform      string `json:"platform"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutines int    `json:"num_goroutines"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Version:   s.info.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		App: appInfo{
			Name:      s.info.Name,
			Version:   s.info.Version,
			Commit:    s.info.Commit,
			BuildDate: s.info.BuildDate,
			GoVersion: runtime.Version(),
		},
		Runtime: runtimeInfo{
			Platform:      fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
			NumCPU:        runtime.NumCPU(),
			NumGoroutines: runtime.NumGoroutine(),
		},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
