package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/jenkinsci/radiatorview/internal/protocol"
	"github.com/jenkinsci/radiatorview/internal/server/httpx"
	"github.com/jenkinsci/radiatorview/internal/version"
)

const apiVersion = 1

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, healthzResponse{Status: "ok"})
}

func serverInfoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	host, _ := os.Hostname()
	httpx.WriteJSON(w, http.StatusOK, protocol.ServerInfo{
		Name:       "radiator",
		APIVersion: apiVersion,
		Version:    version.Current(),
		Hostname:   strings.TrimSpace(host),
	})
}
