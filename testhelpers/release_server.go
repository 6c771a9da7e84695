package testhelpers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-github/v62/github"
)

// ReleaseAsset is one downloadable file of a mock release
type ReleaseAsset struct {
	Name string
	Data []byte
	// Status overrides the HTTP status of the download
	Status int
	// Truncate advertises the full length but sends only this many bytes
	Truncate int
}

// MockReleaseServerConfig configures the behavior of a mock GitHub releases server
type MockReleaseServerConfig struct {
	Owner string
	Repo  string
	// Tag of the latest release; empty means no release is published
	Tag    string
	Assets []ReleaseAsset
	// WithChecksums publishes a checksums.txt covering every asset
	WithChecksums bool
	// FailFirst makes the first N API requests return 502
	FailFirst int
}

// MockReleaseServer is a running mock releases server
type MockReleaseServer struct {
	*httptest.Server

	mu        sync.Mutex
	config    *MockReleaseServerConfig
	apiCalls  int
	downloads map[string]int
	failed    int
}

// NewMockReleaseServer creates an httptest server that speaks the subset of the
// GitHub API used for self-update
func NewMockReleaseServer(t *testing.T, config *MockReleaseServerConfig) *MockReleaseServer {
	t.Helper()
	if config.Owner == "" {
		config.Owner = "owner"
	}
	if config.Repo == "" {
		config.Repo = "repo"
	}

	s := &MockReleaseServer{
		config:    config,
		downloads: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/"+config.Owner+"/"+config.Repo+"/releases/latest", s.handleLatest)
	mux.HandleFunc("/download/", s.handleDownload)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// APICalls returns the number of latest-release requests served
func (s *MockReleaseServer) APICalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiCalls
}

// Downloads returns how often the named asset was downloaded
func (s *MockReleaseServer) Downloads(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads[name]
}

// TotalDownloads returns the number of asset downloads of any name
func (s *MockReleaseServer) TotalDownloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.downloads {
		total += n
	}
	return total
}

// AssetURL returns the download URL of the named asset
func (s *MockReleaseServer) AssetURL(name string) string {
	return s.URL + "/download/" + name
}

func (s *MockReleaseServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.apiCalls++
	fail := s.failed < s.config.FailFirst
	if fail {
		s.failed++
	}
	s.mu.Unlock()

	if fail {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}

	if s.config.Tag == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
		return
	}

	release := &github.RepositoryRelease{
		TagName: github.String(s.config.Tag),
		Name:    github.String(s.config.Tag),
	}
	for _, a := range s.allAssets() {
		release.Assets = append(release.Assets, &github.ReleaseAsset{
			Name:               github.String(a.Name),
			BrowserDownloadURL: github.String(s.AssetURL(a.Name)),
			Size:               github.Int(len(a.Data)),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(release)
}

func (s *MockReleaseServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/download/")

	s.mu.Lock()
	s.downloads[name]++
	s.mu.Unlock()

	if r.Header.Get("Authorization") != "" {
		http.Error(w, "credentials must not be sent to the asset host", http.StatusBadRequest)
		return
	}

	for _, a := range s.allAssets() {
		if a.Name != name {
			continue
		}
		if a.Status != 0 && a.Status != http.StatusOK {
			http.Error(w, http.StatusText(a.Status), a.Status)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", fmt.Sprint(len(a.Data)))
		w.WriteHeader(http.StatusOK)
		if a.Truncate > 0 && a.Truncate < len(a.Data) {
			_, _ = w.Write(a.Data[:a.Truncate])
			return
		}
		_, _ = w.Write(a.Data)
		return
	}
	http.NotFound(w, r)
}

func (s *MockReleaseServer) allAssets() []ReleaseAsset {
	assets := append([]ReleaseAsset(nil), s.config.Assets...)
	if s.config.WithChecksums {
		var sb strings.Builder
		for _, a := range s.config.Assets {
			sum := sha256.Sum256(a.Data)
			fmt.Fprintf(&sb, "%s  %s\n", hex.EncodeToString(sum[:]), a.Name)
		}
		assets = append(assets, ReleaseAsset{Name: "checksums.txt", Data: []byte(sb.String())})
	}
	return assets
}

// ScriptBinary returns a shell script that prints version, usable as a fake release binary
func ScriptBinary(version string) []byte {
	return []byte("#!/bin/sh\necho " + version + "\n")
}
