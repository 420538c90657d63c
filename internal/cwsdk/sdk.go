// Package cwsdk is the typed client for the CrossWatch backend REST/SSE API.
// The backend is an external collaborator; this package never reinterprets
// its semantics, it only decodes them.
package cwsdk

import (
	"time"

	"github.com/crosswatch/dashd/internal/version"
	"resty.dev/v3"
)

// SDK is the main client for the CrossWatch backend API.
type SDK struct {
	client  *resty.Client
	baseURL string

	Plex       *PlexAPI
	Config     *ConfigAPI
	Pairs      *PairsAPI
	Runs       *RunsAPI
	Insights   *InsightsAPI
	Scheduling *SchedulingAPI
	Analyzer   *AnalyzerAPI
	Snapshots  *SnapshotsAPI
	Watch      *WatchAPI
}

// New creates a new SDK client for the given backend base URL.
func New(baseURL string) (*SDK, error) {
	if baseURL == "" {
		return nil, ErrNoServerURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader(HeaderUserAgent, UserAgent).
		SetHeader(HeaderDashVersion, version.Version).
		AddContentTypeEncoder("json", jsonEncoder).
		AddContentTypeDecoder("json", jsonDecoder)

	return &SDK{
		client:     client,
		baseURL:    baseURL,
		Plex:       newPlexAPI(client),
		Config:     newConfigAPI(client),
		Pairs:      newPairsAPI(client),
		Runs:       newRunsAPI(client, baseURL),
		Insights:   newInsightsAPI(client),
		Scheduling: newSchedulingAPI(client),
		Analyzer:   newAnalyzerAPI(client),
		Snapshots:  newSnapshotsAPI(client),
		Watch:      newWatchAPI(client),
	}, nil
}

// BaseURL returns the configured backend base URL.
func (s *SDK) BaseURL() string {
	return s.baseURL
}

// Close terminates all connections and cleans up resources.
func (s *SDK) Close() {
	s.client.Close()
}
