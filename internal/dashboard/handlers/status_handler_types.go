package handlers

type RunInfo struct {
	Running bool   `json:"running"`
	RunID   string `json:"run_id,omitempty"`
	Percent int    `json:"percent"`
}

type StatusResponse struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version"`
	Revision  string          `json:"revision"`
	BuildDate string          `json:"buildDate"`
	Backend   string          `json:"backend"`
	Streams   map[string]bool `json:"streams"`
	Run       RunInfo         `json:"run"`
}
