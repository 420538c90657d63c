package handlers

import "github.com/crosswatch/dashd/internal/logstream"

type LogsResponse struct {
	Blocks []logstream.Block `json:"blocks"`
}
