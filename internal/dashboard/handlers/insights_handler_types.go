package handlers

import "github.com/crosswatch/dashd/internal/history"

type RunHistoryResponse struct {
	Runs []history.Entry `json:"runs"`
}
