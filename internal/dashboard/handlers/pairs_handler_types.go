package handlers

import "github.com/crosswatch/dashd/internal/cwsdk"

type PairsResponse struct {
	Pairs []cwsdk.Pair `json:"pairs"`
}

type ToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type MoveRequest struct {
	Direction string `json:"direction" binding:"required"`
}
