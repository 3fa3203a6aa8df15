package api

import (
	"github.com/starford/vaultdigest/internal/digestservice"
	"github.com/starford/vaultdigest/internal/history"
	"github.com/starford/vaultdigest/internal/models"
)

// GenerateResponse is the run summary returned by POST /api/digest.
type GenerateResponse = digestservice.Report

// RunDetail is a recorded run with its ordered document list.
type RunDetail = digestservice.RunDetail

// VerifyResponse is the outcome of GET /api/verify.
type VerifyResponse = digestservice.VerifyReport

// RunListResponse wraps recent runs.
type RunListResponse struct {
	Runs []history.Run `json:"runs" validate:"required"`
}

// RandomResponse is a single randomly chosen document.
type RandomResponse struct {
	Document models.Document `json:"document" validate:"required"`
}
