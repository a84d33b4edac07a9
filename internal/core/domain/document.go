package domain

import "time"

// DocumentStatus is the outcome state of an external posting call.
type DocumentStatus string

const (
	DocumentPosted DocumentStatus = "POSTED"
	DocumentParked DocumentStatus = "PARKED"
	DocumentError  DocumentStatus = "ERROR"
)

// ExternalDocument is the result of a post/park/reverse call against an
// external accounting system. Never mutated after return; a reversal
// produces a new ExternalDocument.
type ExternalDocument struct {
	DocumentNumber  string         `json:"documentNumber"`
	FiscalPeriodKey string         `json:"fiscalPeriodKey"`
	CompanyCode     string         `json:"companyCode"`
	DocumentType    string         `json:"documentType"`
	PostingDate     time.Time      `json:"postingDate"`
	Reference       string         `json:"reference"` // Caller's correlation id
	Status          DocumentStatus `json:"status"`
	ErrorMessage    string         `json:"errorMessage,omitempty"`
}
