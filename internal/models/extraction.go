package models

import "time"

// ExtractionRecord is a persisted extraction result
type ExtractionRecord struct {
	ID         string      `json:"id"`
	Target     string      `json:"target" badgerhold:"index"`
	Toolchain  string      `json:"toolchain"`
	SymbolsKey string      `json:"symbols_key"` // sha256 over the sanitized symbols
	Info       ProjectInfo `json:"info"`
	CreatedAt  time.Time   `json:"created_at"`
}
