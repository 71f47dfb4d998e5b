package models

// Region is a named slice of flash memory. The active region is where the
// user program is placed.
type Region struct {
	Name     string `json:"name"`
	Start    uint64 `json:"start"`
	Size     uint64 `json:"size"`
	Active   bool   `json:"active"`
	Filename string `json:"filename"`
}
