package models

// FileRef is a file reference produced by the resource scanner. Location
// still carries the framework's internal root segments.
type FileRef struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Path returns the raw location of the reference
func (f FileRef) Path() string {
	return f.Location
}

// Resources is the categorized result of one resource scan. It is owned by
// the extraction call that requested it.
type Resources struct {
	ASMSources   []FileRef
	CSources     []FileRef
	CPPSources   []FileRef
	IncDirs      []FileRef
	LinkerScript *FileRef
	Libraries    []FileRef
	LibDirs      []FileRef
	Objects      []FileRef
	HexFiles     []FileRef
	BinFiles     []FileRef
}
