package models

// BuildFlags holds one toolchain's flag sets, as found in a build profile.
type BuildFlags struct {
	Common []string `json:"common" yaml:"common" toml:"common"`
	ASM    []string `json:"asm" yaml:"asm" toml:"asm"`
	C      []string `json:"c" yaml:"c" toml:"c"`
	CXX    []string `json:"cxx" yaml:"cxx" toml:"cxx"`
	LD     []string `json:"ld" yaml:"ld" toml:"ld"`
}

// Merge appends other's flags to a copy of f. Lists in the result are
// never nil.
func (f BuildFlags) Merge(other BuildFlags) BuildFlags {
	return BuildFlags{
		Common: append(append([]string{}, f.Common...), other.Common...),
		ASM:    append(append([]string{}, f.ASM...), other.ASM...),
		C:      append(append([]string{}, f.C...), other.C...),
		CXX:    append(append([]string{}, f.CXX...), other.CXX...),
		LD:     append(append([]string{}, f.LD...), other.LD...),
	}
}

// Clone returns a copy of f whose lists are never nil
func (f BuildFlags) Clone() BuildFlags {
	return f.Merge(BuildFlags{})
}

// Profile is one build-profile document: toolchain name -> flags.
type Profile map[string]BuildFlags

// ProjectInfo is the flat, build-system-agnostic description handed to the
// build-description layer. Path-valued fields are project-relative.
type ProjectInfo struct {
	SrcFiles     []string   `json:"src_files" yaml:"src_files" toml:"src_files"`
	IncDirs      []string   `json:"inc_dirs" yaml:"inc_dirs" toml:"inc_dirs"`
	LDScript     []string   `json:"ldscript" yaml:"ldscript" toml:"ldscript"`
	Objs         []string   `json:"objs" yaml:"objs" toml:"objs"`
	BuildFlags   BuildFlags `json:"build_flags" yaml:"build_flags" toml:"build_flags"`
	Libs         []string   `json:"libs" yaml:"libs" toml:"libs"`
	LibPaths     []string   `json:"lib_paths" yaml:"lib_paths" toml:"lib_paths"`
	SysLibs      []string   `json:"syslibs" yaml:"syslibs" toml:"syslibs"`
	BuildSymbols []string   `json:"build_symbols" yaml:"build_symbols" toml:"build_symbols"`
	Hex          []string   `json:"hex" yaml:"hex" toml:"hex"`
	Bin          []string   `json:"bin" yaml:"bin" toml:"bin"`
}
