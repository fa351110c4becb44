package source

// FileID indexes a FileSet in the order files were added.
type FileID uint32

// FileFlags records how a file's bytes were obtained and normalized.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // added from memory
	FileHadBOM                               // a UTF-8 BOM was stripped
	FileNormalizedCRLF                       // CRLF line ends became LF
)

// File is one loaded source text. LineIdx holds the offset of every '\n'.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based line and column.
type LineCol struct {
	Line uint32
	Col  uint32
}
