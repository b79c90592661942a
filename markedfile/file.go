package markedfile

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Signature marks a file as fully owned by the generator. Files carrying it
// on a line of their own may be regenerated or deleted wholesale.
const Signature = "/* @generated and managed by dieselsync, do not edit */"

// Names follow Rust identifier rules, including Unicode letters and raw r#
// identifiers.
var (
	reModLine = regexp.MustCompile(`^\s*(?:pub(?:\s*\([^)]*\))?\s+)?mod\s+((?:r#)?[\p{L}_][\p{L}\p{N}_]*)\s*;\s*(?://.*)?$`)
	reUseLine = regexp.MustCompile(`^\s*(?:pub(?:\s*\([^)]*\))?\s+)?use\s+((?:r#)?[\p{L}_][\p{L}\p{N}_:#\s]*?(?:::\s*\*)?)\s*;\s*(?://.*)?$`)
)

// File is one file on disk, loaded lazily on first access and persisted only
// by Write. It is not safe for concurrent use.
type File struct {
	path     string
	contents string
	original string
	loaded   bool
	existed  bool
}

// New returns an unloaded File for path.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the file's path.
func (f *File) Path() string {
	return f.path
}

func (f *File) load() error {
	if f.loaded {
		return nil
	}
	data, err := os.ReadFile(f.path)
	switch {
	case err == nil:
		f.existed = true
	case errors.Is(err, fs.ErrNotExist):
		f.existed = false
	default:
		return NewFilesystemError("read", f.path, err)
	}
	f.contents = string(data)
	f.original = f.contents
	f.loaded = true
	return nil
}

// Contents returns the current in-memory text.
func (f *File) Contents() (string, error) {
	if err := f.load(); err != nil {
		return "", err
	}
	return f.contents, nil
}

// SetContents replaces the in-memory text.
func (f *File) SetContents(s string) error {
	if err := f.load(); err != nil {
		return err
	}
	f.contents = s
	return nil
}

// Exists reports whether the file existed when it was loaded.
func (f *File) Exists() (bool, error) {
	if err := f.load(); err != nil {
		return false, err
	}
	return f.existed, nil
}

// IsBlank reports whether the contents are empty or whitespace only.
func (f *File) IsBlank() (bool, error) {
	if err := f.load(); err != nil {
		return false, err
	}
	return strings.TrimSpace(f.contents) == "", nil
}

// Changed reports whether Write would modify the file on disk.
func (f *File) Changed() bool {
	return !f.loaded || !f.existed || f.contents != f.original
}

// HasSignature reports whether a line of the file is exactly Signature.
func (f *File) HasSignature() (bool, error) {
	if err := f.load(); err != nil {
		return false, err
	}
	for _, line := range splitLines(f.contents) {
		if strings.TrimSpace(line) == Signature {
			return true, nil
		}
	}
	return false, nil
}

// EnsureSignature prepends Signature unless it is already present.
func (f *File) EnsureSignature() error {
	ok, err := f.HasSignature()
	if err != nil || ok {
		return err
	}
	lines := append([]string{Signature}, splitLines(f.contents)...)
	f.contents = joinLines(lines)
	return nil
}

// EnsureModule adds `pub mod name;` unless a mod line declaring name exists.
func (f *File) EnsureModule(name string) error {
	return f.ensure(reModLine, name, "pub mod "+name+";", reUseLine)
}

// EnsureReexport adds `pub use path;` unless a use line for path exists.
func (f *File) EnsureReexport(path string) error {
	return f.ensure(reUseLine, path, "pub use "+path+";", reModLine)
}

// RemoveModule drops every mod line declaring name.
func (f *File) RemoveModule(name string) error {
	return f.remove(reModLine, name)
}

// RemoveReexport drops every use line for path.
func (f *File) RemoveReexport(path string) error {
	return f.remove(reUseLine, path)
}

// HasModule reports whether a mod line declares name.
func (f *File) HasModule(name string) (bool, error) {
	if err := f.load(); err != nil {
		return false, err
	}
	return indexOf(splitLines(f.contents), reModLine, name) >= 0, nil
}

// HasReexport reports whether a use line re-exports path.
func (f *File) HasReexport(path string) (bool, error) {
	if err := f.load(); err != nil {
		return false, err
	}
	return indexOf(splitLines(f.contents), reUseLine, path) >= 0, nil
}

// ensure inserts line after the last line matching re, else next to the
// neighbouring block (before it for mod lines, after it for use lines), else
// at the end of the file.
func (f *File) ensure(re *regexp.Regexp, name, line string, neighbour *regexp.Regexp) error {
	if err := f.load(); err != nil {
		return err
	}
	lines := splitLines(f.contents)
	if indexOf(lines, re, name) >= 0 {
		return nil
	}
	if usesCRLF(lines) {
		line += "\r"
	}

	pos := len(lines)
	if last := lastMatch(lines, re); last >= 0 {
		pos = last + 1
	} else if re == reModLine {
		if first := firstMatch(lines, neighbour); first >= 0 {
			pos = first
		}
	} else if last := lastMatch(lines, neighbour); last >= 0 {
		pos = last + 1
	}

	lines = append(lines[:pos], append([]string{line}, lines[pos:]...)...)
	f.contents = joinLines(lines)
	return nil
}

func (f *File) remove(re *regexp.Regexp, name string) error {
	if err := f.load(); err != nil {
		return err
	}
	lines := splitLines(f.contents)
	kept := lines[:0:0]
	for _, l := range lines {
		if matches(re, l, name) {
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) != len(lines) {
		f.contents = joinLines(kept)
	}
	return nil
}

// Write persists the contents, creating the file if needed. An existing file
// whose contents did not change is left untouched.
func (f *File) Write() error {
	if err := f.load(); err != nil {
		return err
	}
	if !f.Changed() {
		return nil
	}
	if err := os.WriteFile(f.path, []byte(f.contents), 0o644); err != nil {
		return NewFilesystemError("write", f.path, err)
	}
	f.original = f.contents
	f.existed = true
	return nil
}

// Delete removes the file. A file that is already gone is not an error.
func (f *File) Delete() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewFilesystemError("remove", f.path, err)
	}
	f.contents, f.original = "", ""
	f.loaded, f.existed = true, false
	return nil
}

// ── Line helpers ──────────────────────────────────────────────────────────────

// matches reports whether line is a declaration recognised by re for name.
// Whitespace inside the declared path is ignored.
func matches(re *regexp.Regexp, line, name string) bool {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	return stripSpace(m[1]) == stripSpace(name)
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func indexOf(lines []string, re *regexp.Regexp, name string) int {
	for i, l := range lines {
		if matches(re, l, name) {
			return i
		}
	}
	return -1
}

func firstMatch(lines []string, re *regexp.Regexp) int {
	for i, l := range lines {
		if re.MatchString(l) {
			return i
		}
	}
	return -1
}

func lastMatch(lines []string, re *regexp.Regexp) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if re.MatchString(lines[i]) {
			return i
		}
	}
	return -1
}

func usesCRLF(lines []string) bool {
	return len(lines) > 0 && strings.HasSuffix(lines[0], "\r")
}

// splitLines splits s into lines without their "\n" terminators.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
