package elfreader

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

type BuildID struct {
	ID  string
	Typ string
}

func GNUBuildID(s string) BuildID {
	return BuildID{ID: s, Typ: "gnu"}
}

func GoBuildID(s string) BuildID {
	return BuildID{ID: s, Typ: "go"}
}

func (b *BuildID) Empty() bool {
	return b.ID == "" || b.Typ == ""
}

func (b *BuildID) GNU() bool {
	return b.Typ == "gnu"
}

var (
	ErrNoBuildIDSection = fmt.Errorf("build ID section not found")
)

const (
	noteHeaderSize = 12
	ntGNUBuildID   = 3
	ntGoBuildID    = 4
)

// BuildID returns the GNU build ID if the file has one, and the Go build ID
// otherwise.
func (f *File) BuildID() (BuildID, error) {
	id, err := f.GNUBuildID()
	if err != nil && !errors.Is(err, ErrNoBuildIDSection) {
		return BuildID{}, err
	}
	if !id.Empty() {
		return id, nil
	}
	id, err = f.GoBuildID()
	if err != nil && !errors.Is(err, ErrNoBuildIDSection) {
		return BuildID{}, err
	}
	if !id.Empty() {
		return id, nil
	}

	return BuildID{}, ErrNoBuildIDSection
}

var goBuildIDSep = []byte("/")

func (f *File) GoBuildID() (BuildID, error) {
	name, desc, err := f.note(".note.go.buildid", ntGoBuildID)
	if err != nil {
		return BuildID{}, err
	}
	if name != "Go" {
		return BuildID{}, fmt.Errorf(".note.go.buildid has owner %q", name)
	}
	desc = bytes.TrimRight(desc, "\x00")
	if len(desc) < 40 || bytes.Count(desc, goBuildIDSep) < 2 {
		return BuildID{}, fmt.Errorf("wrong .note.go.buildid %q", desc)
	}
	id := string(desc)
	if id == "redacted" {
		return BuildID{}, fmt.Errorf("blacklisted .note.go.buildid")
	}
	return GoBuildID(id), nil
}

func (f *File) GNUBuildID() (BuildID, error) {
	name, desc, err := f.note(".note.gnu.build-id", ntGNUBuildID)
	if err != nil {
		return BuildID{}, err
	}
	if name != "GNU" {
		return BuildID{}, fmt.Errorf(".note.gnu.build-id is not a GNU build-id")
	}
	if len(desc) != 20 && len(desc) != 8 && len(desc) != 16 { // 8 is xxhash, for example in Container-Optimized OS
		return BuildID{}, fmt.Errorf(".note.gnu.build-id has wrong size %d", len(desc))
	}
	return GNUBuildID(hex.EncodeToString(desc)), nil
}

// note reads the first note of the named section, checks its type and
// returns its owner name without the terminating NUL and its descriptor.
func (f *File) note(section string, typ uint32) (string, []byte, error) {
	idx, s, ok := f.SectionByName(section)
	if !ok {
		return "", nil, ErrNoBuildIDSection
	}
	if s.Type != SHT_NOTE {
		return "", nil, fmt.Errorf("%s has type %s, not NOTE", section, s.Type)
	}
	data, err := f.SectionData(idx)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", section, err)
	}
	if len(data) < noteHeaderSize {
		return "", nil, fmt.Errorf("%s is too small", section)
	}
	bo := f.hdr.ByteOrder()
	namesz := uint64(bo.Uint32(data[0:4]))
	descsz := uint64(bo.Uint32(data[4:8]))
	if ntype := bo.Uint32(data[8:12]); ntype != typ {
		return "", nil, fmt.Errorf("%s: note type %d, want %d", section, ntype, typ)
	}
	descOff := noteHeaderSize + align4(namesz)
	if descOff+descsz > uint64(len(data)) {
		return "", nil, fmt.Errorf("%s: note of %d+%d bytes exceeds section size %d", section, namesz, descsz, len(data))
	}
	name := data[noteHeaderSize : noteHeaderSize+namesz]
	name = bytes.TrimRight(name, "\x00")
	return string(name), data[descOff : descOff+descsz], nil
}

func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}
