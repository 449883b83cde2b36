package elfreader

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/readelf/pkg/elfreader/elftest"
)

const testGoBuildID = "92fNM3QG6qxprToyNKC6/aWDMs1NbNgS6utRcIALh/OnWrTUXnoISctQzMsAsP/X49oo_6m-sncjFUHr8D7"

func withNotes(data byte, notes ...elftest.Section) elftest.Spec {
	spec := elftest.Minimal64()
	spec.Data = data
	spec.Sections = append(spec.Sections, notes...)
	return spec
}

func noteSection(name string, payload []byte) elftest.Section {
	return elftest.Section{Name: name, Type: elftest.SHT_NOTE, Flags: elftest.SHF_ALLOC, Data: payload, Addralign: 4}
}

func TestBuildID(t *testing.T) {
	gnu := []byte{
		0x1f, 0xcf, 0xa0, 0x68, 0xc5, 0xfd, 0xb9, 0xf3, 0x1e, 0x6d,
		0x9f, 0x3f, 0x89, 0x01, 0x9b, 0xea, 0xcb, 0x70, 0x18, 0x2d,
	}
	testcases := []struct {
		name string
		spec elftest.Spec
		typ  string
		id   string
	}{
		{
			name: "gnu little endian",
			spec: withNotes(elftest.LSB, noteSection(".note.gnu.build-id", elftest.GNUBuildIDNote(binary.LittleEndian, gnu))),
			typ:  "gnu",
			id:   "1fcfa068c5fdb9f31e6d9f3f89019beacb70182d",
		},
		{
			name: "gnu big endian",
			spec: withNotes(elftest.MSB, noteSection(".note.gnu.build-id", elftest.GNUBuildIDNote(binary.BigEndian, gnu))),
			typ:  "gnu",
			id:   "1fcfa068c5fdb9f31e6d9f3f89019beacb70182d",
		},
		{
			name: "gnu xxhash",
			spec: withNotes(elftest.LSB, noteSection(".note.gnu.build-id", elftest.GNUBuildIDNote(binary.LittleEndian, gnu[:8]))),
			typ:  "gnu",
			id:   "1fcfa068c5fdb9f3",
		},
		{
			name: "go",
			spec: withNotes(elftest.LSB, noteSection(".note.go.buildid", elftest.GoBuildIDNote(binary.LittleEndian, testGoBuildID))),
			typ:  "go",
			id:   testGoBuildID,
		},
		{
			name: "gnu preferred over go",
			spec: withNotes(elftest.LSB,
				noteSection(".note.go.buildid", elftest.GoBuildIDNote(binary.LittleEndian, testGoBuildID)),
				noteSection(".note.gnu.build-id", elftest.GNUBuildIDNote(binary.LittleEndian, gnu)),
			),
			typ: "gnu",
			id:  "1fcfa068c5fdb9f31e6d9f3f89019beacb70182d",
		},
		{
			name: "no notes",
			spec: elftest.Minimal64(),
		},
		{
			name: "gnu wrong size",
			spec: withNotes(elftest.LSB, noteSection(".note.gnu.build-id", elftest.GNUBuildIDNote(binary.LittleEndian, gnu[:5]))),
		},
		{
			name: "go too short",
			spec: withNotes(elftest.LSB, noteSection(".note.go.buildid", elftest.GoBuildIDNote(binary.LittleEndian, "a/b/c"))),
		},
		{
			name: "truncated note",
			spec: withNotes(elftest.LSB, noteSection(".note.gnu.build-id", elftest.GNUBuildIDNote(binary.LittleEndian, gnu)[:20])),
		},
		{
			name: "not a note section",
			spec: withNotes(elftest.LSB, elftest.Section{
				Name: ".note.gnu.build-id", Type: elftest.SHT_PROGBITS,
				Data: elftest.GNUBuildIDNote(binary.LittleEndian, gnu),
			}),
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			data, _ := elftest.Build(tc.spec)
			f := loadT(t, data)
			id, err := f.BuildID()
			if tc.id == "" {
				require.Error(t, err)
				require.True(t, id.Empty())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.id, id.ID)
			require.Equal(t, tc.typ, id.Typ)
			require.Equal(t, tc.typ == "gnu", id.GNU())
		})
	}
}

func TestBuildIDMissingSection(t *testing.T) {
	data, _ := elftest.Build(elftest.Minimal64())
	f := loadT(t, data)

	_, err := f.BuildID()
	require.ErrorIs(t, err, ErrNoBuildIDSection)
	_, err = f.GNUBuildID()
	require.ErrorIs(t, err, ErrNoBuildIDSection)
	_, err = f.GoBuildID()
	require.ErrorIs(t, err, ErrNoBuildIDSection)
}
