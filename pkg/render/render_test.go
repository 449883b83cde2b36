package render

import (
	"bytes"
	stdjson "encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/grafana/readelf/pkg/elfreader"
	"github.com/grafana/readelf/pkg/elfreader/elftest"
	"github.com/grafana/readelf/pkg/inspect"
)

func loadSpec(t *testing.T, spec elftest.Spec) *elfreader.File {
	t.Helper()
	data, _ := elftest.Build(spec)
	f, err := elfreader.NewFile(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return f
}

func printTo(t *testing.T, opts Options, fn func(p *Printer) error) string {
	t.Helper()
	var buf bytes.Buffer
	p := NewPrinter(&buf, opts)
	require.NoError(t, fn(p))
	require.NoError(t, p.Close())
	return buf.String()
}

func TestFileHeaderText(t *testing.T) {
	f := loadSpec(t, elftest.Minimal64())
	out := printTo(t, Options{}, func(p *Printer) error { return p.FileHeader("a.out", f) })

	assert.Contains(t, out, "ELF Header:\n")
	assert.Contains(t, out, "  Magic:                             7f 45 4c 46 02 01 01 00")
	assert.Contains(t, out, "  Class:                             ELF64\n")
	assert.Contains(t, out, "  Data:                              2's complement, little endian\n")
	assert.Contains(t, out, "  Version:                           1 (current)\n")
	assert.Contains(t, out, "  Entry point address:               0x401000\n")
	assert.Contains(t, out, "  Number of section headers:         3\n")
	assert.Contains(t, out, "  Section header string table index: 2\n")
	assert.NotContains(t, out, "File: a.out")
}

func TestFileHeaderJSON(t *testing.T) {
	f := loadSpec(t, elftest.Minimal64())
	out := printTo(t, Options{Format: FormatJSON}, func(p *Printer) error { return p.FileHeader("a.out", f) })

	var v map[string]interface{}
	require.NoError(t, stdjson.Unmarshal([]byte(out), &v))
	assert.Equal(t, "a.out", v["file"])
	assert.Equal(t, "ELF64", v["class"])
	assert.Equal(t, "0x401000", v["entry"])
	assert.Equal(t, 64.0, v["header_size"])
	assert.Equal(t, 2.0, v["string_table_index"])
}

func TestSectionHeaders(t *testing.T) {
	spec := elftest.Minimal64()
	spec.Sections = append(spec.Sections, elftest.Section{
		Name: ".a_very_long_section_name", Type: elftest.SHT_PROGBITS, Data: []byte{1}, Addralign: 1,
	})
	f := loadSpec(t, spec)

	out := printTo(t, Options{FileNames: true}, func(p *Printer) error { return p.SectionHeaders("a.out", f) })
	assert.Contains(t, out, "File: a.out\n")
	assert.Contains(t, out, "There are 4 section headers")
	assert.Contains(t, out, "Section Headers:")
	assert.Contains(t, out, ".text")
	assert.Contains(t, out, "PROGBITS")
	assert.Contains(t, out, "0000000000401000")
	assert.Contains(t, out, "AX")
	assert.Contains(t, out, ".a_very_long[...]")
	assert.NotContains(t, out, ".a_very_long_section_name")
	assert.Contains(t, out, "Key to Flags:")

	wide := printTo(t, Options{Wide: true}, func(p *Printer) error { return p.SectionHeaders("a.out", f) })
	assert.Contains(t, wide, ".a_very_long_section_name")

	var doc sectionsDoc
	out = printTo(t, Options{Format: FormatYAML}, func(p *Printer) error { return p.SectionHeaders("a.out", f) })
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Sections, 4)
	assert.Equal(t, "", doc.Sections[0].Name)
	assert.Equal(t, ".text", doc.Sections[1].Name)
	assert.Equal(t, "AX", doc.Sections[1].Flags)
	assert.Equal(t, "0x401000", doc.Sections[1].Address)
	assert.Equal(t, ".a_very_long_section_name", doc.Sections[2].Name)
	assert.Equal(t, ".shstrtab", doc.Sections[3].Name)
}

func TestSectionNamesAreEscaped(t *testing.T) {
	spec := elftest.Minimal64()
	spec.Sections = append(spec.Sections,
		elftest.Section{Name: ".evil\x1b[2J", Type: elftest.SHT_PROGBITS, Data: []byte{1}, Addralign: 1},
		elftest.Section{Name: "." + strings.Repeat("é", 16), Type: elftest.SHT_PROGBITS, Data: []byte{2}, Addralign: 1},
		elftest.Section{Name: "." + strings.Repeat("é", 20), Type: elftest.SHT_PROGBITS, Data: []byte{3}, Addralign: 1},
	)
	f := loadSpec(t, spec)

	out := printTo(t, Options{}, func(p *Printer) error { return p.Headers("", f) })
	assert.NotContains(t, out, "\x1b")
	assert.Contains(t, out, ".evil^[[2J")
	assert.True(t, utf8.ValidString(out))

	table := printTo(t, Options{}, func(p *Printer) error { return p.SectionHeaders("", f) })
	assert.Contains(t, table, "."+strings.Repeat("é", 16))
	assert.NotContains(t, table, "."+strings.Repeat("é", 17))
	assert.Contains(t, table, "."+strings.Repeat("é", 11)+"[...]")
	assert.True(t, utf8.ValidString(table))

	tree := printTo(t, Options{Tree: true}, func(p *Printer) error { return p.ProgramHeaders("", f) })
	assert.NotContains(t, tree, "\x1b")
	assert.Contains(t, tree, ".evil^[[2J")

	out = printTo(t, Options{}, func(p *Printer) error { return p.HexDump("", f, 2) })
	assert.Contains(t, out, "Hex dump of section '.evil^[[2J':")

	var doc sectionsDoc
	out = printTo(t, Options{Format: FormatJSON}, func(p *Printer) error { return p.SectionHeaders("", f) })
	require.NoError(t, stdjson.Unmarshal([]byte(out), &doc))
	assert.Equal(t, ".evil\x1b[2J", doc.Sections[2].Name)
}

func TestSectionHeadersNoSections(t *testing.T) {
	spec := elftest.Minimal64()
	spec.NoSections = true
	f := loadSpec(t, spec)
	out := printTo(t, Options{}, func(p *Printer) error { return p.SectionHeaders("", f) })
	assert.Contains(t, out, "There are no sections in this file.")
}

func TestProgramHeaders(t *testing.T) {
	f := loadSpec(t, elftest.Minimal64())

	out := printTo(t, Options{}, func(p *Printer) error { return p.ProgramHeaders("", f) })
	assert.Contains(t, out, "Elf file type is EXEC (Executable file)")
	assert.Contains(t, out, "Entry point 0x401000")
	assert.Contains(t, out, "There are 1 program headers, starting at offset 64")
	assert.Contains(t, out, "LOAD")
	assert.Contains(t, out, "0x0000000000400000")
	assert.Contains(t, out, "R E")
	assert.Contains(t, out, "0x1000")
	assert.Contains(t, out, "Section to Segment mapping:")
	assert.Contains(t, out, "   00     .text .shstrtab\n")

	tree := printTo(t, Options{Tree: true}, func(p *Printer) error { return p.ProgramHeaders("", f) })
	assert.Contains(t, tree, "segments\n")
	assert.Contains(t, tree, "00 LOAD")
	assert.Contains(t, tree, ".shstrtab")
	assert.NotContains(t, tree, "Segment Sections...")

	var doc segmentsDoc
	out = printTo(t, Options{Format: FormatJSON}, func(p *Printer) error { return p.ProgramHeaders("", f) })
	require.NoError(t, stdjson.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Segments, 1)
	assert.Equal(t, "LOAD", doc.Segments[0].Type)
	assert.Equal(t, "R E", doc.Segments[0].Flags)
	assert.Equal(t, []string{".text", ".shstrtab"}, doc.Segments[0].Sections)
	assert.Equal(t, "0x401000", doc.Entry)
}

func TestProgramHeadersNone(t *testing.T) {
	spec := elftest.Minimal64()
	spec.Progs = nil
	f := loadSpec(t, spec)
	out := printTo(t, Options{}, func(p *Printer) error { return p.ProgramHeaders("", f) })
	assert.Contains(t, out, "There are no program headers in this file.")
}

func TestHeaders(t *testing.T) {
	f := loadSpec(t, elftest.Minimal64())

	out := printTo(t, Options{}, func(p *Printer) error { return p.Headers("", f) })
	assert.Contains(t, out, "ELF Header:")
	assert.Contains(t, out, "Section Headers:")
	assert.Contains(t, out, "Program Headers:")

	out = printTo(t, Options{Format: FormatYAML}, func(p *Printer) error {
		if err := p.Headers("a", f); err != nil {
			return err
		}
		return p.Headers("b", f)
	})
	dec := yaml.NewDecoder(bytes.NewReader([]byte(out)))
	for _, name := range []string{"a", "b"} {
		var doc headersDoc
		require.NoError(t, dec.Decode(&doc))
		assert.Equal(t, name, doc.File)
		assert.Equal(t, "ELF64", doc.Header.Class)
		assert.Len(t, doc.Sections, 3)
		assert.Len(t, doc.Segments, 1)
	}
}

func TestHexDump(t *testing.T) {
	spec := elftest.Minimal64()
	spec.Sections = append(spec.Sections, elftest.Section{
		Name: ".rodata", Type: elftest.SHT_PROGBITS, Flags: elftest.SHF_ALLOC, Addr: 0x402000, Addralign: 1,
		Data: []byte("hello, world\x00\x01\x02\x03ELF"),
	}, elftest.Section{Name: ".bss", Type: elftest.SHT_NOBITS, Flags: elftest.SHF_ALLOC | elftest.SHF_WRITE, Addr: 0x403000, Size: 64, Addralign: 8})
	f := loadSpec(t, spec)

	idx, _, ok := f.SectionByName(".rodata")
	require.True(t, ok)
	out := printTo(t, Options{}, func(p *Printer) error { return p.HexDump("", f, idx) })
	assert.Equal(t, "\nHex dump of section '.rodata':\n"+
		"  0x00402000 68656c6c 6f2c2077 6f726c64 00010203 hello, world....\n"+
		"  0x00402010 454c46                              ELF\n", out)

	bss, _, ok := f.SectionByName(".bss")
	require.True(t, ok)
	out = printTo(t, Options{}, func(p *Printer) error { return p.HexDump("", f, bss) })
	assert.Contains(t, out, "Section '.bss' has no data to dump.")

	var v dumpView
	out = printTo(t, Options{Format: FormatJSON}, func(p *Printer) error { return p.HexDump("", f, 1) })
	require.NoError(t, stdjson.Unmarshal([]byte(out), &v))
	assert.Equal(t, ".text", v.Section)
	assert.Equal(t, "909090c3", v.Data)

	var buf bytes.Buffer
	require.Error(t, NewPrinter(&buf, Options{}).HexDump("", f, 42))
}

func TestStringDump(t *testing.T) {
	f := loadSpec(t, elftest.Minimal64())
	out := printTo(t, Options{}, func(p *Printer) error { return p.StringDump("", f, f.StringTableIndex()) })
	assert.Equal(t, "\nString dump of section '.shstrtab':\n"+
		"  [     1]  .text\n"+
		"  [     7]  .shstrtab\n", out)

	var v stringsView
	out = printTo(t, Options{Format: FormatYAML}, func(p *Printer) error { return p.StringDump("", f, f.StringTableIndex()) })
	require.NoError(t, yaml.Unmarshal([]byte(out), &v))
	assert.Equal(t, []stringEntry{{Offset: 1, Value: ".text"}, {Offset: 7, Value: ".shstrtab"}}, v.Strings)
}

func TestExtractStrings(t *testing.T) {
	assert.Empty(t, extractStrings(nil))
	assert.Empty(t, extractStrings([]byte{0, 0, 0}))
	assert.Equal(t, []stringEntry{{0, "ab"}, {4, "c^I"}}, extractStrings([]byte("ab\x00\x00c\t")))
	assert.Equal(t, []stringEntry{{1, "^?x"}}, extractStrings([]byte("\x00\x7fx\x00")))
}

func TestBuildID(t *testing.T) {
	id := elfreader.GNUBuildID("deadbeef")
	out := printTo(t, Options{}, func(p *Printer) error { return p.BuildID("a.out", id) })
	assert.Equal(t, "gnu deadbeef\n", out)
	out = printTo(t, Options{FileNames: true}, func(p *Printer) error { return p.BuildID("a.out", id) })
	assert.Equal(t, "a.out: gnu deadbeef\n", out)

	var v buildIDView
	out = printTo(t, Options{Format: FormatJSON}, func(p *Printer) error { return p.BuildID("a.out", id) })
	require.NoError(t, stdjson.Unmarshal([]byte(out), &v))
	assert.Equal(t, buildIDView{File: "a.out", Type: "gnu", ID: "deadbeef"}, v)
}

func TestSummaries(t *testing.T) {
	summaries := []inspect.Summary{
		{Path: "/bin/a", Class: "ELF64", Encoding: "2's complement, little endian", Type: "EXEC (Executable file)", Machine: "Advanced Micro Devices X86-64", Sections: 3, Segments: 1, Size: 2048, Compression: "none"},
		{Path: "/bin/b", Error: "bad magic"},
	}
	out := printTo(t, Options{}, func(p *Printer) error { return p.Summaries(summaries) })
	assert.Contains(t, out, "/bin/a")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "error: bad magic")

	var v []inspect.Summary
	out = printTo(t, Options{Format: FormatJSON}, func(p *Printer) error { return p.Summaries(summaries) })
	require.NoError(t, stdjson.Unmarshal([]byte(out), &v))
	assert.Equal(t, summaries, v)
}

func TestColor(t *testing.T) {
	f := loadSpec(t, elftest.Minimal64())
	plain := printTo(t, Options{}, func(p *Printer) error { return p.FileHeader("", f) })
	assert.NotContains(t, plain, "\x1b[")
	colored := printTo(t, Options{Color: true}, func(p *Printer) error { return p.FileHeader("", f) })
	assert.Contains(t, colored, "\x1b[1mELF Header:")
}
