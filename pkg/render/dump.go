package render

import (
	"fmt"
	"strings"

	"github.com/grafana/readelf/pkg/elfreader"
)

const hexDumpWidth = 16

type dumpView struct {
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
	Section string `json:"section" yaml:"section"`
	Index   int    `json:"index" yaml:"index"`
	Address string `json:"address" yaml:"address"`
	Data    string `json:"data,omitempty" yaml:"data,omitempty"`
}

type stringsView struct {
	File    string        `json:"file,omitempty" yaml:"file,omitempty"`
	Section string        `json:"section" yaml:"section"`
	Index   int           `json:"index" yaml:"index"`
	Strings []stringEntry `json:"strings" yaml:"strings"`
}

type stringEntry struct {
	Offset int    `json:"offset" yaml:"offset"`
	Value  string `json:"value" yaml:"value"`
}

// HexDump prints the content of section i as rows of sixteen bytes, each
// prefixed with its virtual address.
func (p *Printer) HexDump(path string, f *elfreader.File, i int) error {
	s, ok := f.Section(i)
	if !ok {
		return fmt.Errorf("section index %d out of range", i)
	}
	data, err := f.SectionData(i)
	if err != nil {
		return err
	}
	if p.structured() {
		return p.encode(dumpView{File: path, Section: s.Name, Index: i, Address: hex(s.Addr), Data: fmt.Sprintf("%x", data)})
	}
	p.fileName(path)
	fmt.Fprintln(p.w)
	if len(data) == 0 {
		fmt.Fprintf(p.w, "Section '%s' has no data to dump.\n", printable([]byte(s.Name)))
		return nil
	}
	p.title("Hex dump of section '%s':", printable([]byte(s.Name)))
	for off := 0; off < len(data); off += hexDumpWidth {
		fmt.Fprintln(p.w, hexDumpLine(s.Addr+uint64(off), data[off:min(off+hexDumpWidth, len(data))]))
	}
	return nil
}

func hexDumpLine(addr uint64, row []byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  0x%08x ", addr)
	for j := 0; j < hexDumpWidth; j++ {
		if j < len(row) {
			fmt.Fprintf(&sb, "%02x", row[j])
		} else {
			sb.WriteString("  ")
		}
		if j%4 == 3 {
			sb.WriteByte(' ')
		}
	}
	for _, b := range row {
		if b >= 0x20 && b < 0x7f {
			sb.WriteByte(b)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// StringDump prints the printable NUL-terminated strings of section i along
// with their offsets.
func (p *Printer) StringDump(path string, f *elfreader.File, i int) error {
	s, ok := f.Section(i)
	if !ok {
		return fmt.Errorf("section index %d out of range", i)
	}
	data, err := f.SectionData(i)
	if err != nil {
		return err
	}
	entries := extractStrings(data)
	if p.structured() {
		return p.encode(stringsView{File: path, Section: s.Name, Index: i, Strings: entries})
	}
	p.fileName(path)
	fmt.Fprintln(p.w)
	if len(data) == 0 {
		fmt.Fprintf(p.w, "Section '%s' has no data to dump.\n", printable([]byte(s.Name)))
		return nil
	}
	p.title("String dump of section '%s':", printable([]byte(s.Name)))
	if len(entries) == 0 {
		fmt.Fprintln(p.w, "  No strings found in this section.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(p.w, "  [%6x]  %s\n", e.Offset, e.Value)
	}
	return nil
}

// extractStrings splits data on NUL bytes and keeps the non-empty runs.
// Non-printable bytes are shown in caret notation.
func extractStrings(data []byte) []stringEntry {
	entries := []stringEntry{}
	start := -1
	for i := 0; i <= len(data); i++ {
		if i < len(data) && data[i] != 0 {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			entries = append(entries, stringEntry{Offset: start, Value: printable(data[start:i])})
			start = -1
		}
	}
	return entries
}

func printable(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		switch {
		case c < 0x20:
			sb.WriteByte('^')
			sb.WriteByte(c + 0x40)
		case c == 0x7f:
			sb.WriteString("^?")
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
