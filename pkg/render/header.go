package render

import (
	"fmt"
	"strings"

	"github.com/grafana/readelf/pkg/elfreader"
)

type headerView struct {
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	Magic      string `json:"magic" yaml:"magic"`
	Class      string `json:"class" yaml:"class"`
	Data       string `json:"data" yaml:"data"`
	Version    uint8  `json:"ident_version" yaml:"ident_version"`
	OSABI      string `json:"os_abi" yaml:"os_abi"`
	ABIVersion uint8  `json:"abi_version" yaml:"abi_version"`
	Type       string `json:"type" yaml:"type"`
	Machine    string `json:"machine" yaml:"machine"`
	ObjVersion string `json:"version" yaml:"version"`
	Entry      string `json:"entry" yaml:"entry"`
	Phoff      uint64 `json:"program_headers_offset" yaml:"program_headers_offset"`
	Shoff      uint64 `json:"section_headers_offset" yaml:"section_headers_offset"`
	Flags      string `json:"flags" yaml:"flags"`
	Ehsize     uint16 `json:"header_size" yaml:"header_size"`
	Phentsize  uint16 `json:"program_header_size" yaml:"program_header_size"`
	Phnum      uint16 `json:"program_headers" yaml:"program_headers"`
	Shentsize  uint16 `json:"section_header_size" yaml:"section_header_size"`
	Shnum      uint16 `json:"section_headers" yaml:"section_headers"`
	Shstrndx   uint16 `json:"string_table_index" yaml:"string_table_index"`
}

func newHeaderView(path string, f *elfreader.File) headerView {
	h := f.Header()
	magic := make([]string, len(h.Ident))
	for i, b := range h.Ident {
		magic[i] = fmt.Sprintf("%02x", b)
	}
	return headerView{
		File:       path,
		Magic:      strings.Join(magic, " "),
		Class:      h.Class().String(),
		Data:       h.Encoding().String(),
		Version:    h.Ident.Version(),
		OSABI:      h.Ident.OSABI().String(),
		ABIVersion: h.Ident.ABIVersion(),
		Type:       h.Type.String(),
		Machine:    h.Machine.String(),
		ObjVersion: hex(uint64(h.Version)),
		Entry:      hex(h.Entry),
		Phoff:      h.Phoff,
		Shoff:      h.Shoff,
		Flags:      hex(uint64(h.Flags)),
		Ehsize:     h.Ehsize,
		Phentsize:  h.Phentsize,
		Phnum:      h.Phnum,
		Shentsize:  h.Shentsize,
		Shnum:      h.Shnum,
		Shstrndx:   h.Shstrndx,
	}
}

// FileHeader prints the ELF header.
func (p *Printer) FileHeader(path string, f *elfreader.File) error {
	v := newHeaderView(path, f)
	if p.structured() {
		return p.encode(v)
	}
	p.fileName(path)
	p.writeFileHeader(v)
	return nil
}

func (p *Printer) writeFileHeader(v headerView) {
	version := fmt.Sprintf("%d", v.Version)
	if v.Version == 1 {
		version += " (current)"
	}
	p.title("ELF Header:")
	rows := [][2]string{
		{"Magic:", v.Magic},
		{"Class:", v.Class},
		{"Data:", v.Data},
		{"Version:", version},
		{"OS/ABI:", v.OSABI},
		{"ABI Version:", fmt.Sprintf("%d", v.ABIVersion)},
		{"Type:", v.Type},
		{"Machine:", v.Machine},
		{"Version:", v.ObjVersion},
		{"Entry point address:", v.Entry},
		{"Start of program headers:", fmt.Sprintf("%d (bytes into file)", v.Phoff)},
		{"Start of section headers:", fmt.Sprintf("%d (bytes into file)", v.Shoff)},
		{"Flags:", v.Flags},
		{"Size of this header:", fmt.Sprintf("%d (bytes)", v.Ehsize)},
		{"Size of program headers:", fmt.Sprintf("%d (bytes)", v.Phentsize)},
		{"Number of program headers:", fmt.Sprintf("%d", v.Phnum)},
		{"Size of section headers:", fmt.Sprintf("%d (bytes)", v.Shentsize)},
		{"Number of section headers:", fmt.Sprintf("%d", v.Shnum)},
		{"Section header string table index:", fmt.Sprintf("%d", v.Shstrndx)},
	}
	for _, r := range rows {
		fmt.Fprintf(p.w, "  %-35s%s\n", r[0], r[1])
	}
}
