package render

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/xlab/treeprint"

	"github.com/grafana/readelf/pkg/elfreader"
)

type segmentView struct {
	Type     string   `json:"type" yaml:"type"`
	Flags    string   `json:"flags" yaml:"flags"`
	Offset   uint64   `json:"offset" yaml:"offset"`
	VirtAddr string   `json:"virtual_address" yaml:"virtual_address"`
	PhysAddr string   `json:"physical_address" yaml:"physical_address"`
	FileSize uint64   `json:"file_size" yaml:"file_size"`
	MemSize  uint64   `json:"memory_size" yaml:"memory_size"`
	Align    uint64   `json:"alignment" yaml:"alignment"`
	Sections []string `json:"sections" yaml:"sections"`
}

func newSegmentViews(f *elfreader.File) []segmentView {
	return lo.Map(f.Programs(), func(ph elfreader.ProgramHeader, _ int) segmentView {
		return segmentView{
			Type:     ph.Type.String(),
			Flags:    strings.TrimSpace(ph.Flags.String()),
			Offset:   ph.Offset,
			VirtAddr: hex(ph.Vaddr),
			PhysAddr: hex(ph.Paddr),
			FileSize: ph.Filesz,
			MemSize:  ph.Memsz,
			Align:    ph.Align,
			Sections: ph.Sections,
		}
	})
}

type segmentsDoc struct {
	File     string        `json:"file,omitempty" yaml:"file,omitempty"`
	Entry    string        `json:"entry" yaml:"entry"`
	Segments []segmentView `json:"segments" yaml:"segments"`
}

// ProgramHeaders prints the program header table followed by the section to
// segment mapping.
func (p *Printer) ProgramHeaders(path string, f *elfreader.File) error {
	if p.structured() {
		return p.encode(segmentsDoc{File: path, Entry: hex(f.Header().Entry), Segments: newSegmentViews(f)})
	}
	p.fileName(path)
	p.writeProgramHeaders(f)
	return nil
}

func (p *Printer) writeProgramHeaders(f *elfreader.File) {
	if f.NumPrograms() == 0 {
		fmt.Fprintln(p.w, "\nThere are no program headers in this file.")
		return
	}
	h := f.Header()
	fmt.Fprintf(p.w, "\nElf file type is %s\n", h.Type)
	fmt.Fprintf(p.w, "Entry point 0x%x\n", h.Entry)
	fmt.Fprintf(p.w, "There are %d program headers, starting at offset %d\n\n", f.NumPrograms(), h.Phoff)
	p.title("Program Headers:")

	is64 := f.Class() == elfreader.Class64
	table := p.newTable([]string{"Type", "Offset", "VirtAddr", "PhysAddr", "FileSiz", "MemSiz", "Flg", "Align"})
	progs := f.Programs()
	for _, ph := range progs {
		table.Append([]string{
			ph.Type.String(),
			fmt.Sprintf("0x%06x", ph.Offset),
			"0x" + address(ph.Vaddr, is64),
			"0x" + address(ph.Paddr, is64),
			fmt.Sprintf("0x%06x", ph.Filesz),
			fmt.Sprintf("0x%06x", ph.Memsz),
			ph.Flags.String(),
			hex(ph.Align),
		})
	}
	table.Render()

	fmt.Fprintln(p.w)
	p.title(" Section to Segment mapping:")
	if p.opts.Tree {
		fmt.Fprint(p.w, mappingTree(progs).String())
		return
	}
	fmt.Fprintln(p.w, "  Segment Sections...")
	for i, ph := range progs {
		fmt.Fprintf(p.w, "   %02d     %s\n", i, strings.Join(displayNames(ph.Sections), " "))
	}
}

func displayNames(names []string) []string {
	return lo.Map(names, func(name string, _ int) string { return printable([]byte(name)) })
}

func mappingTree(progs []elfreader.ProgramHeader) treeprint.Tree {
	tree := treeprint.NewWithRoot("segments")
	for i, ph := range progs {
		branch := tree.AddBranch(fmt.Sprintf("%02d %s", i, ph.Type))
		for _, name := range displayNames(ph.Sections) {
			branch.AddNode(name)
		}
	}
	return tree
}

type headersDoc struct {
	File     string        `json:"file,omitempty" yaml:"file,omitempty"`
	Header   headerView    `json:"file_header" yaml:"file_header"`
	Sections []sectionView `json:"sections" yaml:"sections"`
	Segments []segmentView `json:"segments" yaml:"segments"`
}

// Headers prints the file header, the section headers and the program
// headers.
func (p *Printer) Headers(path string, f *elfreader.File) error {
	if p.structured() {
		return p.encode(headersDoc{
			File:     path,
			Header:   newHeaderView("", f),
			Sections: newSectionViews(f),
			Segments: newSegmentViews(f),
		})
	}
	p.fileName(path)
	p.writeFileHeader(newHeaderView(path, f))
	fmt.Fprintln(p.w)
	p.writeSectionHeaders(f)
	p.writeProgramHeaders(f)
	return nil
}
