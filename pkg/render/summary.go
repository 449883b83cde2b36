package render

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/grafana/readelf/pkg/elfreader"
	"github.com/grafana/readelf/pkg/inspect"
)

type buildIDView struct {
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id" yaml:"id"`
}

// BuildID prints the build ID of a file.
func (p *Printer) BuildID(path string, id elfreader.BuildID) error {
	if p.structured() {
		return p.encode(buildIDView{File: path, Type: id.Typ, ID: id.ID})
	}
	if p.opts.FileNames {
		fmt.Fprintf(p.w, "%s: %s %s\n", path, id.Typ, id.ID)
		return nil
	}
	fmt.Fprintf(p.w, "%s %s\n", id.Typ, id.ID)
	return nil
}

// Summaries prints one row per file.
func (p *Printer) Summaries(summaries []inspect.Summary) error {
	if p.structured() {
		return p.encode(summaries)
	}
	table := p.newTable([]string{"File", "Class", "Data", "Type", "Machine", "Sections", "Segments", "Size", "Compression", "Build ID"})
	for _, s := range summaries {
		if s.Error != "" {
			table.Append([]string{s.Path, "error: " + s.Error, "", "", "", "", "", "", "", ""})
			continue
		}
		table.Append([]string{
			s.Path,
			s.Class,
			s.Encoding,
			s.Type,
			s.Machine,
			fmt.Sprintf("%d", s.Sections),
			fmt.Sprintf("%d", s.Segments),
			humanize.IBytes(uint64(s.Size)),
			s.Compression,
			s.BuildID,
		})
	}
	table.Render()
	return nil
}
