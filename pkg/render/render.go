// Package render prints ELF models as readelf style text, JSON or YAML.
package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

type Options struct {
	Format string
	Color  bool
	// Wide disables truncation of long section names.
	Wide bool
	// Tree prints the section to segment mapping as a tree.
	Tree bool
	// FileNames prefixes every dump with the name of the file it belongs to.
	FileNames bool
}

type Printer struct {
	w       io.Writer
	opts    Options
	heading *color.Color
	yaml    *yaml.Encoder
}

func NewPrinter(w io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatTable
	}
	heading := color.New(color.Bold)
	if opts.Color {
		heading.EnableColor()
	} else {
		heading.DisableColor()
	}
	return &Printer{w: w, opts: opts, heading: heading}
}

// Close terminates a YAML stream. It is a no-op for other formats.
func (p *Printer) Close() error {
	if p.yaml != nil {
		return p.yaml.Close()
	}
	return nil
}

func (p *Printer) structured() bool {
	return p.opts.Format == FormatJSON || p.opts.Format == FormatYAML
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (p *Printer) encode(v interface{}) error {
	switch p.opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		if p.yaml == nil {
			p.yaml = yaml.NewEncoder(p.w)
			p.yaml.SetIndent(2)
		}
		return p.yaml.Encode(v)
	}
	return fmt.Errorf("unsupported output format %q", p.opts.Format)
}

func (p *Printer) fileName(path string) {
	if p.opts.FileNames && path != "" {
		fmt.Fprintf(p.w, "\nFile: %s\n", path)
	}
}

func (p *Printer) title(format string, args ...interface{}) {
	p.heading.Fprintf(p.w, format, args...)
	fmt.Fprintln(p.w)
}

func (p *Printer) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(p.w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	return table
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

func address(v uint64, is64 bool) string {
	if is64 {
		return fmt.Sprintf("%016x", v)
	}
	return fmt.Sprintf("%08x", v)
}
