package inspect

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/grafana/readelf/pkg/elfreader"
)

var ErrSectionNotFound = errors.New("section not found")

// ResolveSection finds a section by index or by name. A selector that parses
// as a number is always taken as an index.
func ResolveSection(f *elfreader.File, sel string) (int, error) {
	if i, err := strconv.Atoi(sel); err == nil {
		if i < 0 || i >= f.NumSections() {
			return 0, errors.Wrapf(ErrSectionNotFound, "index %d out of range [0, %d)", i, f.NumSections())
		}
		return i, nil
	}
	i, _, ok := f.SectionByName(sel)
	if !ok {
		return 0, errors.Wrapf(ErrSectionNotFound, "no section named %q", sel)
	}
	return i, nil
}
