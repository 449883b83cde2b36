package elfreader

// MapSectionsToSegments returns, for every program header, the indices of
// the sections whose file range [offset, offset+size) lies within the
// segment's file range [offset, offset+filesz).
//
// Sections are claimed first-fit: program headers are visited in table
// order and a section is assigned to the first segment that contains it,
// even if a later segment contains it too. Sections contained in no segment
// appear in no list. SHT_NULL entries describe nothing and are never mapped.
func MapSectionsToSegments(sections []SectionHeader, progs []ProgramHeader) [][]int {
	claimed := make([]bool, len(sections))
	mapping := make([][]int, len(progs))
	for pi := range progs {
		p := &progs[pi]
		segEnd, ok := addNoOverflow(p.Offset, p.Filesz)
		if !ok {
			continue
		}
		for si := range sections {
			s := &sections[si]
			if claimed[si] || s.Type == SHT_NULL {
				continue
			}
			secEnd, ok := addNoOverflow(s.Offset, s.Size)
			if !ok {
				continue
			}
			if s.Offset >= p.Offset && secEnd <= segEnd {
				mapping[pi] = append(mapping[pi], si)
				claimed[si] = true
			}
		}
	}
	return mapping
}

// SegmentSectionNames turns a mapping from MapSectionsToSegments into section
// names.
func SegmentSectionNames(mapping [][]int, names []string) [][]string {
	out := make([][]string, len(mapping))
	for pi, indices := range mapping {
		out[pi] = make([]string, 0, len(indices))
		for _, si := range indices {
			if si < len(names) {
				out[pi] = append(out[pi], names[si])
			}
		}
	}
	return out
}

func addNoOverflow(a, b uint64) (uint64, bool) {
	s := a + b
	return s, s >= a
}
