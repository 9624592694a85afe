package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// ErrorEntry is one link of an error chain as shown to the user.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks the zerr links of err. Links without a message
// only carry metadata, which is folded into the next link that has one. The
// first error that is not a zerr error ends the walk with its full text.
func collectErrorEntries(err error) []ErrorEntry {
	var (
		entries []ErrorEntry
		pending map[string]any
	)
	for cur := err; cur != nil; {
		z, ok := cur.(*zerr.Error)
		if !ok {
			entries = append(entries, ErrorEntry{Message: cur.Error(), Metadata: pending})
			return entries
		}

		meta := z.Metadata()
		if z.Message() == "" {
			if len(meta) > 0 && pending == nil {
				pending = map[string]any{}
			}
			for k, v := range meta {
				pending[k] = v
			}
			cur = errors.Unwrap(cur)
			continue
		}

		for k, v := range pending {
			if _, set := meta[k]; !set {
				meta[k] = v
			}
		}
		pending = nil
		entries = append(entries, ErrorEntry{Message: z.Message(), Metadata: meta})
		cur = errors.Unwrap(cur)
	}
	if len(pending) > 0 && len(entries) > 0 {
		last := &entries[len(entries)-1]
		for k, v := range pending {
			last.Metadata[k] = v
		}
	}
	return entries
}

// formatErrorEntries renders entries as:
//
//	Error: outer
//	       key: value
//
//	  Caused by:
//	    → inner
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string
	for i, e := range entries {
		msg := strings.Split(e.Message, "\n")
		head, indent := "Error: ", "       "
		if i > 0 {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			head, indent = "    → ", "      "
		}

		lines = append(lines, head+msg[0])
		for _, l := range msg[1:] {
			lines = append(lines, indent+l)
		}
		for _, k := range slices.Sorted(maps.Keys(e.Metadata)) {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, k, e.Metadata[k]))
		}
	}
	return strings.Join(lines, "\n")
}
