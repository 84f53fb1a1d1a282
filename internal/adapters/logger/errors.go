package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrorEntry is one layer of an error chain as it is printed.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// zerrError is the part of zerr.Error the formatter needs.
type zerrError interface {
	error
	Message() string
	Metadata() map[string]any
}

// collectErrorEntries flattens err into printable layers. zerr layers carrying
// only metadata are merged into the message they annotate. For errors with
// several causes the first is followed; the others are appended unless they
// are already part of the followed chain.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	var pending map[string]any

	for err != nil {
		switch e := err.(type) {
		case zerrError:
			msg := e.Message()
			meta := e.Metadata()
			if meta == nil {
				meta = map[string]any{}
			}
			next := errors.Unwrap(err)
			if next != nil && next.Error() != "" && msg == messageOf(next) {
				// zerr.With adds metadata around an error of the same message.
				pending = merge(pending, meta)
				err = next
				continue
			}
			entries = append(entries, ErrorEntry{Message: msg, Metadata: merge(meta, pending)})
			pending = nil
			err = next

		case interface{ Unwrap() []error }:
			causes := e.Unwrap()
			if len(causes) == 0 {
				entries = append(entries, ErrorEntry{Message: err.Error(), Metadata: pending})
				return entries
			}
			first := collectErrorEntries(causes[0])
			if len(first) > 0 && pending != nil {
				first[0].Metadata = merge(first[0].Metadata, pending)
			}
			entries = append(entries, first...)
			for _, other := range causes[1:] {
				if errors.Is(causes[0], other) || containsMessage(entries, other.Error()) {
					continue
				}
				entries = append(entries, collectErrorEntries(other)...)
			}
			return entries

		default:
			entries = append(entries, ErrorEntry{Message: err.Error(), Metadata: pending})
			return entries
		}
	}
	return entries
}

func containsMessage(entries []ErrorEntry, msg string) bool {
	return slices.ContainsFunc(entries, func(e ErrorEntry) bool { return e.Message == msg })
}

func messageOf(err error) string {
	if z, ok := err.(zerrError); ok {
		return z.Message()
	}
	return ""
}

// merge returns dst extended with src. dst wins on conflicting keys.
func merge(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	out := make(map[string]any, len(dst)+len(src))
	maps.Copy(out, src)
	maps.Copy(out, dst)
	return out
}

// formatErrorEntries renders entries as an "Error:" headline followed by a
// "Caused by:" list. Metadata keys are printed sorted under their message.
func formatErrorEntries(entries []ErrorEntry) string {
	if len(entries) == 0 {
		return ""
	}

	var lines []string
	for i, e := range entries {
		msgLines := strings.Split(e.Message, "\n")
		head, indent := "Error: ", "       "
		if i > 0 {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			head, indent = "    → ", "      "
		}

		lines = append(lines, head+msgLines[0])
		for _, l := range msgLines[1:] {
			lines = append(lines, indent+l)
		}
		for _, k := range slices.Sorted(maps.Keys(e.Metadata)) {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, k, e.Metadata[k]))
		}
	}
	return strings.Join(lines, "\n")
}
