package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// messager matches zerr.Error, which reports its own message without the chain.
type messager interface {
	Message() string
}

type metadataer interface {
	Metadata() map[string]any
}

// ErrorEntry is one level of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error()})
			break
		}

		entry := ErrorEntry{Message: m.Message()}
		if md, ok := current.(metadataer); ok {
			entry.Metadata = md.Metadata()
		}
		current = errors.Unwrap(current)

		// zerr.With on a foreign error adds an anonymous level; fold it into its cause.
		if entry.Message == "" && current != nil {
			next := collectErrorEntries(current)
			if len(next) > 0 && len(entry.Metadata) > 0 {
				merged := maps.Clone(next[0].Metadata)
				if merged == nil {
					merged = map[string]any{}
				}
				maps.Copy(merged, entry.Metadata)
				next[0].Metadata = merged
			}
			return append(entries, next...)
		}
		entries = append(entries, entry)
	}
	return entries
}

func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string
	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")
		indent := "      "
		if i == 0 {
			lines = append(lines, "Error: "+msgLines[0])
			indent = "       "
		} else {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			lines = append(lines, "    → "+msgLines[0])
		}
		for _, line := range msgLines[1:] {
			lines = append(lines, indent+line)
		}
		for _, k := range slices.Sorted(maps.Keys(entry.Metadata)) {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, k, entry.Metadata[k]))
		}
	}
	return strings.Join(lines, "\n")
}
