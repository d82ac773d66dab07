package ytdlp

import (
	"strconv"
	"strings"

	"snag/internal/media"
)

const (
	downloadMarker = "[download]"
	etaMarker      = "ETA"
	// placeholder stands in for speed/ETA values yt-dlp has not reported yet.
	placeholder = "--"
)

// ParseProgress decodes one yt-dlp output line into a progress sample.
// A line qualifies only when it carries the download-phase marker and a
// percent token; anything else, including garbled fragments from an
// interleaved stream, returns ok=false and is never an error.
func ParseProgress(line string) (media.Progress, bool) {
	if !strings.Contains(line, downloadMarker) || !strings.ContainsRune(line, '%') {
		return media.Progress{}, false
	}

	fields := strings.Fields(line)

	var percent float64
	found := false
	for _, field := range fields {
		if !strings.HasSuffix(field, "%") {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSuffix(field, "%"), 64)
		if err != nil {
			return media.Progress{}, false
		}
		percent = value
		found = true
		break
	}
	if !found {
		return media.Progress{}, false
	}

	speed := placeholder
	for _, field := range fields {
		if strings.Contains(field, "/s") {
			speed = field
			break
		}
	}

	eta := placeholder
	for i, field := range fields {
		if field == etaMarker && i+1 < len(fields) {
			eta = fields[i+1]
			break
		}
	}

	return media.Progress{Percent: percent, Speed: speed, ETA: eta}, true
}

// looksLikeOutputPath reports whether a non-progress line is plausibly the
// final file path yt-dlp prints on completion. Heuristic by necessity: no
// bracketed tag prefix, and at least one path separator.
func looksLikeOutputPath(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "[") {
		return false
	}
	return strings.ContainsRune(trimmed, '/')
}
