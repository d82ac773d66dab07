// Package media holds the format and metadata types shared between the
// yt-dlp drivers, the engine, and presentation code.
//
// Format values are immutable once parsed from yt-dlp's JSON output; the
// video/audio capability predicates are recomputed on every call rather than
// cached so the type stays a plain value.
package media
