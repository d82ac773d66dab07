package media

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// noCodec is yt-dlp's sentinel for an absent video or audio stream.
const noCodec = "none"

// Format is one selectable encoding variant offered for a source URL.
// The identifier is opaque; only yt-dlp assigns meaning to it.
type Format struct {
	FormatID       string  `json:"format_id"`
	Resolution     string  `json:"resolution,omitempty"`
	Ext            string  `json:"ext,omitempty"`
	VCodec         string  `json:"vcodec,omitempty"`
	ACodec         string  `json:"acodec,omitempty"`
	Filesize       int64   `json:"filesize,omitempty"`
	FilesizeApprox int64   `json:"filesize_approx,omitempty"`
	TBR            float64 `json:"tbr,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
}

// IsVideo reports whether the format carries a video stream.
func (f Format) IsVideo() bool {
	return f.VCodec != "" && f.VCodec != noCodec
}

// IsAudioOnly reports whether the format carries audio but no video.
func (f Format) IsAudioOnly() bool {
	return !f.IsVideo() && f.ACodec != "" && f.ACodec != noCodec
}

// DisplayResolution renders a human-readable resolution label.
func (f Format) DisplayResolution() string {
	if f.Width > 0 && f.Height > 0 {
		return fmt.Sprintf("%dx%d", f.Width, f.Height)
	}
	if f.Resolution != "" {
		return f.Resolution
	}
	return "audio"
}

// DisplaySize renders the exact or approximate size, or "~" when unknown.
func (f Format) DisplaySize() string {
	size := f.Filesize
	if size == 0 {
		size = f.FilesizeApprox
	}
	if size <= 0 {
		return "~"
	}
	return humanize.IBytes(uint64(size))
}

// DisplayBitrate renders the average bitrate, or "~" when unknown.
func (f Format) DisplayBitrate() string {
	if f.TBR <= 0 {
		return "~"
	}
	return fmt.Sprintf("%.0f kbps", f.TBR)
}

// Info is the parsed result of a metadata probe for one URL.
type Info struct {
	Title   string   `json:"title"`
	Formats []Format `json:"formats"`
}

// VideoFormats returns the subset of formats that are video-capable.
func (i Info) VideoFormats() []Format {
	out := make([]Format, 0, len(i.Formats))
	for _, f := range i.Formats {
		if f.IsVideo() {
			out = append(out, f)
		}
	}
	return out
}

// PlaylistEntry is one item of an expanded playlist.
type PlaylistEntry struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Progress is one structured sample decoded from yt-dlp's progress output.
type Progress struct {
	Percent float64
	Speed   string
	ETA     string
}
