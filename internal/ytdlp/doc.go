// Package ytdlp wraps yt-dlp CLI interactions: metadata probes, playlist
// expansion, and supervised download subprocesses with line-oriented
// progress decoding.
//
// yt-dlp's command-line interface is a fixed external protocol. The Client
// owns argument construction and output interpretation; command execution is
// abstracted behind the Runner interface so tests can script subprocess
// output without spawning anything.
package ytdlp
