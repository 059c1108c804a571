// Package console holds the terminal side of logbook-watch: its TOML
// settings file, the lipgloss rendering of a merged view and the small
// command language read from stdin.
//
// Settings live in ~/.config/logbook/watch.toml:
//
//	server      = "127.0.0.1:1340"
//	project     = "checkout"
//	search      = ""
//	time_format = "15:04:05"
//	max_per_day = 50
//
// A missing file means defaults; a malformed one is an error.
package console
