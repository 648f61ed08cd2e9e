// Package data holds the static files embedded in the binary.
package data

import "embed"

//go:embed templates
var Templates embed.FS
