package pipeline

import _ "embed"

// Version is the release version, read from the VERSION file. Trim it before display.
//
//go:embed VERSION
var Version string
