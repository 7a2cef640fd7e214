// Package configs holds configuration templates embedded at build time,
// so generated config files are identical across source builds and
// binary releases.
package configs

import _ "embed"

// ConfigTemplate is the template written by `lexnav init` as
// lexnav.yaml in the working directory. It documents every setting
// with its default value.
//
//go:embed lexnav.example.yaml
var ConfigTemplate string
