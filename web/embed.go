package web

import "embed"

// Templates embeds HTML templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static embeds static assets served under /static.
//
//go:embed static/**/*
var Static embed.FS

// Bundle embeds the pre-built single page application served for every
// other path.
//
//go:embed dist
var Bundle embed.FS
