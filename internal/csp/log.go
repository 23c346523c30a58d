package csp

import "github.com/rs/zerolog"

// pkgLogger defaults to a disabled logger so this package has no observable
// behavior until the caller wires one in via SetLogger.
var pkgLogger = zerolog.Nop()

// SetLogger installs the logger this package uses for the "couldn't handle
// URI" diagnostic in AdjustToUri. Callers typically pass a component-scoped
// sub-logger from internal/logging.
func SetLogger(l zerolog.Logger) { pkgLogger = l }

func log() *zerolog.Logger { return &pkgLogger }
