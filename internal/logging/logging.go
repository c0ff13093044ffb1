// Package logging creates component loggers and rate-limits repeated errors.
package logging

import (
	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// New returns a logger whose lines are prefixed with the component name.
func New(component string) *logger.Logger {
	return logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, component))
}

// NewError returns a logger with the error colour scheme, for process exit paths.
func NewError(component string) *logger.Logger {
	return logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, component))
}
