// Package printer formats CLI output: server messages coloured by severity
// and errors with suggestions. Colour follows fatih/color, so NO_COLOR and
// non-terminal outputs print plain text.
package printer
