// Package testsupport holds fixtures shared by package tests: document and
// golden helpers, a recording transport and a fake server speaking the
// response wire format.
package testsupport
