// Package template defines the template seam used to build markup the
// runtime inserts on its own, such as notification messages.
package template
