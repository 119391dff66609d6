package notify

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// MessageTemplate is the name of the built-in message template.
const MessageTemplate = "message"

// TemplatesFS exposes the built-in message templates so callers can extend
// or override them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}
