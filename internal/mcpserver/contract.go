package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
)

// TemplateFormatContract describes the canonical template document format
// that LLM consumers should follow when authoring templates.
const TemplateFormatContract = `# Ansuz Template Format Contract

Every template document stored in the watched folder MUST follow this
structure.

## Structure

` + "```" + `markdown
---
status: draft                       # OPTIONAL – embedded frontmatter values
tags:                               # OPTIONAL – YAML list; merged by union
  - meeting
due: "{{ due }}"                    # placeholder values mark the key as a variable
---

Body text in standard Markdown.

Use {{ name }} placeholders for values supplied at insertion time.
Use <% tp.date.now("YYYY-MM-DD") %> for expansion-time timestamps.
` + "```" + `

## Rules

1. **The frontmatter block is optional.** When present, the ` + "`---`" + ` fences
   must be the first thing in the file (no leading blank lines).
2. **Key order matters.** Embedded keys keep their order through the merge;
   preset field keys always come first in the final output.
3. **` + "`tags`" + ` merges by set union**, never by override: values from the
   note, the template, and user input are combined, duplicates removed,
   first-seen order kept.
4. **Placeholders** use double braces: ` + "`{{ variable-name }}`" + `. A
   frontmatter value containing a placeholder marks that key as one of the
   template's variables for preset matching.
5. **File paths** end with ` + "`.md`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.
`

func (s *Server) readTemplateFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://template-format",
			MIMEType: "text/markdown",
			Text:     TemplateFormatContract,
		},
	}, nil
}

// parseTemplate extracts the embedded frontmatter record from a template.
func parseTemplate(tpl models.TemplateDocument) (*frontmatter.Record, error) {
	res, err := parser.Parse([]byte(tpl.Content))
	if err != nil {
		return nil, err
	}
	return res.Frontmatter, nil
}
