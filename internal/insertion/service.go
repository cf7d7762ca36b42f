package insertion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/frontmatter"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/templater"
	"github.com/starford/ansuz/internal/templates"
)

// Service coordinates the template-insertion flow against the host
// collaborators.
type Service struct {
	index     *templates.Index
	editor    Editor
	doc       ActiveDocument
	clipboard Clipboard
	notify    Notifier
	logger    *slog.Logger
}

// NewService creates an insertion service.
func NewService(index *templates.Index, editor Editor, doc ActiveDocument, clipboard Clipboard, notify Notifier, logger *slog.Logger) *Service {
	return &Service{
		index:     index,
		editor:    editor,
		doc:       doc,
		clipboard: clipboard,
		notify:    notify,
		logger:    logger,
	}
}

// MergeFrontmatterWithUserInput resolves the final metadata record for the
// active document: preset defaults, the note's existing metadata, the
// template's embedded metadata, and user input, in ascending precedence.
func (s *Service) MergeFrontmatterWithUserInput(preset models.FrontmatterPreset, templateMeta, userInput *frontmatter.Record) (*frontmatter.Record, error) {
	noteMeta, _, err := s.doc.Metadata()
	if err != nil {
		// No readable metadata block: merge proceeds from an empty record.
		noteMeta = frontmatter.NewRecord()
	}
	return frontmatter.Resolve(preset, noteMeta, templateMeta, userInput)
}

// InsertTemplate reads the template from the index, expands it, resolves
// its frontmatter against the preset and user input, and writes both the
// metadata block and the body into the active document.
//
// Recovery is single-shot and never retried: a failed templater expansion
// falls back to the raw template text with a warning; a failed metadata
// write falls back to inserting the body only, with the intended block
// copied to the clipboard; if even that body insertion fails the call
// returns apperr.ErrInsertFailed.
func (s *Service) InsertTemplate(_ context.Context, templateID string, preset models.FrontmatterPreset, userInput *frontmatter.Record) error {
	tpl, ok := s.index.TemplateByID(templateID)
	if !ok {
		return fmt.Errorf("insertion: template %q: %w", templateID, apperr.ErrNotFound)
	}

	content := tpl.Content
	expander := templater.NewExpander(s.doc.Title())
	expanded, err := expander.Expand(content)
	if err != nil {
		var expErr *apperr.ExpansionError
		if !errors.As(err, &expErr) {
			return fmt.Errorf("insertion: expand template: %w", err)
		}
		s.logger.Warn("insertion: templater expansion failed, using raw template",
			slog.String("template", templateID),
			slog.String("error", expErr.Error()))
		s.notify.Warn("template expressions could not be expanded; inserted as-is")
	} else {
		content = expanded
	}

	parsed, err := parser.Parse([]byte(content))
	if err != nil {
		return fmt.Errorf("insertion: parse template: %w", err)
	}

	noteMeta, span, err := s.doc.Metadata()
	if err != nil {
		noteMeta = frontmatter.NewRecord()
		span = nil
	}

	record, err := frontmatter.Resolve(preset, noteMeta, parsed.Frontmatter, userInput)
	if err != nil {
		return fmt.Errorf("insertion: resolve frontmatter: %w", err)
	}

	block, err := frontmatter.EncodeBlock(record)
	if err != nil {
		return fmt.Errorf("insertion: encode frontmatter: %w", err)
	}

	if writeErr := s.writeMetadata(span, block); writeErr != nil {
		s.logger.Warn("insertion: metadata write failed, falling back to body only",
			slog.String("template", templateID),
			slog.String("error", writeErr.Error()))
		return s.fallbackBodyOnly(parsed.Body, block)
	}

	// How far the metadata write moved text after it.
	shift := 0
	if block != "" {
		shift = len(block)
		if span != nil {
			shift -= span.End - span.Start
		}
	}
	if bodyErr := s.insertBody(parsed.Body, shift); bodyErr != nil {
		s.logger.Warn("insertion: body insert failed after metadata write",
			slog.String("template", templateID),
			slog.String("error", bodyErr.Error()))
		s.clipboard.Copy(parsed.Body)
		s.notify.Warn("body insertion failed; template body copied to clipboard")
		return fmt.Errorf("insertion: insert body: %w", apperr.ErrInsertFailed)
	}

	s.notify.Info(fmt.Sprintf("inserted template %q", tpl.Name))
	return nil
}

// writeMetadata replaces the document's existing metadata block, or
// prepends a new one when the document has none.
func (s *Service) writeMetadata(span *Span, block string) error {
	if block == "" {
		return nil
	}
	if span != nil {
		return s.editor.ReplaceRange(span.Start, span.End, block)
	}
	return s.editor.ReplaceRange(0, 0, block)
}

// insertBody inserts body text at the cursor, keeping the cursor after
// the inserted text. shift compensates for a block prepended before the
// original cursor position.
func (s *Service) insertBody(body string, shift int) error {
	if body == "" {
		return nil
	}
	cur := s.editor.CursorOffset() + shift
	if err := s.editor.ReplaceRange(cur, cur, body); err != nil {
		return err
	}
	return s.editor.SetCursorOffset(cur + len(body))
}

// fallbackBodyOnly inserts only the body and hands the intended metadata
// block to the user via the clipboard.
func (s *Service) fallbackBodyOnly(body, block string) error {
	cur := s.editor.CursorOffset()
	if err := s.editor.ReplaceRange(cur, cur, body); err != nil {
		s.notify.Warn("template insertion failed; copy the template manually")
		return fmt.Errorf("insertion: fallback body insert: %w", apperr.ErrInsertFailed)
	}
	s.clipboard.Copy(block)
	s.notify.Warn("frontmatter could not be written; block copied to clipboard")
	return nil
}
