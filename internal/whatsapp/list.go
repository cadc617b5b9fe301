package whatsapp

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/vendalocal/whatsapp-assistant/internal/audit"
	apperrors "github.com/vendalocal/whatsapp-assistant/internal/errors"
)

// ListBuilder assembles an interactive item list: a body, a button label
// opening the list, and titled sections of selectable rows. The protocol
// hard-caps total rows per message; callers with more items should go
// through Paginate instead of stuffing one message.
type ListBuilder struct {
	to          string
	body        string
	header      string
	footer      string
	buttonLabel string
	replyTo     string
	sections    []Section
	err         *apperrors.AppError
}

func NewList(to string) *ListBuilder {
	return &ListBuilder{to: to}
}

func (b *ListBuilder) Body(body string) *ListBuilder {
	b.body = body
	return b
}

func (b *ListBuilder) Header(header string) *ListBuilder {
	b.header = clampHard("list.header", header, HeaderLimit, true)
	return b
}

func (b *ListBuilder) Footer(footer string) *ListBuilder {
	b.footer = clampHard("list.footer", footer, FooterLimit, true)
	return b
}

func (b *ListBuilder) ButtonLabel(label string) *ListBuilder {
	b.buttonLabel = clampHard("list.button", label, ListButtonLimit, true)
	return b
}

func (b *ListBuilder) ReplyTo(messageID string) *ListBuilder {
	b.replyTo = messageID
	return b
}

func (b *ListBuilder) AddSection(title string, rows ...Row) *ListBuilder {
	if len(b.sections) >= MaxSections {
		b.err = apperrors.TooManySections(MaxSections)
		return b
	}
	section := Section{
		Title: clampHard("list.section.title", title, SectionTitleLimit, true),
		Rows:  make([]Row, 0, len(rows)),
	}
	for _, row := range rows {
		section.Rows = append(section.Rows, sanitizeRow(row))
	}
	b.sections = append(b.sections, section)
	return b
}

// AddSectionFromPage appends the section produced by Paginate and applies
// its footer.
func (b *ListBuilder) AddSectionFromPage(page PageResult) *ListBuilder {
	b.AddSection(page.Section.Title, page.Section.Rows...)
	if page.Footer != "" {
		b.Footer(page.Footer)
	}
	return b
}

func sanitizeRow(row Row) Row {
	return Row{
		ID:          row.ID,
		Title:       clampHard("list.row.title", row.Title, RowTitleLimit, true),
		Description: clampHard("list.row.description", row.Description, RowDescriptionLimit, false),
	}
}

func (b *ListBuilder) Build() (*Payload, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.to == "" {
		return nil, apperrors.MissingRequired("recipient")
	}
	if b.body == "" {
		return nil, apperrors.MissingRequired("body")
	}
	if b.buttonLabel == "" {
		return nil, apperrors.MissingRequired("button label")
	}
	if len(b.sections) == 0 {
		return nil, apperrors.MissingRequired("sections")
	}
	for _, section := range b.sections {
		if len(section.Rows) == 0 {
			return nil, apperrors.ValidationError("section has no rows")
		}
	}

	sections := b.trimOverflow()

	warnSoft("list.body", b.body, BodySoftLimit)
	body := clampHard("list.body", b.body, BodyHardLimit, false)

	interactive := &Interactive{
		Type: "list",
		Body: &TextContent{Text: body},
		Action: &Action{
			Button:   b.buttonLabel,
			Sections: sections,
		},
	}
	if b.header != "" {
		interactive.Header = &Header{Type: "text", Text: b.header}
	}
	if b.footer != "" {
		interactive.Footer = &TextContent{Text: b.footer}
	}

	payload := newPayload(b.to, KindInteractive, b.replyTo)
	payload.Interactive = interactive
	return payload, nil
}

// trimOverflow keeps the message sendable when a caller bypassed the
// pagination helper and assembled more rows than the protocol cap. Entire
// trailing sections are dropped first; only the last surviving section is
// partially trimmed. Never an error: the caller's list was merely too
// ambitious, not malformed.
func (b *ListBuilder) trimOverflow() []Section {
	total := 0
	for _, section := range b.sections {
		total += len(section.Rows)
	}
	if total <= MaxRows {
		return b.sections
	}

	originalTotal := total
	sections := make([]Section, len(b.sections))
	copy(sections, b.sections)

	for total > MaxRows && len(sections) > 1 {
		last := sections[len(sections)-1]
		total -= len(last.Rows)
		sections = sections[:len(sections)-1]
	}
	if total > MaxRows {
		last := sections[len(sections)-1]
		last.Rows = last.Rows[:MaxRows]
		sections[len(sections)-1] = last
		total = MaxRows
	}

	log.Warn().
		Int("rows", originalTotal).
		Int("max_rows", MaxRows).
		Int("kept", total).
		Msg("list exceeds row cap, trimmed; use Paginate for large collections")

	audit.Log(context.Background(), audit.Event{
		Type: audit.EventListOverflow,
		Details: map[string]interface{}{
			"rows":     originalTotal,
			"max_rows": MaxRows,
			"kept":     total,
		},
	})

	return sections
}
