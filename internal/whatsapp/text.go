package whatsapp

import (
	apperrors "github.com/vendalocal/whatsapp-assistant/internal/errors"
)

// TextBuilder assembles a plain text message. Builders are single-use:
// setters mutate until Build, which returns an immutable payload.
type TextBuilder struct {
	to         string
	body       string
	replyTo    string
	previewURL bool
	helpSuffix string
}

func NewText(to string) *TextBuilder {
	return &TextBuilder{to: to}
}

func (b *TextBuilder) Body(body string) *TextBuilder {
	b.body = body
	return b
}

func (b *TextBuilder) ReplyTo(messageID string) *TextBuilder {
	b.replyTo = messageID
	return b
}

func (b *TextBuilder) PreviewURL(enabled bool) *TextBuilder {
	b.previewURL = enabled
	return b
}

// WithHelpSuffix appends a fixed "how to get help" trailer. When body plus
// suffix would exceed the hard limit, the body is trimmed, not the suffix:
// the trailer always survives intact.
func (b *TextBuilder) WithHelpSuffix(suffix string) *TextBuilder {
	b.helpSuffix = suffix
	return b
}

func (b *TextBuilder) Build() (*Payload, error) {
	if b.to == "" {
		return nil, apperrors.MissingRequired("recipient")
	}
	if b.body == "" {
		return nil, apperrors.MissingRequired("body")
	}

	body := b.body
	warnSoft("text.body", body, BodySoftLimit)

	if b.helpSuffix != "" {
		suffixLen := runeLen(b.helpSuffix)
		if runeLen(body)+suffixLen > BodyHardLimit {
			body = clampHard("text.body", body, BodyHardLimit-suffixLen, false)
		}
		body += b.helpSuffix
	}

	body = clampHard("text.body", body, BodyHardLimit, false)

	payload := newPayload(b.to, KindText, b.replyTo)
	payload.Text = &Text{Body: body, PreviewURL: b.previewURL}
	return payload, nil
}
