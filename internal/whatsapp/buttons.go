package whatsapp

import (
	apperrors "github.com/vendalocal/whatsapp-assistant/internal/errors"
)

// Reply ids used by the button shortcuts. Flow logic matches on these.
const (
	ButtonIDYes     = "yes"
	ButtonIDNo      = "no"
	ButtonIDConfirm = "confirm"
	ButtonIDEdit    = "edit"
	ButtonIDCancel  = "cancel"
)

// ButtonsBuilder assembles an interactive button menu: a body and one to
// three reply buttons. A fourth button is a structural failure surfaced at
// Build, never a silent drop — callers must pre-plan their button sets.
type ButtonsBuilder struct {
	to      string
	body    string
	header  string
	footer  string
	replyTo string
	buttons []ButtonReply
	err     *apperrors.AppError
}

func NewButtons(to string) *ButtonsBuilder {
	return &ButtonsBuilder{to: to}
}

func (b *ButtonsBuilder) Body(body string) *ButtonsBuilder {
	b.body = body
	return b
}

func (b *ButtonsBuilder) Header(header string) *ButtonsBuilder {
	b.header = clampHard("buttons.header", header, HeaderLimit, true)
	return b
}

func (b *ButtonsBuilder) Footer(footer string) *ButtonsBuilder {
	b.footer = clampHard("buttons.footer", footer, FooterLimit, true)
	return b
}

func (b *ButtonsBuilder) ReplyTo(messageID string) *ButtonsBuilder {
	b.replyTo = messageID
	return b
}

func (b *ButtonsBuilder) AddButton(id, title string) *ButtonsBuilder {
	if len(b.buttons) >= MaxButtons {
		b.err = apperrors.TooManyButtons(MaxButtons)
		return b
	}
	b.buttons = append(b.buttons, ButtonReply{
		ID:    id,
		Title: clampHard("buttons.title", title, ButtonTitleLimit, true),
	})
	return b
}

// YesNo replaces the button list with a yes/no pair.
func (b *ButtonsBuilder) YesNo(yesTitle, noTitle string) *ButtonsBuilder {
	return b.resetButtons().
		AddButton(ButtonIDYes, yesTitle).
		AddButton(ButtonIDNo, noTitle)
}

// ConfirmCancel replaces the button list with a confirm/cancel pair.
func (b *ButtonsBuilder) ConfirmCancel(confirmTitle, cancelTitle string) *ButtonsBuilder {
	return b.resetButtons().
		AddButton(ButtonIDConfirm, confirmTitle).
		AddButton(ButtonIDCancel, cancelTitle)
}

// ConfirmEditCancel replaces the button list with a confirm/edit/cancel trio.
func (b *ButtonsBuilder) ConfirmEditCancel(confirmTitle, editTitle, cancelTitle string) *ButtonsBuilder {
	return b.resetButtons().
		AddButton(ButtonIDConfirm, confirmTitle).
		AddButton(ButtonIDEdit, editTitle).
		AddButton(ButtonIDCancel, cancelTitle)
}

func (b *ButtonsBuilder) resetButtons() *ButtonsBuilder {
	b.buttons = nil
	b.err = nil
	return b
}

func (b *ButtonsBuilder) Build() (*Payload, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.to == "" {
		return nil, apperrors.MissingRequired("recipient")
	}
	if b.body == "" {
		return nil, apperrors.MissingRequired("body")
	}
	if len(b.buttons) == 0 {
		return nil, apperrors.MissingRequired("buttons")
	}

	warnSoft("buttons.body", b.body, BodySoftLimit)
	body := clampHard("buttons.body", b.body, BodyHardLimit, false)

	interactive := &Interactive{
		Type: "button",
		Body: &TextContent{Text: body},
		Action: &Action{
			Buttons: make([]ButtonWrapper, 0, len(b.buttons)),
		},
	}
	for _, button := range b.buttons {
		interactive.Action.Buttons = append(interactive.Action.Buttons, ButtonWrapper{
			Type:  "reply",
			Reply: button,
		})
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
