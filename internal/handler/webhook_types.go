package handler

import "github.com/vendalocal/whatsapp-assistant/internal/model"

// Inbound webhook envelope for the Cloud API. Only the fields the
// router consumes are mapped; everything else is ignored on decode.

type WebhookEnvelope struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []WebhookContact `json:"contacts"`
	Messages         []InboundMessage `json:"messages"`
	Statuses         []DeliveryStatus `json:"statuses"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type InboundMessage struct {
	ID          string              `json:"id"`
	From        string              `json:"from"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *InboundText        `json:"text,omitempty"`
	Interactive *InboundInteractive `json:"interactive,omitempty"`
	Location    *InboundLocation    `json:"location,omitempty"`
}

type InboundText struct {
	Body string `json:"body"`
}

type InboundInteractive struct {
	Type        string        `json:"type"`
	ButtonReply *InboundReply `json:"button_reply,omitempty"`
	ListReply   *InboundReply `json:"list_reply,omitempty"`
}

type InboundReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type InboundLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type DeliveryStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
}

// ReplyID returns the selected option id regardless of whether the user
// tapped a button or a list row.
func (m *InboundMessage) ReplyID() string {
	if m.Interactive == nil {
		return ""
	}
	if m.Interactive.ButtonReply != nil {
		return m.Interactive.ButtonReply.ID
	}
	if m.Interactive.ListReply != nil {
		return m.Interactive.ListReply.ID
	}
	return ""
}

func (m *InboundMessage) TextBody() string {
	if m.Text == nil {
		return ""
	}
	return m.Text.Body
}

func (m *InboundMessage) MessageType() model.MessageType {
	switch m.Type {
	case "text":
		return model.MessageTypeText
	case "interactive":
		return model.MessageTypeInteractive
	case "image":
		return model.MessageTypeImage
	case "document":
		return model.MessageTypeDocument
	case "location":
		return model.MessageTypeLocation
	default:
		return model.MessageTypeUnknown
	}
}
