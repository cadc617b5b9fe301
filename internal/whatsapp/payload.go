package whatsapp

import "encoding/json"

// Cloud API wire types. A Payload is the immutable output of a builder;
// it is never mutated after Build.

const messagingProduct = "whatsapp"

type Kind string

const (
	KindText        Kind = "text"
	KindInteractive Kind = "interactive"
	KindLocation    Kind = "location"
	KindImage       Kind = "image"
	KindDocument    Kind = "document"
)

type Payload struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type"`
	To               string       `json:"to"`
	Type             Kind         `json:"type"`
	Context          *ReplyRef    `json:"context,omitempty"`
	Text             *Text        `json:"text,omitempty"`
	Interactive      *Interactive `json:"interactive,omitempty"`
	Location         *Location    `json:"location,omitempty"`
	Image            *Media       `json:"image,omitempty"`
	Document         *Media       `json:"document,omitempty"`
}

// ReplyRef threads a message as a reply to a previous one.
type ReplyRef struct {
	MessageID string `json:"message_id"`
}

type Text struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url,omitempty"`
}

type Interactive struct {
	Type   string       `json:"type"` // "button" or "list"
	Header *Header      `json:"header,omitempty"`
	Body   *TextContent `json:"body"`
	Footer *TextContent `json:"footer,omitempty"`
	Action *Action      `json:"action"`
}

type Header struct {
	Type string `json:"type"` // only "text" headers are produced here
	Text string `json:"text"`
}

type TextContent struct {
	Text string `json:"text"`
}

type Action struct {
	Buttons  []ButtonWrapper `json:"buttons,omitempty"`
	Button   string          `json:"button,omitempty"`
	Sections []Section       `json:"sections,omitempty"`
}

type ButtonWrapper struct {
	Type  string      `json:"type"` // always "reply"
	Reply ButtonReply `json:"reply"`
}

type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Section struct {
	Title string `json:"title,omitempty"`
	Rows  []Row  `json:"rows"`
}

type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// Media addresses content either by public link or by a previously
// uploaded media id; the two are mutually exclusive.
type Media struct {
	Link     string `json:"link,omitempty"`
	ID       string `json:"id,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

func (p *Payload) ToJSON() (json.RawMessage, error) {
	return json.Marshal(p)
}

func newPayload(to string, kind Kind, replyTo string) *Payload {
	p := &Payload{
		MessagingProduct: messagingProduct,
		RecipientType:    "individual",
		To:               to,
		Type:             kind,
	}
	if replyTo != "" {
		p.Context = &ReplyRef{MessageID: replyTo}
	}
	return p
}
