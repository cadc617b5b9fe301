package whatsapp

import (
	apperrors "github.com/vendalocal/whatsapp-assistant/internal/errors"
)

// LocationBuilder assembles a location pin.
type LocationBuilder struct {
	to        string
	replyTo   string
	latitude  float64
	longitude float64
	name      string
	address   string
	set       bool
}

func NewLocation(to string) *LocationBuilder {
	return &LocationBuilder{to: to}
}

func (b *LocationBuilder) Coordinates(latitude, longitude float64) *LocationBuilder {
	b.latitude = latitude
	b.longitude = longitude
	b.set = true
	return b
}

func (b *LocationBuilder) Name(name string) *LocationBuilder {
	b.name = name
	return b
}

func (b *LocationBuilder) Address(address string) *LocationBuilder {
	b.address = address
	return b
}

func (b *LocationBuilder) ReplyTo(messageID string) *LocationBuilder {
	b.replyTo = messageID
	return b
}

func (b *LocationBuilder) Build() (*Payload, error) {
	if b.to == "" {
		return nil, apperrors.MissingRequired("recipient")
	}
	if !b.set {
		return nil, apperrors.MissingRequired("coordinates")
	}
	if b.latitude < -90 || b.latitude > 90 {
		return nil, apperrors.InvalidInput("latitude", "must be within [-90, 90]")
	}
	if b.longitude < -180 || b.longitude > 180 {
		return nil, apperrors.InvalidInput("longitude", "must be within [-180, 180]")
	}

	payload := newPayload(b.to, KindLocation, b.replyTo)
	payload.Location = &Location{
		Latitude:  b.latitude,
		Longitude: b.longitude,
		Name:      b.name,
		Address:   b.address,
	}
	return payload, nil
}

// ImageBuilder assembles an image message addressed either by public link
// or by a previously uploaded media id; setting one clears the other.
type ImageBuilder struct {
	to      string
	replyTo string
	link    string
	mediaID string
	caption string
}

func NewImage(to string) *ImageBuilder {
	return &ImageBuilder{to: to}
}

func (b *ImageBuilder) Link(link string) *ImageBuilder {
	b.link = link
	b.mediaID = ""
	return b
}

func (b *ImageBuilder) MediaID(id string) *ImageBuilder {
	b.mediaID = id
	b.link = ""
	return b
}

func (b *ImageBuilder) Caption(caption string) *ImageBuilder {
	b.caption = clampHard("image.caption", caption, CaptionLimit, false)
	return b
}

func (b *ImageBuilder) ReplyTo(messageID string) *ImageBuilder {
	b.replyTo = messageID
	return b
}

func (b *ImageBuilder) Build() (*Payload, error) {
	if b.to == "" {
		return nil, apperrors.MissingRequired("recipient")
	}
	if b.link == "" && b.mediaID == "" {
		return nil, apperrors.MissingRequired("image link or media id")
	}

	payload := newPayload(b.to, KindImage, b.replyTo)
	payload.Image = &Media{
		Link:    b.link,
		ID:      b.mediaID,
		Caption: b.caption,
	}
	return payload, nil
}

// DocumentBuilder assembles a document message; same link/media-id
// exclusivity as images, plus a display filename.
type DocumentBuilder struct {
	to       string
	replyTo  string
	link     string
	mediaID  string
	caption  string
	filename string
}

func NewDocument(to string) *DocumentBuilder {
	return &DocumentBuilder{to: to}
}

func (b *DocumentBuilder) Link(link string) *DocumentBuilder {
	b.link = link
	b.mediaID = ""
	return b
}

func (b *DocumentBuilder) MediaID(id string) *DocumentBuilder {
	b.mediaID = id
	b.link = ""
	return b
}

func (b *DocumentBuilder) Caption(caption string) *DocumentBuilder {
	b.caption = clampHard("document.caption", caption, CaptionLimit, false)
	return b
}

func (b *DocumentBuilder) Filename(filename string) *DocumentBuilder {
	b.filename = filename
	return b
}

func (b *DocumentBuilder) ReplyTo(messageID string) *DocumentBuilder {
	b.replyTo = messageID
	return b
}

func (b *DocumentBuilder) Build() (*Payload, error) {
	if b.to == "" {
		return nil, apperrors.MissingRequired("recipient")
	}
	if b.link == "" && b.mediaID == "" {
		return nil, apperrors.MissingRequired("document link or media id")
	}

	payload := newPayload(b.to, KindDocument, b.replyTo)
	payload.Document = &Media{
		Link:     b.link,
		ID:       b.mediaID,
		Caption:  b.caption,
		Filename: b.filename,
	}
	return payload, nil
}
