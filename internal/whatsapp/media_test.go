package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vendalocal/whatsapp-assistant/internal/errors"
)

func TestLocationBuilder(t *testing.T) {
	t.Run("builds a location payload", func(t *testing.T) {
		payload, err := NewLocation("573001234567").
			Coordinates(4.7110, -74.0721).
			Name("Plaza de mercado").
			Address("Cra 7 # 12-34").
			Build()
		require.NoError(t, err)
		assert.Equal(t, KindLocation, payload.Type)
		assert.Equal(t, 4.7110, payload.Location.Latitude)
	})

	t.Run("requires coordinates", func(t *testing.T) {
		_, err := NewLocation("573001234567").Build()
		assert.Error(t, err)
	})

	t.Run("validates coordinate ranges", func(t *testing.T) {
		_, err := NewLocation("573001234567").Coordinates(91, 0).Build()
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeInvalidInput, appErr.Code)

		_, err = NewLocation("573001234567").Coordinates(0, -181).Build()
		assert.Error(t, err)

		_, err = NewLocation("573001234567").Coordinates(-90, 180).Build()
		assert.NoError(t, err)
	})
}

func TestImageBuilder(t *testing.T) {
	t.Run("link and media id are mutually exclusive", func(t *testing.T) {
		payload, err := NewImage("573001234567").
			Link("https://cdn.example.com/offer.jpg").
			MediaID("media-1").
			Build()
		require.NoError(t, err)
		assert.Empty(t, payload.Image.Link)
		assert.Equal(t, "media-1", payload.Image.ID)

		payload, err = NewImage("573001234567").
			MediaID("media-1").
			Link("https://cdn.example.com/offer.jpg").
			Build()
		require.NoError(t, err)
		assert.Empty(t, payload.Image.ID)
		assert.Equal(t, "https://cdn.example.com/offer.jpg", payload.Image.Link)
	})

	t.Run("requires an address", func(t *testing.T) {
		_, err := NewImage("573001234567").Caption("sin imagen").Build()
		assert.Error(t, err)
	})
}

func TestDocumentBuilder(t *testing.T) {
	t.Run("builds with filename and caption", func(t *testing.T) {
		payload, err := NewDocument("573001234567").
			MediaID("media-9").
			Filename("acuerdo.pdf").
			Caption("Tu acuerdo").
			Build()
		require.NoError(t, err)
		assert.Equal(t, KindDocument, payload.Type)
		assert.Equal(t, "acuerdo.pdf", payload.Document.Filename)
	})

	t.Run("requires an address", func(t *testing.T) {
		_, err := NewDocument("573001234567").Filename("x.pdf").Build()
		assert.Error(t, err)
	})
}
