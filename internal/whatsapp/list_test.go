package whatsapp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vendalocal/whatsapp-assistant/internal/errors"
)

func makeRows(n int, prefix string) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			ID:    fmt.Sprintf("%s_%d", prefix, i+1),
			Title: fmt.Sprintf("Item %d", i+1),
		}
	}
	return rows
}

func totalRows(sections []Section) int {
	total := 0
	for _, s := range sections {
		total += len(s.Rows)
	}
	return total
}

func TestListBuilder(t *testing.T) {
	t.Run("builds a list payload", func(t *testing.T) {
		payload, err := NewList("573001234567").
			Body("Tiendas cercanas").
			ButtonLabel("Ver tiendas").
			AddSection("Comida", makeRows(3, "shop")...).
			Build()
		require.NoError(t, err)
		assert.Equal(t, "list", payload.Interactive.Type)
		assert.Equal(t, "Ver tiendas", payload.Interactive.Action.Button)
		require.Len(t, payload.Interactive.Action.Sections, 1)
		assert.Len(t, payload.Interactive.Action.Sections[0].Rows, 3)
	})

	t.Run("requires body button label and sections", func(t *testing.T) {
		_, err := NewList("573001234567").Build()
		assert.Error(t, err)

		_, err = NewList("573001234567").Body("x").Build()
		assert.Error(t, err)

		_, err = NewList("573001234567").Body("x").ButtonLabel("Ver").Build()
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeMissingRequired, appErr.Code)
	})

	t.Run("rejects an empty section", func(t *testing.T) {
		_, err := NewList("573001234567").
			Body("x").
			ButtonLabel("Ver").
			AddSection("Vacía").
			Build()
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	})

	t.Run("eleventh section is a structural failure", func(t *testing.T) {
		builder := NewList("573001234567").Body("x").ButtonLabel("Ver")
		for i := 0; i < MaxSections+1; i++ {
			builder.AddSection(fmt.Sprintf("s%d", i), makeRows(1, fmt.Sprintf("s%d", i))...)
		}
		_, err := builder.Build()
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeTooManySections, appErr.Code)
	})

	t.Run("overflow trims whole trailing sections first", func(t *testing.T) {
		payload, err := NewList("573001234567").
			Body("x").
			ButtonLabel("Ver").
			AddSection("primera", makeRows(6, "a")...).
			AddSection("segunda", makeRows(3, "b")...).
			AddSection("tercera", makeRows(4, "c")...).
			Build()
		require.NoError(t, err)

		sections := payload.Interactive.Action.Sections
		require.Len(t, sections, 2)
		assert.Equal(t, "primera", sections[0].Title)
		assert.Equal(t, "segunda", sections[1].Title)
		assert.Len(t, sections[0].Rows, 6)
		assert.Len(t, sections[1].Rows, 3)
	})

	t.Run("a single oversized section is partially trimmed", func(t *testing.T) {
		payload, err := NewList("573001234567").
			Body("x").
			ButtonLabel("Ver").
			AddSection("única", makeRows(15, "a")...).
			Build()
		require.NoError(t, err)

		sections := payload.Interactive.Action.Sections
		require.Len(t, sections, 1)
		assert.Len(t, sections[0].Rows, MaxRows)
		assert.Equal(t, "a_1", sections[0].Rows[0].ID)
		assert.Equal(t, "a_10", sections[0].Rows[MaxRows-1].ID)
	})

	t.Run("trim keeps output within the cap", func(t *testing.T) {
		payload, err := NewList("573001234567").
			Body("x").
			ButtonLabel("Ver").
			AddSection("a", makeRows(9, "a")...).
			AddSection("b", makeRows(9, "b")...).
			Build()
		require.NoError(t, err)
		assert.LessOrEqual(t, totalRows(payload.Interactive.Action.Sections), MaxRows)
	})

	t.Run("builder state is not mutated by trim", func(t *testing.T) {
		builder := NewList("573001234567").
			Body("x").
			ButtonLabel("Ver").
			AddSection("a", makeRows(8, "a")...).
			AddSection("b", makeRows(8, "b")...)

		_, err := builder.Build()
		require.NoError(t, err)
		assert.Len(t, builder.sections, 2)
		assert.Len(t, builder.sections[1].Rows, 8)
	})

	t.Run("row content is sanitized against its limits", func(t *testing.T) {
		longTitle := "Este título de fila supera ampliamente el límite"
		payload, err := NewList("573001234567").
			Body("x").
			ButtonLabel("Ver").
			AddSection("s", Row{ID: "r1", Title: longTitle}).
			Build()
		require.NoError(t, err)
		row := payload.Interactive.Action.Sections[0].Rows[0]
		assert.LessOrEqual(t, len([]rune(row.Title)), RowTitleLimit)
	})
}
