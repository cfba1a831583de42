package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentType(t *testing.T) {
	tests := []struct {
		in      string
		want    ContentType
		wantErr bool
	}{
		{in: "URL", want: ContentURL},
		{in: "url", want: ContentURL},
		{in: " shortlink ", want: ContentShortLink},
		{in: "PaymentJar", want: ContentMonobank},
		{in: "monobank", want: ContentMonobank},
		{in: "vcard", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseContentType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownContentType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceholderCoversAllTypes(t *testing.T) {
	for _, ct := range ContentTypes() {
		assert.NotEmpty(t, Placeholder(ct), ct)
	}
	assert.Empty(t, Placeholder("unknown"))
}

func TestParseDotShape(t *testing.T) {
	shape, err := ParseDotShape("dot")
	require.NoError(t, err)
	assert.Equal(t, DotDots, shape)

	shape, err = ParseDotShape("Classy")
	require.NoError(t, err)
	assert.Equal(t, DotClassy, shape)

	_, err = ParseDotShape("star")
	assert.ErrorIs(t, err, ErrUnknownDotShape)
}

func TestStyleApply(t *testing.T) {
	base := DefaultStyle()
	red := "#ff0000"
	shape := "rounded"
	logo := true

	next, err := base.Apply(StylePatch{DotColor: &red, DotShape: &shape, Logo: &logo})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", next.DotColor)
	assert.Equal(t, DotRounded, next.DotShape)
	assert.True(t, next.Logo)
	assert.Equal(t, base.BackgroundColor, next.BackgroundColor)

	// Ошибка в одном поле не должна частично применять патч
	bad := "red"
	same, err := base.Apply(StylePatch{DotColor: &red, BackgroundColor: &bad})
	assert.ErrorIs(t, err, ErrInvalidColor)
	assert.Equal(t, base, same)
}

func TestValidateColor(t *testing.T) {
	assert.NoError(t, ValidateColor("#fff"))
	assert.NoError(t, ValidateColor("#1E293B"))
	assert.Error(t, ValidateColor("1e293b"))
	assert.Error(t, ValidateColor("#12345"))
}
