package videometa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseISODuration(t *testing.T) {
	assert.Equal(t, 253, ParseISODuration("PT4M13S"))
	assert.Equal(t, 3600, ParseISODuration("PT1H"))
	assert.Equal(t, 3725, ParseISODuration("PT1H2M5S"))
	assert.Equal(t, 59, ParseISODuration("PT59S"))
	assert.Equal(t, 0, ParseISODuration(""))
	assert.Equal(t, 0, ParseISODuration("4:13"))
}

func TestExtractSourceID(t *testing.T) {
	for _, url := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"https://www.youtube.com/watch?list=abc&v=dQw4w9WgXcQ",
		"dQw4w9WgXcQ",
	} {
		id, err := ExtractSourceID(url)
		assert.NoError(t, err, url)
		assert.Equal(t, "dQw4w9WgXcQ", id, url)
	}

	_, err := ExtractSourceID("https://example.com/watch?v=nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
