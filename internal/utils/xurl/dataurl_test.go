package xurl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDataURL(t *testing.T) {
	d := ParseDataURL("data:image/PNG;base64,iVBORw0KGgo=")
	require.NotNil(t, d)
	require.Equal(t, "image/png", d.MediaType)
	require.True(t, d.IsBase64)
	require.Equal(t, "iVBORw0KGgo=", d.Data)

	d = ParseDataURL("data:,Hello")
	require.NotNil(t, d)
	require.Equal(t, "text/plain", d.MediaType)
	require.False(t, d.IsBase64)

	require.Nil(t, ParseDataURL("https://example.com/a.png"))
	require.Nil(t, ParseDataURL("data:image/png;base64"))
	require.Equal(t, "application/pdf", MediaType("data:application/pdf;base64,JVBER"))
	require.Equal(t, "", MediaType("https://example.com/a.pdf"))
}
