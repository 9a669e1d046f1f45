package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain",
			text: "http://boxs.kr/1K5YT",
			want: []string{"http://boxs.kr/1K5YT"},
		},
		{
			name: "query",
			text: "http://boxs.kr/index.php?url=1K5YT",
			want: []string{"http://boxs.kr/index.php?url=1K5YT"},
		},
		{
			name: "percentEncodedPath",
			text: "http://auto-man.kr/%EC%9C%A4%EC%88%98%EC%98%811",
			want: []string{"http://auto-man.kr/%EC%9C%A4%EC%88%98%EC%98%811"},
		},
		{
			name: "playStore",
			text: "https://play.google.com/store/apps/details?id=kr.automan.app2&referrer=e3JlY29tbToi7Jyk7IiY7JiBMSJ9",
			want: []string{"https://play.google.com/store/apps/details?id=kr.automan.app2&referrer=e3JlY29tbToi7Jyk7IiY7JiBMSJ9"},
		},
		{
			name: "surroundingText",
			text: "moved to https://www.facebook.com/ now.",
			want: []string{"https://www.facebook.com/"},
		},
		{
			name: "twoTokens",
			text: "http://a.example.com/x http://b.example.com/y",
			want: []string{"http://a.example.com/x", "http://b.example.com/y"},
		},
		{
			name: "localPort",
			text: "http://127.0.0.1:8080/final",
			want: []string{"http://127.0.0.1:8080/final"},
		},
		{
			name: "otherScheme",
			text: "ftp://files.example.com/a",
			want: []string{},
		},
		{
			name: "noScheme",
			text: "boxs.kr/1K5YT",
			want: []string{},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, URLs(tt.text))
		})
	}
}

func TestCustomSchemes(t *testing.T) {
	m, err := New("ftp://")
	require.NoError(t, err)

	assert.Equal(t, []string{"ftp://files.example.com/a"}, m.Find("see ftp://files.example.com/a"))
	assert.Empty(t, m.Find("https://example.com/"))
}

func TestSchemeIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, []string{"HTTPS://Example.com/A"}, URLs("HTTPS://Example.com/A"))
}

func TestNewRejectsEmptyScheme(t *testing.T) {
	_, err := New("http", " ")
	require.Error(t, err)
	assert.Equal(t, []string{}, URLs("http://example.com/", ""))
}
