package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLCodec_Encode(t *testing.T) {
	codec := NewURLCodec()

	assert.Empty(t, codec.Encode(NewState()))

	s, _ := NewState().WithSearch("engineering").WithFilter("award_level", "Bachelor").WithPage(2)
	assert.Equal(t, map[string]string{
		"search":      "engineering",
		"award_level": "Bachelor",
		"page":        "2",
	}, codec.Encode(s))
}

func TestURLCodec_DecodePage(t *testing.T) {
	codec := NewURLCodec()

	tests := []struct {
		name string
		raw  map[string]string
		want int
	}{
		{name: "missing", raw: map[string]string{}, want: 1},
		{name: "malformed", raw: map[string]string{"page": "abc"}, want: 1},
		{name: "zero", raw: map[string]string{"page": "0"}, want: 1},
		{name: "negative", raw: map[string]string{"page": "-3"}, want: 1},
		{name: "valid", raw: map[string]string{"page": "7"}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codec.Decode(tt.raw).Page)
		})
	}
}

func TestURLCodec_RoundTrip(t *testing.T) {
	codec := NewURLCodec("university", "award_level", "study_mode")

	p3, _ := NewState().WithSearch("dar es salaam").WithFilter("university", "12").WithPage(3)
	p9, _ := NewState().WithFilter("award_level", "Postgraduate Diploma").WithFilter("study_mode", "Part Time").WithPage(9)

	states := []State{
		NewState(),
		NewState().WithSearch("engineering"),
		NewState().WithFilter("award_level", "Bachelor"),
		p3,
		p9,
	}

	for _, s := range states {
		t.Run(s.String(), func(t *testing.T) {
			assert.True(t, codec.Decode(codec.Encode(s)).Equal(s))
			assert.True(t, codec.DecodeValues(codec.EncodeValues(s)).Equal(s))
			assert.True(t, codec.DecodeQuery(codec.EncodeQuery(s)).Equal(s))
		})
	}
}

func TestURLCodec_Whitelist(t *testing.T) {
	codec := NewURLCodec("university")

	s := codec.Decode(map[string]string{"university": "4", "utm_source": "mail", "search": "x"})
	assert.Equal(t, map[string]string{"university": "4"}, s.Filters)
	assert.Equal(t, "x", s.Search)
	assert.False(t, codec.Accepts("utm_source"))
	assert.False(t, codec.Accepts("page"))
}

func TestURLCodec_EmptyValuesAreUnset(t *testing.T) {
	s := NewURLCodec().DecodeValues(url.Values{"award_level": {""}, "study_mode": {"Online"}})
	_, ok := s.Filter("award_level")
	assert.False(t, ok)
	v, _ := s.Filter("study_mode")
	assert.Equal(t, "Online", v)
}

func TestURLCodec_LinkAndQuery(t *testing.T) {
	codec := NewURLCodec()

	assert.Equal(t, "/courses?university=3", codec.Link("/courses", NewState().WithFilter("university", "3")))
	assert.Equal(t, "/courses", codec.Link("/courses", NewState()))

	s := codec.DecodeQuery("?search=dar&page=2")
	assert.Equal(t, "dar", s.Search)
	assert.Equal(t, 2, s.Page)

	s = codec.DecodeQuery("search=%zz&page=2")
	assert.Equal(t, 2, s.Page)
	assert.Equal(t, "", s.Search)
}
