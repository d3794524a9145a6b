package render

import (
	"testing"
	"time"

	"github.com/MrEthical07/authguard/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profile(t *testing.T, raw string) *session.Profile {
	t.Helper()
	p, err := session.DecodeProfile(raw)
	require.NoError(t, err)
	return p
}

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	return time.FixedZone("WIB", 7*60*60)
}

func TestDisplayNameResolution(t *testing.T) {
	r := Default()
	cases := []struct {
		raw  string
		want string
	}{
		{raw: `{"fullName":"Budi Santoso","username":"budi"}`, want: "Budi Santoso"},
		{raw: `{"fullName":"","username":"budi"}`, want: "budi"},
		{raw: `{"username":"budi"}`, want: "budi"},
		{raw: `{"fullName":null,"username":""}`, want: "Admin"},
		{raw: `{}`, want: "Admin"},
		{raw: `{"fullName":42}`, want: "42"},
		{raw: `{"fullName":0,"username":"budi"}`, want: "budi"},
		{raw: `{"fullName":["a","b"]}`, want: "a,b"},
		{raw: `{"fullName":{"first":"Budi"}}`, want: "[object Object]"},
		{raw: `7`, want: "Admin"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, r.DisplayName(profile(t, tc.raw)), tc.raw)
	}
}

func TestCustomFallbackName(t *testing.T) {
	r := Default()
	r.FallbackName = "Administrator"
	assert.Equal(t, "Administrator", r.DisplayName(profile(t, `{}`)))
}

func TestRenderWritesTargets(t *testing.T) {
	r := Default()
	r.Location = jakarta(t)
	page := NewStaticPage(DefaultNameElement, DefaultLoginTimeElement)

	r.Render(page, profile(t, `{"fullName":"Budi","loginTime":"2026-10-14T02:05:00.000Z"}`))

	assert.Equal(t, "Budi", page.Text(DefaultNameElement))
	assert.Equal(t, "14/10/2026, 09.05", page.Text(DefaultLoginTimeElement))
}

func TestRenderLeavesLoginTimeUntouchedWhenAbsent(t *testing.T) {
	r := Default()
	page := NewStaticPage(DefaultNameElement, DefaultLoginTimeElement)

	r.Render(page, profile(t, `{"username":"budi"}`))

	el, ok := page.Lookup(DefaultLoginTimeElement)
	require.True(t, ok)
	assert.Zero(t, el.Writes())
	assert.Equal(t, "budi", page.Text(DefaultNameElement))
}

func TestRenderToleratesMissingElements(t *testing.T) {
	r := Default()
	assert.NotPanics(t, func() {
		r.Render(NewStaticPage(), profile(t, `{"fullName":"Budi","loginTime":"2026-10-14T02:05:00Z"}`))
		r.Render(nil, profile(t, `{}`))
		r.Render(NewStaticPage(DefaultNameElement), nil)
	})
}

func TestRenderSkipsFalsyProfile(t *testing.T) {
	r := Default()
	for _, raw := range []string{`null`, `0`, `""`, `false`} {
		page := NewStaticPage(DefaultNameElement)
		r.Render(page, profile(t, raw))
		el, _ := page.Lookup(DefaultNameElement)
		assert.Zero(t, el.Writes(), raw)
	}
}

func TestFormatLoginTimeInputs(t *testing.T) {
	r := Renderer{Location: jakarta(t)}
	cases := []struct {
		in   any
		want string
	}{
		{in: "2026-10-14T02:05:00Z", want: "14/10/2026, 09.05"},
		{in: "2026-10-14T09:05:00+07:00", want: "14/10/2026, 09.05"},
		{in: "2026-10-14", want: "14/10/2026, 07.00"},
		{in: "2026-10-14 09:05:00", want: "14/10/2026, 09.05"},
		{in: float64(time.Date(2026, 10, 14, 2, 5, 0, 0, time.UTC).UnixMilli()), want: "14/10/2026, 09.05"},
		{in: "kemarin sore", want: InvalidDate},
		{in: map[string]any{}, want: InvalidDate},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, r.FormatLoginTime(tc.in), "%v", tc.in)
	}
}

func TestFormatID(t *testing.T) {
	ts := time.Date(2026, 1, 5, 23, 7, 0, 0, time.UTC)
	assert.Equal(t, "05/01/2026, 23.07", FormatID(ts))
}
