// Package render projects the stored admin profile onto page elements: the
// display name and the formatted login time. Every target is optional.
package render

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/authguard/session"
	"github.com/araddon/dateparse"
)

const (
	// DefaultNameElement is the element id showing the admin name.
	DefaultNameElement = "adminName"
	// DefaultLoginTimeElement is the element id showing the login time.
	DefaultLoginTimeElement = "loginTime"
	// DefaultFallbackName is shown when the profile carries no name.
	DefaultFallbackName = "Admin"
	// InvalidDate is rendered for login times that do not parse.
	InvalidDate = "Invalid Date"
)

// Element is a text-bearing page element.
type Element interface {
	SetText(text string)
}

// Page looks up elements by id.
type Page interface {
	Element(id string) (Element, bool)
}

// Renderer writes profile fields into a Page.
type Renderer struct {
	NameElement      string
	LoginTimeElement string
	FallbackName     string
	// Location is the zone login times are shown in. Nil means time.Local.
	Location *time.Location
}

// Default returns a Renderer with the admin page element ids.
func Default() Renderer {
	return Renderer{
		NameElement:      DefaultNameElement,
		LoginTimeElement: DefaultLoginTimeElement,
		FallbackName:     DefaultFallbackName,
	}
}

// Render updates the name and login-time targets. Missing targets, a nil page
// and a nil or falsy profile value (null, 0, "", false) are no-ops.
func (r Renderer) Render(page Page, p *session.Profile) {
	if page == nil || p == nil || !truthy(p.Value()) {
		return
	}

	if el, ok := page.Element(r.NameElement); ok {
		el.SetText(r.DisplayName(p))
	}

	if el, ok := page.Element(r.LoginTimeElement); ok {
		if lt := p.LoginTime(); truthy(lt) {
			el.SetText(r.FormatLoginTime(lt))
		}
	}
}

// DisplayName resolves fullName, then username, then the fallback label.
func (r Renderer) DisplayName(p *session.Profile) string {
	if v := p.FullName(); truthy(v) {
		return jsString(v)
	}
	if v := p.Username(); truthy(v) {
		return jsString(v)
	}
	if r.FallbackName == "" {
		return DefaultFallbackName
	}
	return r.FallbackName
}

// FormatLoginTime renders v as an id-ID short date and time, for example
// "14/10/2026, 09.05".
func (r Renderer) FormatLoginTime(v any) string {
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	t, ok := toTime(v, loc)
	if !ok {
		return InvalidDate
	}
	return FormatID(t.In(loc))
}

// FormatID formats t with the id-ID numeric date and hour:minute pattern.
func FormatID(t time.Time) string {
	return t.Format("02/01/2006, 15.04")
}

var dateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func toTime(v any, loc *time.Location) (time.Time, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		// Date-only ISO strings are UTC midnight; everything else without an
		// offset is local time.
		if dateOnly.MatchString(s) {
			t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
			return t, err == nil
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t, true
		}
		t, err := dateparse.ParseIn(s, loc)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > 8.64e15 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(x)), true
	case bool:
		if x {
			return time.UnixMilli(1), true
		}
		return time.UnixMilli(0), true
	}
	return time.Time{}, false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	}
	return true
}

// jsString renders a decoded JSON value the way String(value) would.
func jsString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatNumber(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e != nil {
				parts[i] = jsString(e)
			}
		}
		return strings.Join(parts, ",")
	}
	return "[object Object]"
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
