// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

// flexInt decodes a JSON number that some APIs send as a string ("328") and
// others as a bare number. Known is false when the field was absent, empty,
// or not numeric.
type flexInt struct {
	Value int
	Known bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*f = flexInt{}
		return nil
	}
	*f = flexInt{Value: n, Known: true}
	return nil
}

// xmlText collects all character data inside an element, including text in
// nested markup such as <i> or <sup>, with whitespace collapsed.
type xmlText string

func (t *xmlText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	s, err := collectText(d)
	if err != nil {
		return err
	}
	*t = xmlText(s)
	return nil
}

// collectText reads tokens up to the end of the current element.
func collectText(d *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return strings.Join(strings.Fields(b.String()), " "), nil
			}
			depth--
		}
	}
}

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// parseMonth accepts "02", "2", "Feb" or "February". Missing or unknown
// months default to January.
func parseMonth(month string) time.Month {
	month = strings.TrimSpace(month)
	if month == "" {
		return time.January
	}
	if m, err := strconv.Atoi(month); err == nil && m >= 1 && m <= 12 {
		return time.Month(m)
	}
	if m, ok := monthNames[strings.ToLower(month)]; ok {
		return m
	}
	return time.January
}

// parseDateParts builds a UTC calendar date. Missing day defaults to 1; the
// result is zero when the year is missing or the date is invalid.
func parseDateParts(year, month, day string) time.Time {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y <= 0 {
		return time.Time{}
	}
	m := parseMonth(month)
	d := 1
	if day = strings.TrimSpace(day); day != "" {
		if n, err := strconv.Atoi(day); err == nil {
			d = n
		}
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Month() != m || t.Year() != y {
		return time.Time{}
	}
	return t
}

// parseMedlineDate handles free-form dates such as "2026 Jan-Feb" by taking
// the year and the first month.
func parseMedlineDate(s string) time.Time {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}
	}
	year := strings.Split(fields[0], "-")[0]
	month := ""
	if len(fields) > 1 {
		month = strings.Split(fields[1], "-")[0]
	}
	return parseDateParts(year, month, "")
}
