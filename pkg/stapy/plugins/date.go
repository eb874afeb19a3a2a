package plugins

import (
	"context"
	"time"

	"github.com/randalmurphal/stapy/pkg/stapy/plugin"
	"github.com/randalmurphal/stapy/pkg/stapy/record"
)

const (
	dateLayout    = "2006-01-02"
	dateFull      = "January 02, 2006"
	dateRFC3339   = "2006-01-02T15:04:05.00Z"
	dateRFC822    = "Mon, 02 Jan 2006 15:04:05 GMT"
	defaultNowFmt = "January 02, 2006 at 15:04"
)

// now is replaced in tests.
var now = time.Now

func registerDate(reg *plugin.Registry) error {
	if err := reg.Register(Date, plugin.HookPageDataMerged, addDateFormats); err != nil {
		return err
	}
	return reg.Register(Date, "now", currentDate)
}

// addDateFormats derives date_full, date_rfc_3339 and date_rfc_822 from a
// "date" field in YYYY-MM-DD form. An unparsable date is copied to
// date_full as is.
func addDateFormats(_ context.Context, value any, _ plugin.Args) (any, error) {
	rec, ok := value.(record.Record)
	if !ok {
		return value, nil
	}
	raw, ok := rec["date"].(string)
	if !ok {
		return value, nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		rec["date_full"] = raw
		return rec, nil
	}
	rec["date_full"] = d.Format(dateFull)
	rec["date_rfc_3339"] = d.Format(dateRFC3339)
	rec["date_rfc_822"] = d.Format(dateRFC822)
	return rec, nil
}

// currentDate formats the current time with the Go layout in the format
// argument.
func currentDate(_ context.Context, _ any, args plugin.Args) (any, error) {
	return now().Format(args.String("format", defaultNowFmt)), nil
}
