package collector

import (
	"strings"
	"sync"
	"time"

	"github.com/scmhub/calendar"

	"SignalSentinel/internal/model"
)

// suffixMICs maps Yahoo-style ticker suffixes to ISO 10383 MIC codes.
var suffixMICs = []struct {
	suffix string
	mic    string
}{
	{".L", "xlon"}, {".PA", "xpar"}, {".DE", "xfra"}, {".AS", "xams"},
	{".BR", "xbru"}, {".MI", "xmil"}, {".MC", "xmad"}, {".ST", "xsto"},
	{".CO", "xcse"}, {".HE", "xhel"}, {".VI", "xwbo"}, {".SW", "xswx"},
	{".TO", "xtse"}, {".V", "xtsx"}, {".T", "xtks"}, {".HK", "xhkg"},
	{".AX", "xasx"}, {".KS", "xkrx"}, {".TW", "xtai"}, {".SS", "xshg"},
	{".SZ", "xshe"},
}

// MICForSymbol picks the exchange calendar for an equity symbol, defaulting to NYSE.
func MICForSymbol(symbol string) string {
	s := EquitySymbol(symbol)
	for _, m := range suffixMICs {
		if strings.HasSuffix(s, m.suffix) {
			return m.mic
		}
	}
	return "xnys"
}

// TradingCalendar answers whether an exchange was open on a given date.
// Without a library calendar it treats Monday to Friday as trading days.
type TradingCalendar struct {
	cal *calendar.Calendar
	loc *time.Location
}

var calendars sync.Map // mic -> *TradingCalendar

// CalendarFor returns the (cached) calendar for a symbol's exchange.
func CalendarFor(symbol string) *TradingCalendar {
	mic := MICForSymbol(symbol)
	if tc, ok := calendars.Load(mic); ok {
		return tc.(*TradingCalendar)
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}
	tc := &TradingCalendar{cal: cal, loc: time.UTC}
	if cal != nil && cal.Loc != nil {
		tc.loc = cal.Loc
	}
	actual, _ := calendars.LoadOrStore(mic, tc)
	return actual.(*TradingCalendar)
}

// IsTradingDay checks the trading date a bar belongs to. Bars stamped at
// midnight UTC carry their date in UTC; any other timestamp is a session time
// and is read in the exchange's zone.
func (tc *TradingCalendar) IsTradingDay(day time.Time) bool {
	y, m, d := tradingDate(day, tc.loc)
	local := time.Date(y, m, d, 12, 0, 0, 0, tc.loc)
	if tc.cal == nil {
		wd := local.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.cal.IsBusinessDay(local)
}

func tradingDate(t time.Time, loc *time.Location) (int, time.Month, int) {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 {
		return u.Date()
	}
	return t.In(loc).Date()
}

// FilterTradingDays drops bars dated on exchange holidays or weekends.
// Bars are never invented to fill gaps.
func FilterTradingDays(symbol string, bars []model.Candle) []model.Candle {
	if len(bars) == 0 {
		return bars
	}
	tc := CalendarFor(symbol)
	out := make([]model.Candle, 0, len(bars))
	for _, b := range bars {
		if tc.IsTradingDay(b.Date) {
			out = append(out, b)
		}
	}
	return out
}
