package period

import (
	"fmt"
	"strconv"
	"strings"

	"statseries/internal/model"
)

// Parse turns a raw period string into a time period with a canonical ISO period.
// Accepted shapes: YYYY, YYYY-Qn, YYYYQn, YYYY-MM, YYYYMM and YYYY-Mmm.
func Parse(raw string) (model.TimePeriod, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.TimePeriod{}, false
	}

	if year, month, ok := parseYearMonth(trimmed); ok {
		return monthly(year, month), true
	}
	if year, quarter, ok := parseYearQuarter(trimmed); ok {
		return quarterly(year, quarter), true
	}
	if year, ok := parseYear(trimmed); ok {
		return annual(year), true
	}
	return model.TimePeriod{}, false
}

// Key orders periods numerically: year*10000 + quarter*100 + month.
func Key(tp model.TimePeriod) int {
	key := tp.Year * 10000
	if tp.Quarter != nil {
		key += *tp.Quarter * 100
	}
	if tp.Month != nil {
		key += *tp.Month
	}
	return key
}

// Normalize fills a missing ISO period and periodicity from the structured fields.
// A period already carrying an ISO string is left untouched apart from trimming.
func Normalize(tp *model.TimePeriod) {
	if tp == nil {
		return
	}
	tp.ISOPeriod = strings.TrimSpace(tp.ISOPeriod)
	if tp.ISOPeriod == "" && tp.Year > 0 {
		switch {
		case tp.Month != nil && *tp.Month >= 1 && *tp.Month <= 12:
			tp.ISOPeriod = fmt.Sprintf("%04d-%02d", tp.Year, *tp.Month)
		case tp.Quarter != nil && *tp.Quarter >= 1 && *tp.Quarter <= 4:
			tp.ISOPeriod = fmt.Sprintf("%04d-Q%d", tp.Year, *tp.Quarter)
		default:
			tp.ISOPeriod = fmt.Sprintf("%04d", tp.Year)
		}
	}
	if tp.Periodicity == "" {
		switch {
		case tp.Month != nil:
			tp.Periodicity = model.PeriodicityMonthly
		case tp.Quarter != nil:
			tp.Periodicity = model.PeriodicityQuarterly
		case tp.Year > 0:
			tp.Periodicity = model.PeriodicityAnnual
		}
	}
}

func annual(year int) model.TimePeriod {
	return model.TimePeriod{
		Year:        year,
		Periodicity: model.PeriodicityAnnual,
		ISOPeriod:   fmt.Sprintf("%04d", year),
	}
}

func quarterly(year, quarter int) model.TimePeriod {
	return model.TimePeriod{
		Year:        year,
		Quarter:     model.Int(quarter),
		Periodicity: model.PeriodicityQuarterly,
		ISOPeriod:   fmt.Sprintf("%04d-Q%d", year, quarter),
	}
}

func monthly(year, month int) model.TimePeriod {
	return model.TimePeriod{
		Year:        year,
		Month:       model.Int(month),
		Periodicity: model.PeriodicityMonthly,
		ISOPeriod:   fmt.Sprintf("%04d-%02d", year, month),
	}
}

func parseYearMonth(value string) (int, int, bool) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if len(value) == 6 && isDigits(value) {
		year, _ := strconv.Atoi(value[:4])
		month, _ := strconv.Atoi(value[4:])
		if month >= 1 && month <= 12 {
			return year, month, true
		}
	}

	parts := strings.Split(value, "-")
	if len(parts) == 2 && isYear(parts[0]) {
		monthPart := strings.TrimPrefix(parts[1], "M")
		if monthPart == "" || !isDigits(monthPart) {
			return 0, 0, false
		}
		year, errYear := strconv.Atoi(parts[0])
		month, errMonth := strconv.Atoi(monthPart)
		if errYear == nil && errMonth == nil && month >= 1 && month <= 12 {
			return year, month, true
		}
	}
	return 0, 0, false
}

func parseYearQuarter(value string) (int, int, bool) {
	value = strings.ToUpper(strings.TrimSpace(value))
	for _, sep := range []string{"-Q", "Q"} {
		if !strings.Contains(value, sep) {
			continue
		}
		parts := strings.Split(value, sep)
		if len(parts) != 2 || !isYear(parts[0]) || parts[1] == "" || !isDigits(parts[1]) {
			continue
		}
		year, errYear := strconv.Atoi(parts[0])
		quarter, errQuarter := strconv.Atoi(parts[1])
		if errYear == nil && errQuarter == nil && quarter >= 1 && quarter <= 4 {
			return year, quarter, true
		}
	}
	return 0, 0, false
}

func parseYear(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if !isYear(value) {
		return 0, false
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return year, true
}

func isYear(value string) bool {
	return len(value) == 4 && isDigits(value)
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
