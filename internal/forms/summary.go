package forms

import (
	"strings"
)

// SummaryRow is one answer as shown on a check-your-answers page
type SummaryRow struct {
	Label string
	Value string
}

// Summary renders recorded values as label/value rows. Date inputs collapse
// into a single row, radio values show their option label and empty optional
// fields are skipped.
func (f Form) Summary(values map[string]string) []SummaryRow {
	rows := make([]SummaryRow, 0, len(f.Fields))
	for _, field := range f.Fields {
		switch field.Kind {
		case KindDate:
			if !strings.HasSuffix(field.Name, "Day") {
				continue
			}
			prefix := strings.TrimSuffix(field.Name, "Day")
			label := strings.TrimSuffix(field.Label, " day")
			value := strings.Join([]string{values[prefix+"Day"], values[prefix+"Month"], values[prefix+"Year"]}, "/")
			if date, ok := ParseDate(values, prefix); ok {
				value = date.Format("2 January 2006")
			}
			rows = append(rows, SummaryRow{Label: label, Value: value})

		case KindRadio:
			value := values[field.Name]
			for _, opt := range field.Options {
				if opt.Value == value {
					value = opt.Label
					break
				}
			}
			rows = append(rows, SummaryRow{Label: field.Label, Value: value})

		default:
			if values[field.Name] == "" {
				continue
			}
			rows = append(rows, SummaryRow{Label: field.Label, Value: values[field.Name]})
		}
	}
	return rows
}
