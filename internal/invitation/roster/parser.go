package roster

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/pkg/logger"
)

// Canonical invitee field names
const (
	FieldEmail       = "email"
	FieldDisplayName = "displayName"
	FieldUnitNumber  = "unitNumber"
)

// FieldConfig binds a canonical field to the raw header aliases that may
// carry it. Aliases are compared after normalization, in declared order.
type FieldConfig struct {
	Name     string
	Aliases  []string
	Required bool
}

// InviteeFields is the roster template for resident CSV imports.
// Earlier entries win when a header matches aliases of more than one
// canonical field.
var InviteeFields = []FieldConfig{
	{
		Name:     FieldEmail,
		Aliases:  []string{"email", "e_mail", "emailaddress", "email_address"},
		Required: true,
	},
	{
		Name:    FieldDisplayName,
		Aliases: []string{"displayname", "display_name", "name", "fullname", "full_name"},
	},
	{
		Name: FieldUnitNumber,
		Aliases: []string{
			"unitnumber", "unit_number", "unit", "unitno", "apt",
			"apartmentnumber", "unit_no", "apt_number", "apt_no",
		},
	},
}

// Record is one normalized roster row: canonical fields that resolved to
// a non-empty value, plus the free-form leftover columns. Extra is nil,
// never an empty map, when no columns are left over.
type Record struct {
	Fields map[string]string
	Extra  domain.StringMap
}

// Email returns the canonical email field, empty if absent
func (r Record) Email() string { return r.Fields[FieldEmail] }

// DisplayName returns the canonical display name field, empty if absent
func (r Record) DisplayName() string { return r.Fields[FieldDisplayName] }

// UnitNumber returns the canonical unit number field, empty if absent
func (r Record) UnitNumber() string { return r.Fields[FieldUnitNumber] }

// Scanner yields roster records one at a time. It is one-shot and finite;
// rows that fail validation are skipped and counted, never surfaced
// individually.
type Scanner struct {
	reader  *csv.Reader
	fields  []FieldConfig
	headers []string
	logger  *logger.Logger
	skipped int
}

// Parse reads the header line and returns a scanner over the remaining
// rows. Individual malformed rows are skipped during iteration; only a
// missing or unreadable header fails the whole parse.
func Parse(r io.Reader, fields []FieldConfig, log *logger.Logger) (*Scanner, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}

	return &Scanner{
		reader:  reader,
		fields:  fields,
		headers: headers,
		logger:  log,
	}, nil
}

// Skipped reports how many rows were discarded so far
func (s *Scanner) Skipped() int {
	return s.skipped
}

// Next returns the next surviving record. It returns io.EOF when the
// input is exhausted.
func (s *Scanner) Next() (Record, error) {
	for {
		row, err := s.reader.Read()
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				s.skip("unparseable row")
				continue
			}
			return Record{}, err
		}

		if isBlank(row) {
			continue
		}

		rec, ok := s.buildRecord(row)
		if !ok {
			continue
		}
		return rec, nil
	}
}

// buildRecord applies the field configs to one row. Aliases are tried in
// configured order, first match wins, and a header satisfies at most one
// canonical field per row.
func (s *Scanner) buildRecord(row []string) (Record, bool) {
	unclaimed := make(map[string]int, len(s.headers))
	for i := range s.headers {
		if i >= len(row) {
			break
		}
		norm := NormalizeHeader(s.headers[i])
		if norm == "" {
			continue
		}
		if _, dup := unclaimed[norm]; !dup {
			unclaimed[norm] = i
		}
	}

	fields := make(map[string]string, len(s.fields))
	for _, fc := range s.fields {
		claimed := false
		for _, alias := range fc.Aliases {
			idx, ok := unclaimed[NormalizeHeader(alias)]
			if !ok {
				continue
			}
			value := strings.TrimSpace(row[idx])
			if value != "" {
				fields[fc.Name] = value
			}
			delete(unclaimed, NormalizeHeader(alias))
			claimed = true
			break
		}

		if fc.Required && (!claimed || fields[fc.Name] == "") {
			s.skip("missing required field " + fc.Name)
			return Record{}, false
		}
	}

	// Field config mismatches must not leak rows without an address.
	if strings.TrimSpace(fields[FieldEmail]) == "" {
		s.skip("missing email")
		return Record{}, false
	}

	var extra domain.StringMap
	for _, idx := range unclaimed {
		value := strings.TrimSpace(row[idx])
		if value == "" {
			continue
		}
		if extra == nil {
			extra = domain.StringMap{}
		}
		extra[s.headers[idx]] = value
	}

	return Record{Fields: fields, Extra: extra}, true
}

func (s *Scanner) skip(reason string) {
	s.skipped++
	if s.logger != nil {
		s.logger.Debug().Str("reason", reason).Msg("roster row skipped")
	}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
