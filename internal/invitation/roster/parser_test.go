package roster_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow-backend/internal/invitation/roster"
)

func drain(t *testing.T, s *roster.Scanner) []roster.Record {
	t.Helper()
	var out []roster.Record
	for {
		rec, err := s.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

func TestParseCanonicalHeaders(t *testing.T) {
	csv := "email,displayname,unitnumber\na@x.com,Alice,101\n"

	s, err := roster.Parse(strings.NewReader(csv), roster.InviteeFields, nil)
	require.NoError(t, err)

	records := drain(t, s)
	require.Len(t, records, 1)
	assert.Equal(t, "a@x.com", records[0].Email())
	assert.Equal(t, "Alice", records[0].DisplayName())
	assert.Equal(t, "101", records[0].UnitNumber())
	assert.Nil(t, records[0].Extra)
	assert.Equal(t, 0, s.Skipped())
}

func TestParseAliasHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"spaced and cased", "E-Mail,Full Name,Apt#"},
		{"underscored", "email_address,display_name,unit_no"},
		{"terse", "e mail,name,apt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := roster.Parse(strings.NewReader(tt.header+"\na@x.com,Alice,101\n"), roster.InviteeFields, nil)
			require.NoError(t, err)

			records := drain(t, s)
			require.Len(t, records, 1)
			assert.Equal(t, "a@x.com", records[0].Email())
			assert.Equal(t, "Alice", records[0].DisplayName())
			assert.Equal(t, "101", records[0].UnitNumber())
			assert.Nil(t, records[0].Extra)
		})
	}
}

func TestParseSkipsRowsMissingRequiredEmail(t *testing.T) {
	// Scenario: three rows, the middle one has no email.
	csv := "Email, Full Name, Apt#\n" +
		"a@x.com,Alice,101\n" +
		",Bob,102\n" +
		"c@x.com,Cara,103\n"

	s, err := roster.Parse(strings.NewReader(csv), roster.InviteeFields, nil)
	require.NoError(t, err)

	records := drain(t, s)
	require.Len(t, records, 2)
	assert.Equal(t, "a@x.com", records[0].Email())
	assert.Equal(t, "c@x.com", records[1].Email())
	assert.Equal(t, 1, s.Skipped())
}

func TestParseBlankRowsAreIgnoredSilently(t *testing.T) {
	csv := "email,name\n\n , \na@x.com,Alice\n"

	s, err := roster.Parse(strings.NewReader(csv), roster.InviteeFields, nil)
	require.NoError(t, err)

	records := drain(t, s)
	require.Len(t, records, 1)
	assert.Equal(t, 0, s.Skipped())
}

func TestParseExtraColumnsKeepOriginalHeaderText(t *testing.T) {
	csv := "email,name,Parking Spot,Notes\na@x.com,Alice,P-7,\n"

	s, err := roster.Parse(strings.NewReader(csv), roster.InviteeFields, nil)
	require.NoError(t, err)

	records := drain(t, s)
	require.Len(t, records, 1)

	// Leftover columns are keyed by the verbatim header, and columns
	// with empty values are dropped rather than recorded as "".
	require.NotNil(t, records[0].Extra)
	assert.Equal(t, "P-7", records[0].Extra["Parking Spot"])
	_, hasNotes := records[0].Extra["Notes"]
	assert.False(t, hasNotes)
}

func TestParseNoLeftoversEncodesExtraAsNil(t *testing.T) {
	csv := "email,name\na@x.com,Alice\n"

	s, err := roster.Parse(strings.NewReader(csv), roster.InviteeFields, nil)
	require.NoError(t, err)

	records := drain(t, s)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Extra)
}

func TestParseAliasPriorityEarlierFieldClaimsHeader(t *testing.T) {
	// "name" is an alias of displayName; a custom field list where an
	// earlier field also claims "name" must win, leaving the later
	// field empty.
	fields := []roster.FieldConfig{
		{Name: "primary", Aliases: []string{"name"}},
		{Name: "secondary", Aliases: []string{"name"}, Required: true},
		{Name: roster.FieldEmail, Aliases: []string{"email"}, Required: true},
	}

	s, err := roster.Parse(strings.NewReader("name,email\nAlice,a@x.com\n"), fields, nil)
	require.NoError(t, err)

	// The required "secondary" field can never be satisfied, so every
	// row is skipped.
	records := drain(t, s)
	assert.Empty(t, records)
	assert.Equal(t, 1, s.Skipped())
}

func TestParseDuplicateHeadersFirstColumnWins(t *testing.T) {
	csv := "email,email\nfirst@x.com,second@x.com\n"

	s, err := roster.Parse(strings.NewReader(csv), roster.InviteeFields, nil)
	require.NoError(t, err)

	records := drain(t, s)
	require.Len(t, records, 1)
	assert.Equal(t, "first@x.com", records[0].Email())
}

func TestParseShortRows(t *testing.T) {
	// Rows shorter than the header simply have no value for trailing
	// columns.
	csv := "email,name,unit\na@x.com\n"

	s, err := roster.Parse(strings.NewReader(csv), roster.InviteeFields, nil)
	require.NoError(t, err)

	records := drain(t, s)
	require.Len(t, records, 1)
	assert.Equal(t, "a@x.com", records[0].Email())
	assert.Equal(t, "", records[0].DisplayName())
}

func TestParseEmptyInputFailsHeaderRead(t *testing.T) {
	_, err := roster.Parse(strings.NewReader(""), roster.InviteeFields, nil)
	assert.Error(t, err)
}
