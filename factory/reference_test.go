package factory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/labor"
)

const yamlDoc = `
name: pt-custom
working_hours:
  per_day: 7.5
  max_shift_hours: 14
overtime:
  additional_rate: 1.8
breaks:
  enforce: true
leave_types:
  - code: vacation
    name: Férias
    entitlement: {days: 25, paid: true, requires_approval: true}
  - code: sick
    name: Baixa
    entitlement: {paid: true}
holidays:
  - {company_id: acme, date: "2024-06-13", name: Santo António}
  - {company_id: acme, date: "2020-09-14", name: Company day, recurring: true}
`

func TestParse_YAMLOverridesDefaults(t *testing.T) {
	ref, err := NewReferenceFactory().Parse([]byte(yamlDoc), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "pt-custom", ref.Code.Name)
	assert.Equal(t, "7.5", ref.Code.DailyRegularHours.String())
	assert.Equal(t, "40", ref.Code.WeeklyRegularHours.String(), "absent keeps default")
	assert.Equal(t, "1.8", ref.Code.AdditionalRate.String())
	assert.Equal(t, "1.5", ref.Code.FirstTierRate.String())
	assert.Equal(t, 11*time.Hour, ref.Code.MinDailyRest)
	assert.Equal(t, 14*time.Hour, ref.Code.MaxShiftLength)
	assert.True(t, ref.Code.EnforceBreaks)

	vacation, ok := ref.Catalog.EntitlementFor(labor.LeaveVacation)
	require.True(t, ok)
	assert.Equal(t, 25, *vacation.Days)
	_, ok = ref.Catalog.EntitlementFor(labor.LeaveMaternity)
	assert.False(t, ok, "leave_types replaces the default table")

	require.Len(t, ref.Holidays, 2)
	assert.Equal(t, generic.TenantID("acme"), ref.Holidays[0].CompanyID)
	assert.Equal(t, "2024-06-13", ref.Holidays[0].Date.String())
	assert.True(t, ref.Holidays[1].Recurring)
}

func TestParse_JSONEmptyDocumentIsDefault(t *testing.T) {
	ref, err := NewReferenceFactory().Parse([]byte(`{}`), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, labor.PortugueseCode(), ref.Code)
	assert.Len(t, ref.Catalog.Types(), 8)
	assert.Empty(t, ref.Holidays)
}

func TestParse_Rejects(t *testing.T) {
	f := NewReferenceFactory()

	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{`},
		{"zero daily hours", `{"working_hours": {"per_day": 0}}`},
		{"week shorter than day", `{"working_hours": {"per_day": 8, "per_week": 6}}`},
		{"rate below one", `{"overtime": {"first_tier_rate": 0.5}}`},
		{"rest over a day", `{"rest": {"min_daily_hours": 30}}`},
		{"shift shorter than a day's work", `{"working_hours": {"max_shift_hours": 6}}`},
		{"shift over a day", `{"working_hours": {"max_shift_hours": 26}}`},
		{"unknown leave code", `{"leave_types": [{"code": "sabbatical", "name": "x", "entitlement": {}}]}`},
		{"bad holiday date", `{"holidays": [{"date": "13/06/2024", "name": "x"}]}`},
		{"holiday without name", `{"holidays": [{"date": "2024-06-13"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Parse([]byte(tt.doc), FormatJSON)
			assert.Error(t, err)
		})
	}

	_, err := f.Parse([]byte(`{}`), Format("toml"))
	assert.Error(t, err)
}

func TestLoadFile_PicksFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reference.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	ref, err := NewReferenceFactory().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pt-custom", ref.Code.Name)

	_, err = NewReferenceFactory().LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestToDoc_RoundTrip(t *testing.T) {
	// GIVEN: The default code rendered to a document
	// WHEN: Encoding to YAML and parsing it back
	// THEN: The same limits come out

	doc := ToDoc(labor.PortugueseCode(), labor.DefaultCatalog())
	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	ref, err := NewReferenceFactory().Parse(data, FormatYAML)
	require.NoError(t, err)

	want := labor.PortugueseCode()
	assert.True(t, want.FirstTierRate.Equal(ref.Code.FirstTierRate))
	assert.True(t, want.AdditionalRate.Equal(ref.Code.AdditionalRate))
	assert.Equal(t, want.MinDailyRest, ref.Code.MinDailyRest)
	assert.Equal(t, want.MaxShiftLength, ref.Code.MaxShiftLength)
	assert.Equal(t, want.MinBreak, ref.Code.MinBreak)
	assert.Equal(t, want.VacationDaysPerYear, ref.Code.VacationDaysPerYear)

	maternity, ok := ref.Catalog.EntitlementFor(labor.LeaveMaternity)
	require.True(t, ok)
	assert.Equal(t, 120, *maternity.MinDays)
}
