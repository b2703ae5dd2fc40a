package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func mustMerge(t *testing.T, override string) *Model {
	t.Helper()
	m, err := Merge(Defaults(), gjson.Parse(override))
	require.NoError(t, err)
	return m
}

func TestMergeEmptyOverrideIsIdentity(t *testing.T) {
	defaults := Defaults()
	for _, override := range []string{`{}`, ``, `null`} {
		merged, err := Merge(defaults, gjson.Parse(override))
		require.NoError(t, err, "override %q", override)
		assert.True(t, merged.Equal(defaults), "override %q changed the model", override)
	}
}

func TestMergeReplacesLeavesAndKeepsDefaults(t *testing.T) {
	merged := mustMerge(t, `{
		"MetricsReportingEnabled": true,
		"DefaultGeolocationSetting": 3,
		"DnsOverHttpsMode": "secure",
		"ReportAppInventory": ["extensions", "browsers"]
	}`)

	want := map[string]Value{
		"MetricsReportingEnabled":   Bool(true),
		"DefaultGeolocationSetting": Int(3),
		"DnsOverHttpsMode":          Enum("secure"),
		"ReportAppInventory":        StringList("extensions", "browsers"),
	}

	defaults := Defaults()
	require.Equal(t, defaults.Names(), merged.Names(), "merge must not reorder or drop settings")
	for _, s := range merged.Settings() {
		if v, ok := want[s.Name]; ok {
			assert.True(t, v.Equal(s.Value), "%s = %s, want %s", s.Name, s.Value, v)
			continue
		}
		d, _ := defaults.Get(s.Name)
		assert.True(t, d.Value.Equal(s.Value), "%s changed without an override", s.Name)
	}
}

func TestMergeDoesNotMutateDefaults(t *testing.T) {
	defaults := Defaults()
	_, err := Merge(defaults, gjson.Parse(`{"SyncDisabled": false}`))
	require.NoError(t, err)

	s, ok := defaults.Get("SyncDisabled")
	require.True(t, ok)
	assert.True(t, s.Value.Bool())
}

func TestMergeGroupedOverride(t *testing.T) {
	merged := mustMerge(t, `{"telemetry": {"MetricsReportingEnabled": true, "CloudReportingEnabled": false}}`)

	s, _ := merged.Get("MetricsReportingEnabled")
	assert.True(t, s.Value.Bool())

	extra, ok := merged.Get("CloudReportingEnabled")
	require.True(t, ok)
	assert.Equal(t, GroupTelemetry, extra.Group)
	assert.True(t, extra.Passthrough)
	assert.Equal(t, KindBool, extra.Kind())
}

func TestMergeKindMismatch(t *testing.T) {
	tests := []struct {
		name     string
		override string
		setting  string
		want     Kind
	}{
		{"string for boolean", `{"MetricsReportingEnabled": "false"}`, "MetricsReportingEnabled", KindBool},
		{"number for boolean", `{"SyncDisabled": 1}`, "SyncDisabled", KindBool},
		{"fraction for integer", `{"DefaultGeolocationSetting": 2.5}`, "DefaultGeolocationSetting", KindInt},
		{"boolean for integer", `{"BrowserSignin": false}`, "BrowserSignin", KindInt},
		{"mixed list", `{"ReportAppInventory": ["a", 1]}`, "ReportAppInventory", KindStringList},
		{"number for enum", `{"DnsOverHttpsMode": 1}`, "DnsOverHttpsMode", KindEnum},
		{"grouped mismatch", `{"sync": {"SyncDisabled": "yes"}}`, "SyncDisabled", KindBool},
		{"integer past int64", `{"BrowserSignin": 9223372036854775808}`, "BrowserSignin", KindInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge(Defaults(), gjson.Parse(tt.override))
			require.Error(t, err)

			var se *SchemaError
			require.True(t, errors.As(err, &se), "want SchemaError, got %T", err)
			assert.Equal(t, tt.setting, se.Setting)
			assert.Equal(t, tt.want, se.Want)
		})
	}
}

func TestMergeIntegerBounds(t *testing.T) {
	m := mustMerge(t, `{"BrowserSignin": 1e3, "MaxTabs": 9223372036854775807, "MinTabs": -9223372036854775808}`)
	s, _ := m.Get("BrowserSignin")
	assert.Equal(t, int64(1000), s.Value.Int())
	s, _ = m.Get("MaxTabs")
	assert.Equal(t, int64(9223372036854775807), s.Value.Int())
	s, _ = m.Get("MinTabs")
	assert.Equal(t, int64(-9223372036854775808), s.Value.Int())

	for _, raw := range []string{`9223372036854775808`, `1e19`, `-1e19`} {
		_, err := Merge(Defaults(), gjson.Parse(`{"Huge": `+raw+`}`))
		var se *SchemaError
		assert.True(t, errors.As(err, &se), "%s should not fit an int", raw)
	}
}

func TestMergeRejectsUnknownEnumValue(t *testing.T) {
	_, err := Merge(Defaults(), gjson.Parse(`{"DnsOverHttpsMode": "sometimes"}`))

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), `"sometimes" is not one of off, automatic, secure`)
}

func TestMergeReportsEveryOffendingKey(t *testing.T) {
	_, err := Merge(Defaults(), gjson.Parse(`{"SyncDisabled": "no", "TorDisabled": 0, "BraveWalletDisabled": true}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SyncDisabled")
	assert.Contains(t, err.Error(), "TorDisabled")
	assert.NotContains(t, err.Error(), "BraveWalletDisabled")
}

func TestMergePassthrough(t *testing.T) {
	merged := mustMerge(t, `{
		"HomepageLocation": "about:blank",
		"RestoreOnStartup": 5,
		"URLBlocklist": ["example.com"],
		"enterprise": {"CloudManagementEnrollmentMandatory": false}
	}`)

	names := merged.Names()
	assert.Equal(t, []string{"HomepageLocation", "RestoreOnStartup", "URLBlocklist", "CloudManagementEnrollmentMandatory"}, names[len(names)-4:])

	home, _ := merged.Get("HomepageLocation")
	assert.Equal(t, GroupExtra, home.Group)
	assert.Equal(t, KindString, home.Kind())

	restore, _ := merged.Get("RestoreOnStartup")
	assert.Equal(t, KindInt, restore.Kind())

	enrol, _ := merged.Get("CloudManagementEnrollmentMandatory")
	assert.Equal(t, Group("enterprise"), enrol.Group)
	assert.Contains(t, merged.Groups(), Group("enterprise"))
}

func TestMergeRejectsUninferableShapes(t *testing.T) {
	for _, override := range []string{
		`{"ManagedBookmarks": [{"name": "x"}]}`,
		`{"Ratio": 0.5}`,
		`{"Nothing": null}`,
		`{"enterprise": {"Nested": {"deep": true}}}`,
	} {
		_, err := Merge(Defaults(), gjson.Parse(override))
		var se *SchemaError
		assert.ErrorAs(t, err, &se, "override %s", override)
	}
}

func TestMergeReservedAndMetadataKeys(t *testing.T) {
	_, err := Merge(Defaults(), gjson.Parse(`{"ExtensionInstallForcelist": ["abc;https://x"]}`))
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ForcelistKey, se.Setting)

	merged := mustMerge(t, `{"$schema": "https://example.com/schema.json"}`)
	assert.True(t, merged.Equal(Defaults()))
}

func TestMergeGroupMisuse(t *testing.T) {
	_, err := Merge(Defaults(), gjson.Parse(`{"telemetry": false}`))
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "telemetry", se.Setting)

	_, err = Merge(Defaults(), gjson.Parse(`{"sync": {"MetricsReportingEnabled": true}}`))
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Reason, `group "telemetry"`)
}

func TestMergeRejectsNonObjectOverride(t *testing.T) {
	_, err := Merge(Defaults(), gjson.Parse(`["MetricsReportingEnabled"]`))
	var se *SchemaError
	require.ErrorAs(t, err, &se)
}
