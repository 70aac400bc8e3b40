package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDate(t *testing.T) {
	want := NewDate(2024, 3, 9)
	for _, in := range []string{"2024-03-09", " 2024-03-09 ", "2024-03-09T17:45:00Z", "2024-03-09T17:45:00", "2024-03-09 17:45:00"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(want), "%q -> %s", in, got)
	}

	_, err := ParseDate("09/03/2024")
	assert.Error(t, err)
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, 2, 27)
	assert.Equal(t, "2024-03-02", d.AddDays(4).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.Equal(t, "", Date{}.String())
}

func TestDateOfUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2024, 7, 4, 23, 30, 0, 0, loc)
	assert.Equal(t, "2024-07-04", DateOf(late).String())
}

func TestDateJSON(t *testing.T) {
	var v struct {
		Due  Date  `json:"due"`
		Last *Date `json:"last"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-05-06","last":null}`), &v))
	assert.Equal(t, "2024-05-06", v.Due.String())
	assert.Nil(t, v.Last)

	require.NoError(t, json.Unmarshal([]byte(`{"due":""}`), &v))
	assert.True(t, v.Due.IsZero())

	b, err := json.Marshal(struct {
		Due Date `json:"due"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":null}`, string(b))
}

func TestDateYAML(t *testing.T) {
	var v struct {
		Due Date `yaml:"due"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("due: 2024-05-06\n"), &v))
	assert.Equal(t, "2024-05-06", v.Due.String())

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(out), "2024-05-06")
}

func TestDateScanValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2024-01-31"))
	assert.Equal(t, "2024-01-31", d.String())

	require.NoError(t, d.Scan([]byte("2024-02-01")))
	assert.Equal(t, "2024-02-01", d.String())

	require.NoError(t, d.Scan(time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-02-02", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))

	v, err := NewDate(2024, 1, 1).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
