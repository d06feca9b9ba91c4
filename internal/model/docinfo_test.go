package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocInfoKeepsOrder(t *testing.T) {
	d := ParseDocInfo([]byte(`{"Rhythm":"sinus","Heart Rate":72,"Notes":null}`))

	require.Equal(t, 3, d.Len())
	fields := d.Fields()
	assert.Equal(t, "Rhythm", fields[0].Key)
	assert.Equal(t, "Heart Rate", fields[1].Key)
	assert.Equal(t, float64(72), fields[1].Value)
	assert.Equal(t, "Notes", fields[2].Key)
	assert.Nil(t, fields[2].Value)
}

func TestParseDocInfoMalformed(t *testing.T) {
	inputs := []string{"", "   ", "null", "not json", "[1,2,3]", "42", `"plain text"`, `{"a":`}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			d := ParseDocInfo([]byte(in))
			assert.Equal(t, 0, d.Len())
		})
	}
}

func TestParseDocInfoUnwrapsEncodedString(t *testing.T) {
	d := ParseDocInfo([]byte(`"{\"Hemoglobin\":\"10.5\"}"`))

	v, ok := d.Get("Hemoglobin")
	require.True(t, ok)
	assert.Equal(t, "10.5", v)
}

func TestDocInfoRepeatedKeyKeepsFirstPosition(t *testing.T) {
	d := NewDocInfo(Field{"a", 1}, Field{"b", 2}, Field{"a", 3})

	fields := d.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, 3, fields[0].Value)
}

func TestDocInfoLookupSkipsNil(t *testing.T) {
	d := NewDocInfo(Field{"Glucose (mg/dL)", nil}, Field{"Glucose", "110"})

	v, ok := d.Lookup("Glucose (mg/dL)", "Glucose")
	require.True(t, ok)
	assert.Equal(t, "110", v)

	_, ok = d.Lookup("Cholesterol")
	assert.False(t, ok)
}

func TestDocInfoJSON(t *testing.T) {
	d := NewDocInfo(Field{"z", "last"}, Field{"a", 1.5})

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"last","a":1.5}`, string(b))

	var empty DocInfo
	b, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))

	var back DocInfo
	require.Error(t, json.Unmarshal([]byte(`[1]`), &back))
}
