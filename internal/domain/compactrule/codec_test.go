package compactrule

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/flexprice/curbside/internal/domain/schedule"
	"github.com/flexprice/curbside/internal/domain/servicearea"
	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "addr_rules"

func sampleRules(n int) []Rule {
	rules := make([]Rule, n)
	for i := range rules {
		rules[i] = Rule{
			City:         fmt.Sprintf("city %d", i),
			Zip:          fmt.Sprintf("48%03d", i),
			BaseDay:      i % 7,
			SecondaryDay: Absent,
			SeasonStart:  Absent,
			SeasonEnd:    Absent,
		}
		if i%2 == 0 {
			rules[i].SecondaryDay = (i + 3) % 7
			rules[i].SeasonStart = 1777593600 + int64(i)
			rules[i].SeasonEnd = 1790812800 + int64(i)
		}
	}
	return rules
}

func TestEncodeDecode_SingleChunk(t *testing.T) {
	rules := sampleRules(2)

	md, err := Encode(key, rules, DefaultChunkSize)
	require.NoError(t, err)
	require.Len(t, md, 1)
	assert.Contains(t, md, key)

	decoded, malformed := Decode(key, md)
	assert.Empty(t, malformed)
	assert.Equal(t, rules, decoded)
}

func TestEncodeDecode_FiftyAddressesSpanChunks(t *testing.T) {
	rules := sampleRules(50)

	md, err := Encode(key, rules, DefaultChunkSize)
	require.NoError(t, err)
	require.Greater(t, len(md), 1)

	for k, v := range md {
		assert.LessOrEqual(t, len(v), DefaultChunkSize, "chunk %s", k)
	}
	assert.Contains(t, md, key+"_1")

	decoded, malformed := Decode(key, md)
	assert.Empty(t, malformed)
	require.Len(t, decoded, 50)
	assert.Equal(t, rules, decoded)
}

func TestEncode_Empty(t *testing.T) {
	md, err := Encode(key, nil, DefaultChunkSize)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{key: "[]"}, md)

	decoded, malformed := Decode(key, md)
	assert.Empty(t, malformed)
	assert.Empty(t, decoded)

	_, err = Encode("", nil, DefaultChunkSize)
	assert.True(t, ierr.IsValidation(err))
}

func TestDecode_CoercesStringNumbers(t *testing.T) {
	md := map[string]string{
		key: `[{"c":"ann arbor","z":"48104","b":"1","s":"4","ss":"1777593600","se":1790812800},{"c":"saline","z":"48176","b":2,"s":-1,"ss":"-1","se":""}]`,
	}

	decoded, malformed := Decode(key, md)
	assert.Empty(t, malformed)
	require.Len(t, decoded, 2)

	assert.Equal(t, Rule{City: "ann arbor", Zip: "48104", BaseDay: 1, SecondaryDay: 4, SeasonStart: 1777593600, SeasonEnd: 1790812800}, decoded[0])
	assert.True(t, decoded[0].OptedIn())
	assert.Equal(t, Rule{City: "saline", Zip: "48176", BaseDay: 2, SecondaryDay: Absent, SeasonStart: Absent, SeasonEnd: Absent}, decoded[1])
	assert.False(t, decoded[1].OptedIn())
}

func TestDecode_MissingOptionalFieldsAreAbsent(t *testing.T) {
	decoded, malformed := Decode(key, map[string]string{key: `[{"c":"x","z":"1","b":3}]`})
	assert.Empty(t, malformed)
	require.Len(t, decoded, 1)
	assert.Equal(t, Absent, decoded[0].SecondaryDay)
	assert.Equal(t, int64(Absent), decoded[0].SeasonStart)
}

func TestDecode_SkipsMalformedChunks(t *testing.T) {
	md, err := Encode(key, sampleRules(50), DefaultChunkSize)
	require.NoError(t, err)
	require.Contains(t, md, key+"_1")

	good, _ := Decode(key, map[string]string{key + "_1": md[key+"_1"]})
	md[key+"_1"] = `[{"c":"broken"`
	md["unrelated"] = "value"

	decoded, malformed := Decode(key, md)
	require.Len(t, malformed, 1)
	assert.True(t, ierr.Is(malformed[0], ierr.ErrMalformedChunk))
	assert.Len(t, decoded, 50-len(good))
}

func TestChunkKeys_Order(t *testing.T) {
	md := map[string]string{
		key + "_10": "[]",
		key + "_2":  "[]",
		key:         "[]",
		key + "_1":  "[]",
		key + "_x":  "[]",
		key + "_0":  "[]",
		"other":     "[]",
	}
	assert.Equal(t, []string{key, key + "_1", key + "_2", key + "_10"}, ChunkKeys(key, md))
}

func TestEncode_LongCityIsShortened(t *testing.T) {
	long := Rule{
		City:         strings.Repeat("Ÿpsilanti ", 80),
		Zip:          "48197",
		BaseDay:      2,
		SecondaryDay: Absent,
		SeasonStart:  1777593600,
		SeasonEnd:    1790812800,
	}
	rules := []Rule{sampleRules(1)[0], long}

	md, err := Encode(key, rules, DefaultChunkSize)
	require.NoError(t, err)
	for k, v := range md {
		assert.LessOrEqual(t, len(v), DefaultChunkSize, "chunk %s", k)
	}

	decoded, malformed := Decode(key, md)
	require.Empty(t, malformed)
	require.Len(t, decoded, 2)
	assert.Equal(t, rules[0], decoded[0])

	got := decoded[1]
	assert.True(t, utf8.ValidString(got.City))
	assert.True(t, strings.HasPrefix(long.City, got.City))
	assert.Less(t, len(got.City), len(long.City))
	assert.Equal(t, long.Zip, got.Zip)
	assert.Equal(t, long.SeasonStart, got.SeasonStart)
	assert.Equal(t, long.SeasonEnd, got.SeasonEnd)
}

func TestEncode_RuleThatCannotFit(t *testing.T) {
	_, err := Encode(key, sampleRules(1), 20)
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestFromResolved(t *testing.T) {
	season := &schedule.Window{
		Start: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	resolved := &servicearea.ResolvedRule{
		BaseDay:      time.Monday,
		SecondaryDay: lo.ToPtr(time.Thursday),
		Season:       season,
		Strategy:     servicearea.StrategyCity,
		City:         "ann arbor",
		Zip:          "48104",
	}

	optedIn := FromResolved(resolved, true)
	assert.Equal(t, 1, optedIn.BaseDay)
	assert.Equal(t, 4, optedIn.SecondaryDay)
	w, ok := optedIn.Window()
	require.True(t, ok)
	assert.Equal(t, *season, w)

	declined := FromResolved(resolved, false)
	assert.False(t, declined.OptedIn())
	assert.Equal(t, int64(Absent), declined.SeasonEnd)
	_, ok = declined.Window()
	assert.False(t, ok)
}
