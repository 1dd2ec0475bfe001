package event

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearListener/internal/model"
)

func TestParseNFTMint(t *testing.T) {
	line := `EVENT_JSON:{"standard":"nep171","version":"1.0.0","event":"nft_mint","data":{"token_ids":["1","2"]}}`

	ev, err := Parse(line)
	require.NoError(t, err)

	assert.Equal(t, "nep171", ev.Standard)
	assert.Equal(t, "1.0.0", ev.Version)
	assert.Equal(t, "nft_mint", ev.Event)
	assert.JSONEq(t, `{"token_ids":["1","2"]}`, string(ev.Data))
}

func TestParseInvalidFormat(t *testing.T) {
	_, err := Parse("Invalid log format")
	require.ErrorIs(t, err, ErrInvalidEventFormat)
	assert.NotErrorIs(t, err, ErrEventParse)
	assert.Equal(t, ReasonInvalidFormat, Reason(err))
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse(`EVENT_JSON:{"standard":"nep171","version":1.0.0,invalid_json}`)
	require.ErrorIs(t, err, ErrEventParse)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)

	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(parseErr, &syntaxErr), "diagnostic should come from the json decoder, got %v", parseErr.Err)
	assert.Equal(t, ReasonParseError, Reason(err))
}

func TestParseDataShapes(t *testing.T) {
	cases := map[string]string{
		"array":  `[{"greeting":"hi"},{"greeting":"hello"}]`,
		"string": `"plain"`,
		"number": `42`,
		"null":   `null`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			ev, err := Parse(`EVENT_JSON:{"standard":"s","version":"1","event":"e","data":` + data + `}`)
			require.NoError(t, err)
			assert.JSONEq(t, data, string(ev.Data))
		})
	}
}

func TestParseRejectsIncompletePayloads(t *testing.T) {
	lines := map[string]string{
		"missing data":     `EVENT_JSON:{"standard":"s","version":"1","event":"e"}`,
		"missing standard": `EVENT_JSON:{"version":"1","event":"e","data":{}}`,
		"numeric version":  `EVENT_JSON:{"standard":"s","version":1,"event":"e","data":{}}`,
		"null event":       `EVENT_JSON:{"standard":"s","version":"1","event":null,"data":{}}`,
		"array payload":    `EVENT_JSON:[1,2,3]`,
		"empty payload":    `EVENT_JSON:`,
		"null payload":     `EVENT_JSON:null`,
		"trailing garbage": `EVENT_JSON:{"standard":"s","version":"1","event":"e","data":{}} x`,
	}
	for name, line := range lines {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(line)
			require.ErrorIs(t, err, ErrEventParse)
		})
	}
}

func TestParseRequiresExactPrefix(t *testing.T) {
	payload := `{"standard":"s","version":"1","event":"e","data":{}}`
	for _, line := range []string{
		" EVENT_JSON:" + payload,
		"event_json:" + payload,
		"EVENT_JSON " + payload,
		payload,
		"",
	} {
		_, err := Parse(line)
		assert.ErrorIs(t, err, ErrInvalidEventFormat, "line %q", line)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	line := `EVENT_JSON:{"standard":"nep141","version":"1.0.0","event":"ft_transfer","data":[{"old_owner_id":"a.near","new_owner_id":"b.near","amount":"10"}]}`

	first, err := Parse(line)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := Parse(line)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.IsType(t, model.EventLog{}, first)
}
