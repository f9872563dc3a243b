package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFields = []FormField{
	{ID: "name", Type: FieldText, Label: "Full Name", Required: true, MaxLength: 20},
	{ID: "email", Type: FieldEmail, Label: "Email Address", Required: true},
	{ID: "phone", Type: FieldPhone, Label: "Phone"},
	{ID: "course", Type: FieldSelect, Label: "Course", Options: []FieldOption{
		{Label: "Breathwork", Value: "breath"},
		{Label: "Facilitation", Value: "facil"},
	}},
	{ID: "days", Type: FieldSelect, Label: "Days", Multiple: true, Options: []FieldOption{
		{Label: "Mon", Value: "mon"},
		{Label: "Tue", Value: "tue"},
	}},
}

func TestFieldValueUnmarshalRaw(t *testing.T) {
	var a Answers
	raw := `{"name":"Ada","age":42,"days":["mon","tue"],"one":"x","tagged":{"kind":"option","options":["a"]},"nil":null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &a))

	assert.Equal(t, TextValue("Ada"), a["name"])
	assert.Equal(t, FieldValue{Kind: KindNumber, Text: "42"}, a["age"])
	assert.Equal(t, OptionValue("mon", "tue"), a["days"])
	assert.Equal(t, OptionValue("a"), a["tagged"])
	assert.True(t, a["nil"].IsBlank())
}

func TestFieldValueRoundTripKeepsKind(t *testing.T) {
	in := Answers{"age": {Kind: KindNumber, Text: "7"}}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out Answers
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestValidateAnswersNormalizes(t *testing.T) {
	in := Answers{
		"name":   TextValue("Ada"),
		"email":  TextValue("ada@example.com"),
		"phone":  TextValue("+61 (0)400 123 456"),
		"course": TextValue("breath"),
		"days":   OptionValue("mon", "tue"),
	}

	out, err := ValidateAnswers(testFields, in)
	require.NoError(t, err)
	assert.Equal(t, OptionValue("breath"), out["course"])
	assert.Equal(t, "mon, tue", out.Text("days"))
}

func TestValidateAnswersErrors(t *testing.T) {
	in := Answers{
		"name":   TextValue("   "),
		"email":  TextValue("not-an-email"),
		"phone":  TextValue("call me"),
		"course": OptionValue("breath", "facil"),
		"days":   OptionValue("sun"),
		"bogus":  TextValue("x"),
	}

	_, err := ValidateAnswers(testFields, in)
	require.Error(t, err)

	fe, ok := err.(FieldErrors)
	require.True(t, ok)
	assert.Equal(t, "Full Name is required", fe["name"])
	assert.Equal(t, "must be a valid email address", fe["email"])
	assert.Equal(t, "must be a valid phone number", fe["phone"])
	assert.Equal(t, "only one option may be selected", fe["course"])
	assert.Contains(t, fe["days"], "not a valid option")
	assert.Equal(t, "unknown field", fe["bogus"])
}

func TestValidateAnswersMaxLength(t *testing.T) {
	in := Answers{
		"name":  TextValue("a name that is far too long"),
		"email": TextValue("ada@example.com"),
	}
	_, err := ValidateAnswers(testFields, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 20 characters")
}

func TestValidateFields(t *testing.T) {
	assert.NoError(t, ValidateFields(testFields))

	assert.Error(t, ValidateFields([]FormField{{ID: "a", Type: "slider", Label: "A"}}))
	assert.Error(t, ValidateFields([]FormField{{ID: "a", Type: FieldText, Label: "A"}, {ID: "a", Type: FieldText, Label: "B"}}))
	assert.Error(t, ValidateFields([]FormField{{ID: "s", Type: FieldSelect, Label: "S"}}))
	assert.Error(t, ValidateFields([]FormField{{ID: " ", Type: FieldText, Label: "A"}}))
}

func TestFlexText(t *testing.T) {
	var f FlexText
	require.NoError(t, json.Unmarshal([]byte(`12.50`), &f))
	assert.Equal(t, "12.50", f.String())
	require.NoError(t, json.Unmarshal([]byte(`true`), &f))
	assert.Equal(t, "true", f.String())
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &f))
}

func TestFlexListOptions(t *testing.T) {
	var list FlexList[FlexText]
	require.NoError(t, json.Unmarshal([]byte(`[" mon ", "", 3]`), &list))
	assert.Equal(t, []string{"mon", "3"}, Options(list, FlexText.String))

	require.NoError(t, json.Unmarshal([]byte(`"solo"`), &list))
	assert.Equal(t, []string{"solo"}, Options(list, FlexText.String))

	require.NoError(t, json.Unmarshal([]byte(`null`), &list))
	assert.Empty(t, list)

	assert.Error(t, json.Unmarshal([]byte(`[{"a":1}]`), &list))
}

func TestForbidden(t *testing.T) {
	err := Forbidden("authorization.user", "cookie %q missing", "s")
	assert.Equal(t, 403, err.Code)
	assert.Equal(t, `cookie "s" missing`, err.Message)
	assert.Equal(t, `403: cookie "s" missing [type: authorization.user]`, err.Error())
}
