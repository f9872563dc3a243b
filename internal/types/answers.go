// answers.go
//
// Applicant pipeline and activity service for training-provider application forms
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of enrol-pipeline.
// enrol-pipeline is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// enrol-pipeline is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with enrol-pipeline.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package types

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValueKind tags the variant held by a FieldValue
type ValueKind string

const (
	KindText   ValueKind = "text"
	KindNumber ValueKind = "number"
	KindOption ValueKind = "option"
)

// FieldValue is one answer: free text, a number kept as text, or selected options
type FieldValue struct {
	Kind    ValueKind `json:"kind"`
	Text    string    `json:"text,omitempty"`
	Options []string  `json:"options,omitempty"`
}

// TextValue builds a text answer
func TextValue(s string) FieldValue {
	return FieldValue{Kind: KindText, Text: s}
}

// OptionValue builds a selected-option answer
func OptionValue(values ...string) FieldValue {
	return FieldValue{Kind: KindOption, Options: values}
}

// UnmarshalJSON accepts the tagged object form as stored, or the raw values a
// public form posts: strings, numbers and arrays of strings.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		*v = FieldValue{Kind: KindText}
		return nil
	}

	switch data[0] {
	case '{':
		type tagged FieldValue
		var t tagged
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if t.Kind == "" {
			t.Kind = KindText
		}
		*v = FieldValue(t)
		return nil
	case '[':
		var list FlexList[FlexText]
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("FieldValue: %w", err)
		}
		*v = FieldValue{Kind: KindOption, Options: Options(list, FlexText.String)}
		return nil
	}

	var text FlexText
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("FieldValue: %w", err)
	}
	kind := KindText
	if data[0] == '-' || (data[0] >= '0' && data[0] <= '9') {
		kind = KindNumber
	}
	*v = FieldValue{Kind: kind, Text: text.String()}
	return nil
}

// IsBlank reports whether the answer carries no content
func (v FieldValue) IsBlank() bool {
	if v.Kind == KindOption {
		for _, o := range v.Options {
			if strings.TrimSpace(o) != "" {
				return false
			}
		}
		return true
	}
	return strings.TrimSpace(v.Text) == ""
}

// Display renders the answer for humans
func (v FieldValue) Display() string {
	if v.Kind == KindOption {
		return strings.Join(v.Options, ", ")
	}
	return v.Text
}

// Answers maps a field id to its answer
type Answers map[string]FieldValue

// Text returns the display text of the answer for id, or ""
func (a Answers) Text(id string) string {
	if v, ok := a[id]; ok {
		return strings.TrimSpace(v.Display())
	}
	return ""
}

// FieldErrors maps a field id to a validation message
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return "invalid answers: " + strings.Join(parts, "; ")
}

// ValidateAnswers checks answers against a form's fields and returns them
// normalized: select answers become option values, unknown ids are rejected.
func ValidateAnswers(fields []FormField, answers Answers) (Answers, error) {
	errs := FieldErrors{}
	known := make(map[string]struct{}, len(fields))
	out := make(Answers, len(answers))

	for _, f := range fields {
		known[f.ID] = struct{}{}
		v, ok := answers[f.ID]
		if !ok || v.IsBlank() {
			if f.Required {
				errs[f.ID] = f.Label + " is required"
			}
			continue
		}

		switch f.Type {
		case FieldSelect:
			if v.Kind != KindOption {
				v = OptionValue(v.Text)
			}
			if len(v.Options) > 1 && !f.Multiple {
				errs[f.ID] = "only one option may be selected"
				continue
			}
			for _, o := range v.Options {
				if !f.hasOption(o) {
					errs[f.ID] = fmt.Sprintf("%q is not a valid option", o)
					break
				}
			}
		case FieldEmail:
			if v.Kind == KindOption || !validEmail(v.Text) {
				errs[f.ID] = "must be a valid email address"
			}
		case FieldPhone:
			if v.Kind == KindOption || !validPhone(v.Text) {
				errs[f.ID] = "must be a valid phone number"
			}
		default:
			if v.Kind == KindOption {
				v = TextValue(v.Display())
			}
			if f.MaxLength > 0 && utf8.RuneCountInString(v.Text) > f.MaxLength {
				errs[f.ID] = fmt.Sprintf("must be at most %d characters", f.MaxLength)
			}
		}
		out[f.ID] = v
	}

	for id := range answers {
		if _, ok := known[id]; !ok {
			errs[id] = "unknown field"
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func validPhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == '-' || r == '(' || r == ')' || r == '.' || unicode.IsSpace(r):
		default:
			return false
		}
	}
	return digits >= 6
}
