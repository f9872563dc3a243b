// fields.go
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
	"fmt"
	"strings"
)

// FieldType is the kind of input a form field renders
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldSelect   FieldType = "select"
	FieldFile     FieldType = "file"
)

// Valid reports whether t is one of the known field types
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldEmail, FieldPhone, FieldSelect, FieldFile:
		return true
	}
	return false
}

// FieldOption is one choice of a select field
type FieldOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FormField is one field definition of a form
type FormField struct {
	ID          string        `json:"id"`
	Type        FieldType     `json:"type"`
	Label       string        `json:"label"`
	Required    bool          `json:"required"`
	Placeholder string        `json:"placeholder,omitempty"`
	HelpText    string        `json:"helpText,omitempty"`
	MaxLength   int           `json:"maxLength,omitempty"`
	Rows        int           `json:"rows,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
	Multiple    bool          `json:"multiple,omitempty"`
	Accept      string        `json:"accept,omitempty"`
	MaxSizeMB   int           `json:"maxSizeMB,omitempty"`
}

// hasOption reports whether value is one of the field's option values
func (f FormField) hasOption(value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// ValidateFields checks a form definition: known types, non-empty unique ids,
// labels present and select fields carrying at least one option.
func ValidateFields(fields []FormField) error {
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.ID) == "" {
			return fmt.Errorf("field %d: id is required", i)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("field %q: duplicate id", f.ID)
		}
		seen[f.ID] = struct{}{}

		if !f.Type.Valid() {
			return fmt.Errorf("field %q: unknown type %q", f.ID, f.Type)
		}
		if strings.TrimSpace(f.Label) == "" {
			return fmt.Errorf("field %q: label is required", f.ID)
		}
		if f.Type == FieldSelect && len(f.Options) == 0 {
			return fmt.Errorf("field %q: select requires options", f.ID)
		}
	}
	return nil
}
