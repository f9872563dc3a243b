// flex_list.go
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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexList decodes either a JSON array or a lone element as a list.
// Multi-select widgets send both shapes.
type FlexList[T any] []T

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexList[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = nil
	case data[0] == '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("FlexList: %w", err)
		}
		*f = items
	default:
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return fmt.Errorf("FlexList: %w", err)
		}
		*f = FlexList[T]{item}
	}
	return nil
}

// Options renders every element of list as a trimmed option value, dropping
// blanks
func Options[T any](list FlexList[T], render func(T) string) []string {
	opts := make([]string, 0, len(list))
	for _, item := range list {
		if v := strings.TrimSpace(render(item)); v != "" {
			opts = append(opts, v)
		}
	}
	return opts
}
