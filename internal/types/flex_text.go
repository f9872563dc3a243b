// flex_text.go
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
	"strconv"
)

// FlexText is a string that can be unmarshaled from either a JSON string or a JSON number.
// Numbers keep their literal text so "007" style answers survive when sent as strings.
type FlexText string

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexText) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}

	// Try unmarshaling as a string first
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexText(s)
		return nil
	}

	// Then as a number, keeping its literal form
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexText(n.String())
		return nil
	}

	// Booleans are accepted from checkbox-like widgets
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = FlexText(strconv.FormatBool(b))
		return nil
	}

	return fmt.Errorf("FlexText: unexpected type, expected string or number")
}

// String converts FlexText back to string.
func (f FlexText) String() string {
	return string(f)
}
