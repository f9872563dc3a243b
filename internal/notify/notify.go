// notify.go
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

// Package notify delivers the outbound side effects of the pipeline: the
// new-application email to the workspace owner and the enrollment event to
// the paired learning system.
package notify

import (
	"context"
	"sort"

	"github.com/localnerve/enrol-pipeline/internal/types"
)

// FieldLine is one label/value row of a notification
type FieldLine struct {
	Label string
	Value string
}

// SubmissionNotice is the payload of a new-application notification
type SubmissionNotice struct {
	To             string
	ApplicantName  string
	ApplicantEmail string
	FormTitle      string
	Fields         []FieldLine
	ViewURL        string
}

// Subject renders the email subject line
func (n SubmissionNotice) Subject() string {
	who := n.ApplicantName
	if who == "" {
		who = n.ApplicantEmail
	}
	if who == "" {
		who = "Someone"
	}
	return "New Application: " + who + " applied to " + n.FormTitle
}

// Notifier delivers a submission notice
type Notifier interface {
	NotifySubmission(ctx context.Context, notice SubmissionNotice) error
}

// NopNotifier drops every notice
type NopNotifier struct{}

func (NopNotifier) NotifySubmission(context.Context, SubmissionNotice) error { return nil }

// FieldLines pairs answers with their field labels in form order. Fields
// without an answer are skipped. With no field definitions the raw keys are
// used, sorted.
func FieldLines(fields []types.FormField, answers types.Answers) []FieldLine {
	lines := make([]FieldLine, 0, len(answers))

	if len(fields) == 0 {
		keys := make([]string, 0, len(answers))
		for k := range answers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, FieldLine{Label: k, Value: orDash(answers.Text(k))})
		}
		return lines
	}

	for _, f := range fields {
		if _, ok := answers[f.ID]; !ok {
			continue
		}
		lines = append(lines, FieldLine{Label: f.Label, Value: orDash(answers.Text(f.ID))})
	}
	return lines
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
