// metrics.go
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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's domain counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	transitions        *prometheus.CounterVec
	advisoryFailures   *prometheus.CounterVec
	enrollmentEvents   prometheus.Counter
	notifications      *prometheus.CounterVec
	submissionsCreated prometheus.Counter
}

// New creates the counters and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enrol",
			Name:      "stage_transitions_total",
			Help:      "Stage transitions by outcome (applied, noop, rejected, failed).",
		}, []string{"outcome"}),
		advisoryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enrol",
			Name:      "advisory_write_failures_total",
			Help:      "Best-effort audit writes that failed, by kind.",
		}, []string{"kind"}),
		enrollmentEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "enrol",
			Name:      "enrollment_events_total",
			Help:      "Transitions that landed on an enrollment-triggering stage.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enrol",
			Name:      "notifications_total",
			Help:      "Submission notification emails by result.",
		}, []string{"result"}),
		submissionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "enrol",
			Name:      "submissions_created_total",
			Help:      "Public form submissions accepted.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.transitions,
			m.advisoryFailures,
			m.enrollmentEvents,
			m.notifications,
			m.submissionsCreated,
		)
	}
	return m
}

func (m *Metrics) Transition(outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AdvisoryFailure(kind string) {
	if m == nil {
		return
	}
	m.advisoryFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) EnrollmentEvent() {
	if m == nil {
		return
	}
	m.enrollmentEvents.Inc()
}

func (m *Metrics) Notification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

func (m *Metrics) SubmissionCreated() {
	if m == nil {
		return
	}
	m.submissionsCreated.Inc()
}
