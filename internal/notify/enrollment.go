// enrollment.go
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

package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"go.uber.org/zap"
)

// EnrollmentEvent is emitted when a submission lands on a stage that
// triggers enrollment in the paired learning system
type EnrollmentEvent struct {
	Submission models.Submission    `json:"submission"`
	Stage      models.PipelineStage `json:"stage"`
	ActorID    string               `json:"actor_id,omitempty"`
	At         time.Time            `json:"at"`
}

// EnrollmentPublisher is a subscriber to enrollment events
type EnrollmentPublisher interface {
	PublishEnrollment(ctx context.Context, event EnrollmentEvent) error
}

// Publishers fans one event out to every subscriber and joins their errors
type Publishers []EnrollmentPublisher

func (p Publishers) PublishEnrollment(ctx context.Context, event EnrollmentEvent) error {
	var errs []error
	for _, pub := range p {
		if err := pub.PublishEnrollment(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const (
	SignatureHeader = "X-Enrol-Signature"
	DeliveryHeader  = "X-Enrol-Delivery"
	EventHeader     = "X-Enrol-Event"
)

// WebhookPublisher POSTs enrollment events as signed JSON
type WebhookPublisher struct {
	URL    string
	Secret string
	Client *http.Client
	Log    *zap.Logger
}

// NewWebhookPublisher returns nil when url is empty
func NewWebhookPublisher(url, secret string, log *zap.Logger) *WebhookPublisher {
	if url == "" {
		return nil
	}
	return &WebhookPublisher{
		URL:    url,
		Secret: secret,
		Client: &http.Client{Timeout: 10 * time.Second},
		Log:    log,
	}
}

// Sign returns the hex HMAC-SHA256 of payload under secret
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (w *WebhookPublisher) PublishEnrollment(ctx context.Context, event EnrollmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode enrollment event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build enrollment request: %w", err)
	}

	delivery := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, "enrollment")
	req.Header.Set(DeliveryHeader, delivery)
	if w.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(w.Secret, payload))
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("enrollment delivery %s failed: %w", delivery, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("enrollment delivery %s: unexpected status %d", delivery, resp.StatusCode)
	}

	if w.Log != nil {
		w.Log.Info("enrollment event delivered",
			zap.String("delivery", delivery),
			zap.String("submission_id", event.Submission.ID),
			zap.String("stage_id", event.Stage.ID),
		)
	}
	return nil
}
