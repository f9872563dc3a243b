// controller.go
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

// Package board holds the pipeline board's drag-and-drop state: which card
// is being dragged, the optimistic placement of cards, and the rollback
// when the stage write behind a drop fails.
package board

import (
	"context"
	"errors"
	"sync"

	"github.com/localnerve/enrol-pipeline/internal/logger"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"go.uber.org/zap"
)

var (
	ErrDragActive        = errors.New("a drag is already in progress")
	ErrUnknownSubmission = errors.New("submission is not on this board")
)

// Phase is the state of the drag gesture
type Phase int

const (
	Idle Phase = iota
	Dragging
	Committing
)

func (p Phase) String() string {
	switch p {
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	}
	return "idle"
}

// Outcome is how a drop settled
type Outcome int

const (
	// Ignored means nothing changed: no active drag, no target, or the
	// card was dropped on its own column
	Ignored Outcome = iota
	Committed
	RolledBack
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	}
	return "ignored"
}

// Transitioner performs the durable stage move
type Transitioner interface {
	Transition(ctx context.Context, submissionID, targetStageID string, actor *services.Actor) (*services.TransitionResult, error)
}

// Loader re-reads the board's submissions from the server
type Loader func(ctx context.Context) ([]models.Submission, error)

// Column is one stage and the cards currently shown in it
type Column struct {
	Stage       models.PipelineStage `json:"stage"`
	Submissions []models.Submission  `json:"submissions"`
}

// Controller owns the board state. Every mutation goes through its methods.
type Controller struct {
	mu          sync.Mutex
	stages      []models.PipelineStage
	submissions []models.Submission
	activeID    string
	inflight    int
	version     uint64

	engine Transitioner
	load   Loader
	actor  *services.Actor
	log    *zap.Logger
}

// New creates a controller over stages (ordered by position) and submissions
func New(stages []models.PipelineStage, submissions []models.Submission, engine Transitioner, load Loader, actor *services.Actor, log *zap.Logger) *Controller {
	return &Controller{
		stages:      append([]models.PipelineStage(nil), stages...),
		submissions: append([]models.Submission(nil), submissions...),
		engine:      engine,
		load:        load,
		actor:       actor,
		log:         logger.OrNop(log),
	}
}

// Phase reports the current gesture state
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.activeID != "":
		return Dragging
	case c.inflight > 0:
		return Committing
	}
	return Idle
}

// ActiveID returns the id of the card being dragged, or ""
func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// DragStart records the card being moved
func (c *Controller) DragStart(submissionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeID != "" {
		return ErrDragActive
	}
	if c.indexOf(submissionID) < 0 {
		return ErrUnknownSubmission
	}
	c.activeID = submissionID
	return nil
}

// DragCancel ends the gesture without a change
func (c *Controller) DragCancel() {
	c.mu.Lock()
	c.activeID = ""
	c.mu.Unlock()
}

// Drop ends the gesture over the column of overStageID. The card moves
// immediately; when the durable write fails the board is restored and the
// error returned.
func (c *Controller) Drop(ctx context.Context, overStageID string) (Outcome, error) {
	c.mu.Lock()
	id := c.activeID
	c.activeID = ""

	idx := c.indexOf(id)
	if id == "" || overStageID == "" || idx < 0 || !c.hasStage(overStageID) || c.submissions[idx].StageID == overStageID {
		c.mu.Unlock()
		return Ignored, nil
	}

	snapshot := append([]models.Submission(nil), c.submissions...)
	previousStage := c.submissions[idx].StageID
	c.submissions[idx].StageID = overStageID
	c.version++
	ours := c.version
	c.inflight++
	c.mu.Unlock()

	res, err := c.engine.Transition(ctx, id, overStageID, c.actor)

	c.mu.Lock()
	c.inflight--
	if err != nil {
		if c.version == ours {
			c.submissions = snapshot
		} else if i := c.indexOf(id); i >= 0 {
			// other moves landed meanwhile; keep them and restore only this card
			c.submissions[i].StageID = previousStage
		}
		c.version++
		c.mu.Unlock()

		c.log.Warn("drop rolled back",
			zap.String("submission_id", id),
			zap.String("to_stage_id", overStageID),
			zap.Error(err),
		)
		return RolledBack, err
	}

	if i := c.indexOf(id); i >= 0 {
		c.submissions[i] = res.Submission
	}
	c.mu.Unlock()

	if c.load != nil {
		if err := c.Refresh(ctx); err != nil {
			c.log.Warn("board refresh after drop failed", zap.Error(err))
		}
	}
	return Committed, nil
}

// DropAt ends the gesture over the drop zone nearest to the dragged card
func (c *Controller) DropAt(ctx context.Context, active Rect, zones []DropZone) (Outcome, error) {
	over, _ := ClosestCorners(active, zones)
	return c.Drop(ctx, over)
}

// Refresh replaces the submission list with the server's
func (c *Controller) Refresh(ctx context.Context) error {
	if c.load == nil {
		return nil
	}
	submissions, err := c.load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.submissions = append([]models.Submission(nil), submissions...)
	c.version++
	c.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the submission list as currently shown
func (c *Controller) Snapshot() []models.Submission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Submission(nil), c.submissions...)
}

// Columns groups the shown submissions by stage, in stage order. Cards keep
// their list order within a column.
func (c *Controller) Columns() []Column {
	c.mu.Lock()
	defer c.mu.Unlock()

	columns := make([]Column, len(c.stages))
	at := make(map[string]int, len(c.stages))
	for i, s := range c.stages {
		columns[i] = Column{Stage: s, Submissions: []models.Submission{}}
		at[s.ID] = i
	}
	for _, sub := range c.submissions {
		if i, ok := at[sub.StageID]; ok {
			columns[i].Submissions = append(columns[i].Submissions, sub)
		}
	}
	return columns
}

// StageOf returns the stage a card is currently shown in
func (c *Controller) StageOf(submissionID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(submissionID); i >= 0 {
		return c.submissions[i].StageID, true
	}
	return "", false
}

func (c *Controller) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range c.submissions {
		if c.submissions[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) hasStage(id string) bool {
	for _, s := range c.stages {
		if s.ID == id {
			return true
		}
	}
	return false
}
