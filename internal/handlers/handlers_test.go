package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/enrol-pipeline/internal/handlers"
	"github.com/localnerve/enrol-pipeline/internal/middleware"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"github.com/localnerve/enrol-pipeline/internal/testutil"
	"github.com/localnerve/enrol-pipeline/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSession treats the cookie value as the user id
func fakeSession(c *fiber.Ctx, cookie string, roles []string) (*services.Actor, error) {
	if cookie == "expired" {
		return nil, errors.New("session expired")
	}
	return &services.Actor{ID: cookie, Email: cookie + "@example.com"}, nil
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db := testutil.NewTestDB(t)
	h := handlers.New(handlers.Deps{DB: db, Log: zap.NewNop()})
	t.Cleanup(h.Drain)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())
	h.Register(api, middleware.AuthUser(fakeSession))
	app.Use(middleware.NotFound)
	return app
}

// call performs a request as user (empty for anonymous) and decodes the
// response into out when given
func call(t *testing.T, app *fiber.App, method, path, user string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: user})
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err, "%s %s", method, path)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out), "%s %s", method, path)
	}
	return resp.StatusCode
}

// publishedForm creates and publishes a form as user
func publishedForm(t *testing.T, app *fiber.App, user, title string) (models.Form, []models.PipelineStage) {
	t.Helper()

	var form models.Form
	require.Equal(t, 201, call(t, app, "POST", "/api/forms", user, handlers.CreateFormInput{Title: title}, &form))
	require.Equal(t, 200, call(t, app, "POST", "/api/forms/"+form.ID+"/publish", user, nil, &form))

	var stages []models.PipelineStage
	require.Equal(t, 200, call(t, app, "GET", "/api/forms/"+form.ID+"/stages", user, nil, &stages))
	return form, stages
}

func submit(t *testing.T, app *fiber.App, formID, name, email string) models.Submission {
	t.Helper()

	var res handlers.SubmitResponse
	status := call(t, app, "POST", "/api/submissions", "", map[string]any{
		"form_id": formID,
		"data":    map[string]any{"full_name": name, "email": email},
	}, &res)
	require.Equal(t, 201, status)
	require.True(t, res.Success)
	return res.Submission
}

func TestAuthRequired(t *testing.T) {
	app := setupApp(t)

	var body utils.ErrorResponseStruct
	assert.Equal(t, 403, call(t, app, "GET", "/api/forms", "", nil, &body))
	assert.Equal(t, "authorization.user", body.Type)
	assert.Contains(t, body.Message, "cookie_session")

	body = utils.ErrorResponseStruct{}
	assert.Equal(t, 403, call(t, app, "GET", "/api/forms", "expired", nil, &body))
	assert.Contains(t, body.Message, "session expired")

	assert.Equal(t, 404, call(t, app, "GET", "/api/nothing-here", "owner", nil, nil))
}

func TestWorkspaceIsCreatedOnce(t *testing.T) {
	app := setupApp(t)

	var first, second models.Workspace
	require.Equal(t, 200, call(t, app, "GET", "/api/workspace", "ada", nil, &first))
	require.Equal(t, 200, call(t, app, "GET", "/api/workspace", "ada", nil, &second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "ada's Workspace", first.Name)
}

func TestFormLifecycle(t *testing.T) {
	app := setupApp(t)

	var form models.Form
	require.Equal(t, 201, call(t, app, "POST", "/api/forms", "owner", handlers.CreateFormInput{Title: "Data Bootcamp"}, &form))
	assert.False(t, form.Published)

	var errBody utils.ErrorResponseStruct
	assert.Equal(t, 400, call(t, app, "POST", "/api/forms", "owner", handlers.CreateFormInput{}, &errBody))
	assert.Equal(t, "validation", errBody.Type)

	var stages []models.PipelineStage
	require.Equal(t, 200, call(t, app, "GET", "/api/forms/"+form.ID+"/stages", "owner", nil, &stages))
	require.Len(t, stages, 4)
	assert.Equal(t, "New", stages[0].Name)
	assert.True(t, stages[3].TriggersEnrollment)

	assert.Equal(t, 404, call(t, app, "GET", "/api/public/forms/"+form.Slug, "", nil, nil))

	require.Equal(t, 200, call(t, app, "POST", "/api/forms/"+form.ID+"/publish", "owner", nil, &form))
	assert.True(t, form.Published)

	var public handlers.PublicForm
	require.Equal(t, 200, call(t, app, "GET", "/api/public/forms/"+form.Slug, "", nil, &public))
	assert.Equal(t, "Data Bootcamp", public.Title)
	assert.Len(t, public.Fields, 2)

	unpublish := false
	require.Equal(t, 200, call(t, app, "POST", "/api/forms/"+form.ID+"/publish", "owner", handlers.PublishFormInput{Published: &unpublish}, &form))
	assert.False(t, form.Published)

	// another owner sees nothing of it
	assert.Equal(t, 404, call(t, app, "GET", "/api/forms/"+form.ID, "intruder", nil, nil))
	var forms []models.Form
	require.Equal(t, 200, call(t, app, "GET", "/api/forms", "intruder", nil, &forms))
	assert.Empty(t, forms)
}

func TestPublicSubmission(t *testing.T) {
	app := setupApp(t)
	form, stages := publishedForm(t, app, "owner", "Data Bootcamp")

	sub := submit(t, app, form.ID, "Grace Hopper", "grace@example.com")
	assert.Equal(t, stages[0].ID, sub.StageID)
	assert.Equal(t, "Grace Hopper", sub.Name)

	var errBody utils.ErrorResponseStruct
	assert.Equal(t, 400, call(t, app, "POST", "/api/submissions", "", map[string]any{"form_id": form.ID}, &errBody))
	assert.Equal(t, "Missing required fields", errBody.Message)

	errBody = utils.ErrorResponseStruct{}
	assert.Equal(t, 400, call(t, app, "POST", "/api/submissions", "", map[string]any{
		"form_id": form.ID,
		"data":    map[string]any{"full_name": "Grace", "email": "nope"},
	}, &errBody))
	assert.Equal(t, "must be a valid email address", errBody.Fields["email"])

	assert.Equal(t, 404, call(t, app, "POST", "/api/submissions", "", map[string]any{
		"form_id": "missing",
		"data":    map[string]any{"full_name": "Grace"},
	}, nil))
}

func TestPipelineFlow(t *testing.T) {
	app := setupApp(t)
	form, stages := publishedForm(t, app, "owner", "Data Bootcamp")
	sub := submit(t, app, form.ID, "Grace Hopper", "grace@example.com")

	var boardRes handlers.BoardResponse
	require.Equal(t, 200, call(t, app, "GET", "/api/pipeline", "owner", nil, &boardRes))
	require.NotNil(t, boardRes.Form)
	assert.Equal(t, form.ID, boardRes.Form.ID)
	require.Len(t, boardRes.Columns, 4)
	require.Len(t, boardRes.Columns[0].Submissions, 1)

	var res services.TransitionResult
	require.Equal(t, 200, call(t, app, "POST", "/api/submissions/"+sub.ID+"/transition", "owner",
		handlers.TransitionInput{StageID: stages[1].ID}, &res))
	assert.True(t, res.Changed)
	assert.Equal(t, "Reviewing", res.To.Name)

	// same stage again changes nothing
	require.Equal(t, 200, call(t, app, "POST", "/api/submissions/"+sub.ID+"/transition", "owner",
		handlers.TransitionInput{StageID: stages[1].ID}, &res))
	assert.False(t, res.Changed)

	var drop handlers.DropResponse
	require.Equal(t, 200, call(t, app, "POST", "/api/pipeline/drop", "owner",
		handlers.DropInput{SubmissionID: sub.ID, StageID: stages[3].ID}, &drop))
	assert.Equal(t, "committed", drop.Outcome)
	require.Len(t, drop.Columns[3].Submissions, 1)
	assert.Equal(t, sub.ID, drop.Columns[3].Submissions[0].ID)

	require.Equal(t, 200, call(t, app, "POST", "/api/pipeline/drop", "owner",
		handlers.DropInput{SubmissionID: sub.ID, StageID: stages[3].ID}, &drop))
	assert.Equal(t, "ignored", drop.Outcome)

	var history []models.StageHistory
	require.Equal(t, 200, call(t, app, "GET", "/api/submissions/"+sub.ID+"/history", "owner", nil, &history))
	require.Len(t, history, 2)
	assert.Equal(t, stages[3].ID, history[0].ToStageID)
	require.NotNil(t, history[0].ToStageName)
	assert.Equal(t, stages[3].Name, *history[0].ToStageName)
	require.NotNil(t, history[0].FromStageColor)
	assert.Equal(t, stages[1].Color, *history[0].FromStageColor)

	var activities []models.Activity
	require.Equal(t, 200, call(t, app, "GET", "/api/submissions/"+sub.ID+"/activities", "owner", nil, &activities))
	require.Len(t, activities, 3)
	assert.Equal(t, "Moved from Reviewing to Enrolled", activities[0].Description)
	assert.Equal(t, "Moved from New to Reviewing", activities[1].Description)
	assert.Equal(t, models.ActivityCreated, activities[2].Type)

	// a stage of another form is refused
	other, otherStages := publishedForm(t, app, "owner", "Design Course")
	require.NotEqual(t, form.ID, other.ID)
	var errBody utils.ErrorResponseStruct
	assert.Equal(t, 422, call(t, app, "POST", "/api/submissions/"+sub.ID+"/transition", "owner",
		handlers.TransitionInput{StageID: otherStages[0].ID}, &errBody))

	// intruders cannot move it
	assert.Equal(t, 404, call(t, app, "POST", "/api/submissions/"+sub.ID+"/transition", "intruder",
		handlers.TransitionInput{StageID: stages[0].ID}, nil))
}

func TestPipelineBoards(t *testing.T) {
	app := setupApp(t)

	var boards []handlers.BoardResponse
	require.Equal(t, 200, call(t, app, "GET", "/api/pipeline/boards", "owner", nil, &boards))
	assert.Empty(t, boards)

	first, firstStages := publishedForm(t, app, "owner", "Data Bootcamp")
	second, _ := publishedForm(t, app, "owner", "Design Course")
	submit(t, app, first.ID, "Grace Hopper", "grace@example.com")
	submit(t, app, first.ID, "Ada Lovelace", "ada@example.com")
	submit(t, app, second.ID, "Alan Turing", "alan@example.com")

	require.Equal(t, 200, call(t, app, "GET", "/api/pipeline/boards", "owner", nil, &boards))
	require.Len(t, boards, 2)

	byForm := map[string]handlers.BoardResponse{}
	for _, b := range boards {
		require.NotNil(t, b.Form)
		byForm[b.Form.ID] = b
	}
	require.Contains(t, byForm, first.ID)
	require.Contains(t, byForm, second.ID)

	firstBoard := byForm[first.ID]
	require.Len(t, firstBoard.Columns, len(firstStages))
	assert.Equal(t, firstStages[0].ID, firstBoard.Columns[0].Stage.ID)
	assert.Len(t, firstBoard.Columns[0].Submissions, 2)
	for _, col := range byForm[second.ID].Columns {
		assert.Equal(t, second.ID, col.Stage.FormID)
	}
	assert.Len(t, byForm[second.ID].Columns[0].Submissions, 1)

	// another workspace sees none of them
	require.Equal(t, 200, call(t, app, "GET", "/api/pipeline/boards", "intruder", nil, &boards))
	assert.Empty(t, boards)
}

func TestNotesAndManualActivity(t *testing.T) {
	app := setupApp(t)
	form, _ := publishedForm(t, app, "owner", "Data Bootcamp")
	sub := submit(t, app, form.ID, "Grace Hopper", "grace@example.com")

	var updated models.Submission
	require.Equal(t, 200, call(t, app, "PUT", "/api/submissions/"+sub.ID+"/notes", "owner",
		handlers.NotesInput{Notes: "Strong candidate"}, &updated))
	assert.Equal(t, "Strong candidate", updated.Notes)

	assert.Equal(t, 400, call(t, app, "POST", "/api/submissions/"+sub.ID+"/activities", "owner",
		handlers.ActivityInput{Description: "   "}, nil))

	var entry models.Activity
	require.Equal(t, 201, call(t, app, "POST", "/api/submissions/"+sub.ID+"/activities", "owner",
		handlers.ActivityInput{Description: "Phone screen done"}, &entry))
	assert.Equal(t, models.ActivityManual, entry.Type)

	var activities []models.Activity
	require.Equal(t, 200, call(t, app, "GET", "/api/submissions/"+sub.ID+"/activities", "owner", nil, &activities))
	require.Len(t, activities, 3)
	assert.Equal(t, "Phone screen done", activities[0].Description)
	assert.Equal(t, models.ActivityNote, activities[1].Type)
}

func TestSubmissionListFilters(t *testing.T) {
	app := setupApp(t)
	bootcamp, stages := publishedForm(t, app, "owner", "Data Bootcamp")
	design, _ := publishedForm(t, app, "owner", "Design Course")
	grace := submit(t, app, bootcamp.ID, "Grace Hopper", "grace@example.com")
	submit(t, app, design.ID, "Ada Lovelace", "ada@example.com")

	var list []models.Submission
	require.Equal(t, 200, call(t, app, "GET", "/api/submissions", "owner", nil, &list))
	assert.Len(t, list, 2)

	require.Equal(t, 200, call(t, app, "GET", "/api/submissions?form_ids="+bootcamp.ID, "owner", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, grace.ID, list[0].ID)

	require.Equal(t, 200, call(t, app, "GET", "/api/submissions?form_ids="+bootcamp.ID+","+design.ID, "owner", nil, &list))
	assert.Len(t, list, 2)

	require.Equal(t, 200, call(t, app, "GET", "/api/submissions?q=design", "owner", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Ada Lovelace", list[0].Name)

	require.Equal(t, 200, call(t, app, "GET", "/api/submissions?stage_id="+stages[0].ID, "owner", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, grace.ID, list[0].ID)

	require.Equal(t, 200, call(t, app, "GET", "/api/submissions", "intruder", nil, &list))
	assert.Empty(t, list)
}

func TestTagEndpoints(t *testing.T) {
	app := setupApp(t)
	form, _ := publishedForm(t, app, "owner", "Data Bootcamp")
	sub := submit(t, app, form.ID, "Grace Hopper", "grace@example.com")
	other := submit(t, app, form.ID, "Ada Lovelace", "ada@example.com")
	path := "/api/submissions/" + sub.ID + "/tags"

	var tag models.Tag
	require.Equal(t, 201, call(t, app, "POST", path, "owner", handlers.AddTagInput{Name: "Scholarship"}, &tag))
	assert.Equal(t, "Scholarship", tag.Name)
	assert.NotEmpty(t, tag.Color)

	// attaching again is a no-op
	assert.Equal(t, 200, call(t, app, "POST", path, "owner", handlers.AddTagInput{TagID: tag.ID}, nil))
	assert.Equal(t, 201, call(t, app, "POST", "/api/submissions/"+other.ID+"/tags", "owner", handlers.AddTagInput{TagID: tag.ID}, nil))
	assert.Equal(t, 400, call(t, app, "POST", path, "owner", handlers.AddTagInput{Name: "  "}, nil))

	var tags []models.Tag
	require.Equal(t, 200, call(t, app, "GET", path, "owner", nil, &tags))
	require.Len(t, tags, 1)

	var renamed models.Tag
	require.Equal(t, 200, call(t, app, "PATCH", "/api/tags/"+tag.ID, "owner", handlers.RenameTagInput{Name: "Funded"}, &renamed))
	assert.Equal(t, "Funded", renamed.Name)

	var second models.Tag
	require.Equal(t, 201, call(t, app, "POST", path, "owner", handlers.AddTagInput{Name: "Priority"}, &second))
	assert.Equal(t, 409, call(t, app, "PATCH", "/api/tags/"+second.ID, "owner", handlers.RenameTagInput{Name: "funded"}, nil))

	require.Equal(t, 200, call(t, app, "GET", "/api/tags", "owner", nil, &tags))
	require.Len(t, tags, 2)
	assert.Equal(t, "Funded", tags[0].Name)

	var removed utils.SuccessResponseStruct
	require.Equal(t, 200, call(t, app, "DELETE", path+"/"+tag.ID, "owner", nil, &removed))
	assert.Equal(t, int64(1), removed.AffectedRows)
	require.Equal(t, 200, call(t, app, "DELETE", path+"/"+tag.ID, "owner", nil, &removed))
	assert.Equal(t, int64(0), removed.AffectedRows)

	// tags of another workspace cannot be attached
	intruderForm, _ := publishedForm(t, app, "intruder", "Other")
	intruderSub := submit(t, app, intruderForm.ID, "Mallory", "mallory@example.com")
	assert.Equal(t, 404, call(t, app, "POST", "/api/submissions/"+intruderSub.ID+"/tags", "intruder", handlers.AddTagInput{TagID: tag.ID}, nil))
	assert.Equal(t, 404, call(t, app, "GET", path, "intruder", nil, nil))
}
