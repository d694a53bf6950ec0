package logbook

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"fewr/app"
	"fewr/database"
	"fewr/model"
	"fewr/testenv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  pump 3 blocked ", "Pump 3 blocked."},
		{"already done.", "Already done."},
		{"alarm!", "Alarm!"},
		{"why?", "Why?"},
		{"élevator stuck", "Élevator stuck."},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeText(tt.in), tt.in)
	}
}

func TestDeltaMinutes(t *testing.T) {
	d, ok := DeltaMinutes("13:30", "13:45")
	require.True(t, ok)
	assert.Equal(t, 15.0, d)

	d, ok = DeltaMinutes("23:50", "00:10")
	require.True(t, ok)
	assert.Equal(t, 20.0, d)

	_, ok = DeltaMinutes("bad", "00:10")
	assert.False(t, ok)
}

func post(env *app.Env, form url.Values) *httpResult {
	rec := testenv.Serve(SubmitHandler(env), testenv.PostForm("/logbook/form", form, "JFI"))
	return &httpResult{code: rec.Code, location: testenv.Location(rec), body: rec.Body.String()}
}

type httpResult struct {
	code     int
	location string
	body     string
}

func TestStartWithoutStopIsRejected(t *testing.T) {
	env, _ := testenv.New(t)

	res := post(env, url.Values{"labelCalc": {"START"}, "timeHHMM": {"14:00"}, "message": {"line running"}})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Contains(t, res.body, "You can&#39;t add a START message without a previous STOP message")
	assert.Contains(t, res.body, "line running")

	items, err := database.GetMessages(env.DB)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStopThenStartTracksDowntime(t *testing.T) {
	env, _ := testenv.New(t)
	require.NoError(t, database.SetShiftState(env.DB, model.ShiftState{UserCode: "JFI", StartHHMM: "13:00", Status: model.StatusUp}))

	res := post(env, url.Values{"calc": {"STOP"}, "when": {"13:30"}, "message": {"mill blocked"}})
	require.Equal(t, http.StatusSeeOther, res.code)
	assert.Equal(t, "/logbook/form", res.location)

	state, err := database.GetShiftState(env.DB)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDown, state.Status)
	assert.Equal(t, "13:30", state.LastStopHHMM)

	res = post(env, url.Values{"calc": {"START"}, "when": {"13:45"}, "message": {"running again"}})
	require.Equal(t, http.StatusSeeOther, res.code)

	state, err = database.GetShiftState(env.DB)
	require.NoError(t, err)
	assert.Equal(t, model.StatusUp, state.Status)
	assert.Equal(t, 15, state.Downtime)
	assert.Empty(t, state.LastStopHHMM)

	items, err := database.GetMessages(env.DB)
	require.NoError(t, err)
	require.Len(t, items, 2)
	var start model.Message
	for _, m := range items {
		assert.Equal(t, "27/11/2025", m.Day)
		if m.Calc == model.CalcStart {
			start = m
		}
	}
	require.NotNil(t, start.DeltaMin)
	assert.Equal(t, 15.0, *start.DeltaMin)
	assert.Equal(t, "Running again.", start.Message)
}

func TestStartMeasuresFromLatestStop(t *testing.T) {
	env, clock := testenv.New(t)

	require.Equal(t, http.StatusSeeOther, post(env, url.Values{"calc": {"STOP"}, "when": {"13:00"}, "message": {"first stop"}}).code)
	clock.Advance(time.Minute)
	require.Equal(t, http.StatusSeeOther, post(env, url.Values{"calc": {"STOP"}, "when": {"13:30"}, "message": {"second stop"}}).code)

	stop, err := database.GetLatestStopMessage(env.DB)
	require.NoError(t, err)
	require.NotNil(t, stop)
	assert.Equal(t, "13:30", stop.Time)

	clock.Advance(time.Minute)
	require.Equal(t, http.StatusSeeOther, post(env, url.Values{"calc": {"START"}, "when": {"13:40"}, "message": {"restart"}}).code)
	items, err := database.GetMessages(env.DB)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, model.CalcStart, items[0].Calc)
	require.NotNil(t, items[0].DeltaMin)
	assert.Equal(t, 10.0, *items[0].DeltaMin)
}

func TestMustReadAndAcknowledge(t *testing.T) {
	env, _ := testenv.New(t)

	res := post(env, url.Values{"push": {"SAFETY"}, "message": {"wear glasses"}, "infoLabels": {"710,720"}})
	require.Equal(t, http.StatusSeeOther, res.code)

	must, err := database.GetMustReadMessages(env.DB)
	require.NoError(t, err)
	require.Len(t, must, 1)
	assert.Equal(t, model.StringList{"710", "720"}, must[0].InfoLabels)
	archived, err := database.GetArchivedMessages(env.DB)
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	rec := testenv.Serve(MustReadHandler(env), testenv.Get("/logbook/mustread", "JFI"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Wear glasses.")

	rec = testenv.Serve(AcknowledgeHandler(env), testenv.PostForm("/logbook/acknowledge", url.Values{"ids": {must[0].ID}}, "JFI"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/logbook/mustread", testenv.Location(rec))

	must, err = database.GetMustReadMessages(env.DB)
	require.NoError(t, err)
	assert.Empty(t, must)
	archived, err = database.GetArchivedMessages(env.DB)
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestTodosAndRedirectPriority(t *testing.T) {
	env, _ := testenv.New(t)

	res := post(env, url.Values{"message": {"chemicals arrived"}, "chemib": {"CHEM-IB"}, "chemswitch": {"CHEM-SWITCH"}, "bulkob": {"BULK-OB"}})
	assert.Equal(t, "/chemicals/inbound", res.location)

	res = post(env, url.Values{"message": {"truck"}, "wms": {"IB-RAW"}, "chemib": {"CHEM-IB"}})
	assert.Equal(t, "/raw/inbound-raw", res.location)

	res = post(env, url.Values{"message": {"switch"}, "chemswitch": {"CHEM-SWITCH"}})
	assert.Equal(t, "/chemicals/switch", res.location)

	todos, err := database.GetTodos(env.DB)
	require.NoError(t, err)
	require.Len(t, todos, 6)
	links := map[string]string{}
	for _, td := range todos {
		links[td.Label] = td.Link
	}
	assert.Equal(t, "/raw/inbound-raw", links["IB-RAW"])
	assert.Equal(t, "/bulk/registratie", links["BULK-OB"])

	rec := testenv.Serve(DeleteTodoHandler(env), deleteTodo(todos[0].ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body["ok"])

	rec = testenv.Serve(DeleteTodoHandler(env), deleteTodo(todos[0].ID))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"ok":false}`, rec.Body.String())
}

func deleteTodo(id string) *http.Request {
	r := testenv.PostForm("/logbook/todo/"+id+"/delete", nil, "JFI")
	r.SetPathValue("id", id)
	return r
}

func TestNotebookOnly(t *testing.T) {
	env, _ := testenv.New(t)

	res := post(env, url.Values{"message": {"remember filter size"}, "notebookOnly": {"on"}})
	require.Equal(t, http.StatusSeeOther, res.code)
	assert.Equal(t, "/logbook/mynotebook", res.location)

	items, err := database.GetMessages(env.DB)
	require.NoError(t, err)
	assert.Empty(t, items)

	nb, err := database.GetNotebook(env.DB, "JFI")
	require.NoError(t, err)
	require.Len(t, nb, 1)
	assert.Equal(t, "nb-"+nb[0].FromID, nb[0].ID)
	assert.Equal(t, "Remember filter size.", nb[0].Message)

	rec := testenv.Serve(NotebookHandler(env), testenv.Get("/logbook/mynotebook", "JFI"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Remember filter size.")
}

func TestAttachments(t *testing.T) {
	env, _ := testenv.New(t)

	req := testenv.PostMultipart(t, "/logbook/form",
		url.Values{"message": {"leak at pump"}},
		[]testenv.File{{Field: "attachments", Name: "Leak Photo.png", Data: testenv.PNG}}, "JFI")
	rec := testenv.Serve(SubmitHandler(env), req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	items, err := database.GetMessages(env.DB)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, items[0].Attachments, 1)
	assert.Equal(t, "image/png", items[0].Attachments[0].Mime)
	assert.Equal(t, "Leak Photo.png", items[0].Attachments[0].Name)

	req = testenv.PostMultipart(t, "/logbook/form",
		url.Values{"message": {"notes"}},
		[]testenv.File{{Field: "attachments", Name: "notes.txt", Data: []byte("plain text")}}, "JFI")
	rec = testenv.Serve(SubmitHandler(env), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "only images or PDF files are allowed")
}

func TestNotebookCopyAndDeleteEverywhere(t *testing.T) {
	env, _ := testenv.New(t)
	post(env, url.Values{"message": {"shared note"}})

	items, err := database.GetMessages(env.DB)
	require.NoError(t, err)
	require.Len(t, items, 1)
	id := items[0].ID

	for _, user := range []string{"JFI", "FCO"} {
		rec := testenv.Serve(AddNotebookHandler(env), testenv.PostForm("/logbook/add-notebook", url.Values{"id": {id}}, user))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	}
	// A second add keeps one copy.
	testenv.Serve(AddNotebookHandler(env), testenv.PostForm("/logbook/add-notebook", url.Values{"id": {id}}, "JFI"))

	nb, err := database.GetNotebook(env.DB, "JFI")
	require.NoError(t, err)
	assert.Len(t, nb, 1)

	rec := testenv.Serve(MessagesHandler(env), testenv.Get("/logbook/messages", "JFI"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "IN NOTEBOOK")

	del := testenv.PostForm("/logbook/message/"+id+"/delete", nil, "JFI")
	del.SetPathValue("id", id)
	rec = testenv.Serve(DeleteMessageHandler(env), del)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/logbook/messages", testenv.Location(rec))

	for _, user := range []string{"JFI", "FCO"} {
		nb, err := database.GetNotebook(env.DB, user)
		require.NoError(t, err)
		assert.Empty(t, nb, user)
	}
	items, err = database.GetMessages(env.DB)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRemoveNotebook(t *testing.T) {
	env, _ := testenv.New(t)
	post(env, url.Values{"message": {"keep me"}, "notebookOnly": {"1"}})
	nb, err := database.GetNotebook(env.DB, "JFI")
	require.NoError(t, err)
	require.Len(t, nb, 1)

	rec := testenv.Serve(RemoveNotebookHandler(env), testenv.PostForm("/logbook/remove-notebook", url.Values{"id": {nb[0].FromID}}, "JFI"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	nb, err = database.GetNotebook(env.DB, "JFI")
	require.NoError(t, err)
	assert.Empty(t, nb)
}

func TestFormPagePrefillsTime(t *testing.T) {
	env, _ := testenv.New(t)
	rec := testenv.Serve(FormPageHandler(env), testenv.Get("/logbook/form", "JFI"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="14:00"`)
}
