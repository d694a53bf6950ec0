package team

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"fewr/database"
	"fewr/model"
	"fewr/testenv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthFrom(t *testing.T) {
	now := testenv.Start
	assert.Equal(t, Month{2025, time.November}, MonthFrom(url.Values{}, now))
	assert.Equal(t, Month{2026, time.February}, MonthFrom(url.Values{"month": {"2"}, "year": {"2026"}}, now))
	assert.Equal(t, Month{2025, time.November}, MonthFrom(url.Values{"month": {"13"}, "year": {"x"}}, now))
	assert.Equal(t, "02", Month{2026, time.February}.MM())
}

func TestSeedFollowsRotation(t *testing.T) {
	entries := Seed(Month{2025, time.November})
	// 20 weekdays x 2, 17 Sun-Wed nights, 4 Fridays, 5 Saturdays, 10 weekend days.
	assert.Len(t, entries, 76)

	byDate := map[string][]string{}
	for _, e := range entries {
		assert.Equal(t, model.ScheduleYellow, e.State)
		assert.Equal(t, e.UserCode, e.OriginalUser)
		byDate[e.Date] = append(byDate[e.Date], e.Shift+" "+e.UserCode)
	}
	assert.Equal(t, []string{"05-13 JFI", "13-21 FCO"}, byDate["2025-11-27"])
	assert.Equal(t, []string{"05-13 JFI", "13-21 FCO", "21-09 TDA"}, byDate["2025-11-28"])
	assert.Equal(t, []string{"21-05 TDA", "09-21 DDS"}, byDate["2025-11-29"])
	assert.Equal(t, []string{"21-05 CVD", "09-21 DDS"}, byDate["2025-11-30"])
	assert.Equal(t, []string{"05-13 JFI", "13-21 FCO", "21-05 CVD"}, byDate["2025-11-24"])
}

func cell(t *testing.T, rows []model.ScheduleEntry, date, shift string) model.ScheduleEntry {
	t.Helper()
	for _, e := range rows {
		if e.Date == date && e.Shift == shift {
			return e
		}
	}
	t.Fatalf("no cell %s %s", date, shift)
	return model.ScheduleEntry{}
}

func TestScheduleAbsenceCoverUndo(t *testing.T) {
	env, _ := testenv.New(t)

	rec := testenv.Serve(ScheduleHandler(env), testenv.Get("/team/schedule", "JFI"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2025-11-27")

	rows, err := database.GetScheduleMonth(env.DB, 2025, time.November)
	require.NoError(t, err)
	require.Len(t, rows, 76)
	assert.Equal(t, "2025-11-01", rows[0].Date)
	assert.Equal(t, "09-21", rows[0].Shift)

	// a second visit does not seed again
	testenv.Serve(ScheduleHandler(env), testenv.Get("/team/schedule?month=11&year=2025", "JFI"))
	rows, err = database.GetScheduleMonth(env.DB, 2025, time.November)
	require.NoError(t, err)
	assert.Len(t, rows, 76)

	form := url.Values{"date": {"2025-11-27"}, "shift": {"05-13"}}
	rec = testenv.Serve(MarkAbsentHandler(env), testenv.PostForm("/team/schedule/mark-absent", form, "FCO"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/team/schedule", testenv.Location(rec))

	rows, _ = database.GetScheduleMonth(env.DB, 2025, time.November)
	c := cell(t, rows, "2025-11-27", "05-13")
	assert.Equal(t, model.ScheduleWhiteEmpty, c.State)
	assert.Empty(t, c.UserCode)

	abs, err := database.GetAbsences(env.DB)
	require.NoError(t, err)
	require.Len(t, abs, 1)
	assert.Equal(t, model.Absence{Date: "2025-11-27", Shift: "05-13", OriginalUser: "JFI"}, abs[0])

	form.Set("coverUser", "TDA")
	rec = testenv.Serve(FillCoverHandler(env), testenv.PostForm("/team/absences/fill", form, "FCO"))
	assert.Equal(t, "/team/absences", testenv.Location(rec))

	rows, _ = database.GetScheduleMonth(env.DB, 2025, time.November)
	c = cell(t, rows, "2025-11-27", "05-13")
	assert.Equal(t, model.ScheduleWhiteCode, c.State)
	assert.Equal(t, "TDA", c.UserCode)
	abs, _ = database.GetAbsences(env.DB)
	assert.True(t, abs[0].Approved)
	reps, err := database.GetReplacements(env.DB)
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Equal(t, "JFI", reps[0].OriginalUser)
	assert.Equal(t, "TDA", reps[0].CoverUser)

	rec = testenv.Serve(ReplacementsHandler(env), testenv.Get("/team/replacements", "FCO"))
	assert.Contains(t, rec.Body.String(), "<td>TDA</td>")

	rec = testenv.Serve(UndoReplacementHandler(env), testenv.PostForm("/team/replacements/undo", form, "FCO"))
	assert.Equal(t, "/team/replacements", testenv.Location(rec))

	rows, _ = database.GetScheduleMonth(env.DB, 2025, time.November)
	c = cell(t, rows, "2025-11-27", "05-13")
	assert.Equal(t, model.ScheduleWhiteEmpty, c.State)
	assert.Empty(t, c.UserCode)
	reps, _ = database.GetReplacements(env.DB)
	assert.Empty(t, reps)
	abs, _ = database.GetAbsences(env.DB)
	assert.False(t, abs[0].Approved)
}

func TestFillCoverWithoutCoverChangesNothing(t *testing.T) {
	env, _ := testenv.New(t)
	form := url.Values{"date": {"2025-11-27"}, "shift": {"05-13"}}
	rec := testenv.Serve(FillCoverHandler(env), testenv.PostForm("/team/absences/fill", form, "FCO"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	reps, err := database.GetReplacements(env.DB)
	require.NoError(t, err)
	assert.Empty(t, reps)
}

func TestTopicsFlow(t *testing.T) {
	env, _ := testenv.New(t)

	form := url.Values{"topicType": {"SAFETY"}, "infoLabels": {" EVAP, ,MVR "}, "message": {"New gloves at the dryer."}}
	files := []testenv.File{{Field: "attachments", Name: "gloves.png", Data: testenv.PNG}}
	rec := testenv.Serve(AddTopicHandler(env), testenv.PostMultipart(t, "/team/topics/add", form, files, "JFI"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/team/topics", testenv.Location(rec))

	topics, err := database.GetTopics(env.DB)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	topic := topics[0]
	assert.Equal(t, "JFI", topic.UserCode)
	assert.Equal(t, model.StringList{"EVAP", "MVR"}, topic.InfoLabels)
	require.Len(t, topic.Attachments, 1)
	assert.Equal(t, "image/png", topic.Attachments[0].Mime)

	ack := url.Values{"ids": {topic.ID}}
	testenv.Serve(AcknowledgeHandler(env), testenv.PostForm("/team/topics/acknowledge", ack, "FCO"))
	testenv.Serve(AcknowledgeHandler(env), testenv.PostForm("/team/topics/acknowledge", ack, "FCO"))
	got, err := database.GetTopic(env.DB, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"FCO"}, got.AckBy)

	rec = testenv.Serve(StatsHandler(env), testenv.Get("/team/topics/stats", "FCO"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<tr><td>FCO</td><td>0</td></tr>`)
	assert.Contains(t, body, `<tr><td>JFI</td><td><span class="unread">1</span></td></tr>`)

	nb := url.Values{"id": {topic.ID}}
	for i := 0; i < 2; i++ {
		rec = testenv.Serve(AddNotebookHandler(env), testenv.PostForm("/team/topics/add-notebook", nb, "FCO"))
		assert.Equal(t, "/team/topics", testenv.Location(rec))
	}
	entries, err := database.GetNotebook(env.DB, "FCO")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, topic.ID, entries[0].FromID)
	assert.Equal(t, model.PushTopic, entries[0].Push)
	assert.Equal(t, "SAFETY", entries[0].TopicType)

	rec = testenv.Serve(TopicsHandler(env), testenv.Get("/team/topics", "FCO"))
	assert.Contains(t, rec.Body.String(), "IN NOTEBOOK")

	rec = testenv.Serve(PastTopicsHandler(env), testenv.Get("/team/topics/past", "FCO"))
	assert.Contains(t, rec.Body.String(), "New gloves at the dryer.")
}

func TestAddTopicRejectsUnknownFiles(t *testing.T) {
	env, _ := testenv.New(t)
	files := []testenv.File{{Field: "attachments", Name: "run.sh", Data: []byte("#!/bin/sh\necho hi\n")}}
	rec := testenv.Serve(AddTopicHandler(env), testenv.PostMultipart(t, "/team/topics/add", url.Values{"message": {"x"}}, files, "JFI"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	topics, err := database.GetTopics(env.DB)
	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestStatsRedirect(t *testing.T) {
	env, _ := testenv.New(t)
	rec := testenv.Serve(StatsRedirectHandler(env), testenv.Get("/topics/stats", "JFI"))
	assert.Equal(t, "/team/topics/stats", testenv.Location(rec))
}

func TestWorkPerformance(t *testing.T) {
	shifts := []model.Shift{
		{ID: 3, Operator: "fco", StartLabel: "START: 26/11/2025 - 13:00", LogoutAt: "26/11/2025 - 21:15"},
		{ID: 2, Operator: "JFI", StartLabel: "START: 27/11/2025 - 05:00", LogoutAt: "27/11/2025 - 13:30"},
		{ID: 1, Operator: "JFI", StartLabel: "START: 30/10/2025 - 05:00", LogoutAt: "30/10/2025 - 13:00"},
		{ID: 4, Operator: "JFI", StartLabel: "START: 28/11/2025 - 05:00"},
		{ID: 5, Operator: "JFI", StartLabel: "START: 29/11/2025 - 05:00", LogoutAt: "29/11/2025 - 04:00"},
	}
	nov := Month{2025, time.November}

	all := WorkPerformance(shifts, nov, AllOperators, testenv.Loc)
	var ids []int64
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{3, 2, 4, 5}, ids)
	assert.Equal(t, 495, all[0].Minutes)
	assert.Equal(t, "8h15min", all[0].HHMM)
	assert.Equal(t, "", all[2].HHMM)
	assert.Equal(t, 0, all[3].Minutes)
	assert.Equal(t, "0h00min", all[3].HHMM)

	jfi := WorkPerformance(shifts, nov, "JFI", testenv.Loc)
	require.Len(t, jfi, 3)
	assert.Equal(t, "8h30min", jfi[0].HHMM)

	known := []string{"JFI", "FCO"}
	assert.Equal(t, "JFI", OperatorFilter(" jfi", known))
	assert.Equal(t, AllOperators, OperatorFilter("XYZ", known))
	assert.Equal(t, AllOperators, OperatorFilter("", known))
}

func TestExports(t *testing.T) {
	env, _ := testenv.New(t)
	_, err := database.InsertShift(env.DB, model.Shift{Operator: "JFI", StartLabel: "START: 27/11/2025 - 05:00", CreatedAt: env.Now()})
	require.NoError(t, err)
	require.NoError(t, database.StampLogout(env.DB, "JFI", "27/11/2025 - 13:30"))

	rec := testenv.Serve(ExportHandler(env), testenv.Get("/team/export?page=work-performance&operator=jfi", "JFI"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.ms-excel", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="TEAM_WORK-PERFORMANCE_2025-11_JFI.xls"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "<td>510</td><td>8h30min</td>")

	rec = testenv.Serve(ExportHandler(env), testenv.Get("/team/export", "JFI"))
	assert.Equal(t, `attachment; filename="TEAM_SCHEDULE_2025-11.xls"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "<td>2025-11-27</td><td>05-13</td><td>JFI</td><td>yellow</td>")

	require.NoError(t, database.MarkAbsent(env.DB, "2025-11-27", "13-21"))
	rec = testenv.Serve(ExportHandler(env), testenv.Get("/team/export?page=absences", "JFI"))
	assert.Equal(t, `attachment; filename="TEAM_ABSENCES_ALL.xls"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "<td>2025-11-27</td><td>13-21</td><td>FCO</td><td>absent</td><td>0</td>")

	rec = testenv.Serve(ExportHandler(env), testenv.Get("/team/export?page=replacements", "JFI"))
	assert.Equal(t, `attachment; filename="TEAM_REPLACEMENTS_ALL.xls"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "No data.")

	rec = testenv.Serve(WorkPerformanceHandler(env), testenv.Get("/team/work-performance", "JFI"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "8h30min")
}
