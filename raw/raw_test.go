package raw

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"fewr/database"
	"fewr/model"
	"fewr/testenv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInboundRequiresFields(t *testing.T) {
	env, _ := testenv.New(t)

	form := url.Values{"article": {"POTATO PEELS"}, "batch": {"B-1"}, "received_date": {"2025-11-27"}}
	rec := testenv.Serve(InboundHandler(env), testenv.PostForm("/raw/inbound-raw", form, "JFI"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Origin is required.")
	assert.Contains(t, body, "Received time is required.")
	assert.NotContains(t, body, "Article is required.")

	items, err := database.GetRawReceipts(env.DB)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInboundAndLabo(t *testing.T) {
	env, _ := testenv.New(t)

	form := url.Values{
		"article": {"POTATO PEELS"}, "origin": {"AGRISTO (BE)"}, "batch": {"B-1"},
		"quantity": {"24,5"}, "received_date": {"2025-11-27"}, "received_time": {"08:15"},
	}
	rec := testenv.Serve(InboundHandler(env), testenv.PostForm("/raw/inbound-raw", form, "JFI"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/raw/overview", testenv.Location(rec))

	items, err := database.GetRawReceipts(env.DB)
	require.NoError(t, err)
	require.Len(t, items, 1)
	got := items[0]
	assert.Equal(t, model.RawStatusBasic, got.Status)
	assert.Equal(t, "JFI", got.Operator)
	require.NotNil(t, got.Quantity)
	assert.Equal(t, 24.5, *got.Quantity)
	assert.Nil(t, got.StartLevel)

	id := strconv.FormatInt(got.ID, 10)
	req := testenv.Get("/raw/labo/"+id, "JFI")
	req.SetPathValue("id", id)
	rec = testenv.Serve(LaboPageHandler(env), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "batch B-1")

	req = testenv.PostForm("/raw/labo/"+id, url.Values{"added_sap": {"FRESH"}, "ph": {"5,8"}, "ds": {""}}, "JFI")
	req.SetPathValue("id", id)
	rec = testenv.Serve(LaboHandler(env), req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	r, err := database.GetRawReceipt(env.DB, got.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RawStatusCompleted, r.Status)
	v, ok := r.LaboValue("ph")
	assert.True(t, ok)
	assert.Equal(t, "5,8", v)
	_, ok = r.LaboValue("ds")
	assert.False(t, ok)
}

func TestLaboUnknownReceipt(t *testing.T) {
	env, _ := testenv.New(t)
	for _, id := range []string{"999", "abc"} {
		req := testenv.Get("/raw/labo/"+id, "JFI")
		req.SetPathValue("id", id)
		rec := testenv.Serve(LaboPageHandler(env), req)
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
	}
}

func TestSortByReceived(t *testing.T) {
	items := []model.RawReceipt{
		{ID: 1, ReceivedDate: "2025-11-26", ReceivedTime: "23:00"},
		{ID: 2, ReceivedDate: "27/11/2025", ReceivedTime: "07:00"},
		{ID: 3, ReceivedDate: "", ReceivedTime: ""},
		{ID: 4, ReceivedDate: "2025-11-27", ReceivedTime: "09:30"},
	}
	SortByReceived(items, testenv.Loc)
	var ids []int64
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []int64{4, 2, 1, 3}, ids)
}

func TestRedirects(t *testing.T) {
	env, _ := testenv.New(t)

	rec := testenv.Serve(FilterRedirectHandler(env), testenv.Get("/raw/filter?field=ds&mode=excel", "JFI"))
	assert.Equal(t, "/analyses/filter?field=ds&mode=excel", testenv.Location(rec))

	rec = testenv.Serve(InboundAliasHandler(env), testenv.Get("/raw/inbound", "JFI"))
	assert.Equal(t, "/raw/inbound-raw", testenv.Location(rec))
}

func TestOverviewRenders(t *testing.T) {
	env, _ := testenv.New(t)
	_, err := database.InsertRawReceipt(env.DB, model.RawReceipt{Article: "POTATO PULP", Origin: "AVIKO (NL)", Batch: "X-9", ReceivedDate: "2025-11-27", ReceivedTime: "10:00", Status: model.RawStatusBasic})
	require.NoError(t, err)

	rec := testenv.Serve(OverviewHandler(env), testenv.Get("/raw/overview", "JFI"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "X-9")
}
