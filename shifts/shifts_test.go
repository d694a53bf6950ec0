package shifts

import (
	"net/http"
	"net/url"
	"testing"

	"fewr/app"
	"fewr/database"
	"fewr/model"
	"fewr/testenv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startShift(t *testing.T, env *app.Env, form url.Values) {
	t.Helper()
	rec := testenv.Serve(StartHandler(env), testenv.PostForm("/shifts/start", form, "JFI"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/shifts/overview", testenv.Location(rec))
}

func TestStartDownLogsStop(t *testing.T) {
	env, _ := testenv.New(t)
	startShift(t, env, url.Values{"day": {"27/11/2025"}, "time": {"13:00"}, "status": {"DOWN"}})

	s, err := database.GetOpenShift(env.DB, "JFI")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "START: 27/11/2025 - 13:00", s.StartLabel)

	state, err := database.GetShiftState(env.DB)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, model.StatusDown, state.Status)
	assert.Equal(t, "13:00", state.LastStopHHMM)

	stop, err := database.GetLatestStopMessage(env.DB)
	require.NoError(t, err)
	require.NotNil(t, stop)
	assert.Equal(t, AutoStopText, stop.Message)
	assert.Equal(t, "27/11/2025", stop.Day)

	// A second start while the shift is open goes to the stop flow.
	rec := testenv.Serve(StartHandler(env), testenv.PostForm("/shifts/start", url.Values{}, "JFI"))
	assert.Equal(t, "/shifts/stop/step1", testenv.Location(rec))
}

func TestStartUpDefaultsToNow(t *testing.T) {
	env, _ := testenv.New(t)
	startShift(t, env, url.Values{})

	s, err := database.GetOpenShift(env.DB, "JFI")
	require.NoError(t, err)
	assert.Equal(t, "START: 27/11/2025 - 14:00", s.StartLabel)

	state, err := database.GetShiftState(env.DB)
	require.NoError(t, err)
	assert.Equal(t, model.StatusUp, state.Status)

	stop, err := database.GetLatestStopMessage(env.DB)
	require.NoError(t, err)
	assert.Nil(t, stop)
}

func TestStartRejectsBadClock(t *testing.T) {
	env, _ := testenv.New(t)
	rec := testenv.Serve(StartHandler(env), testenv.PostForm("/shifts/start", url.Values{"day": {"2025-11-27"}, "time": {"13:00"}}, "JFI"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStopFlowComputesOEE(t *testing.T) {
	env, _ := testenv.New(t)
	startShift(t, env, url.Values{"day": {"27/11/2025"}, "time": {"13:00"}, "status": {"DOWN"}})

	require.NoError(t, database.InsertMessage(env.DB, model.Message{ID: "m-start", UserCode: "JFI", Time: "13:30", Calc: model.CalcStart, CreatedAt: env.Now()}))
	require.NoError(t, database.InsertMessage(env.DB, model.Message{ID: "m-qc", UserCode: "JFI", Time: "15:00", QC: "QUALITY CHECK", CreatedAt: env.Now()}))
	_, err := database.InsertDischarge(env.DB, model.Discharge{OriginSilo: BBSilo710, LocationCode: "A01", QuantityKg: 1000, Status: model.DischargeOccupied, CreatedAt: env.Now()})
	require.NoError(t, err)
	_, err = database.InsertDischarge(env.DB, model.Discharge{OriginSilo: BBSilo720, LocationCode: "A02", QuantityKg: 1200, Status: model.DischargeOccupied, CreatedAt: env.Now().AddDate(0, 0, -2)})
	require.NoError(t, err)
	require.NoError(t, database.InsertBulkDelivery(env.DB, model.BulkDelivery{ID: "b1", CreatedAt: env.Now(), Silo: BulkSilo710, Kg: 500, Customer: "ACME"}))

	rec := testenv.Serve(Step1Handler(env), testenv.PostForm("/shifts/stop/step1", url.Values{"day": {"27/11/2025"}, "time": {"21:00"}}, "JFI"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/shifts/stop/step2-produced", testenv.Location(rec))

	state, err := database.GetShiftState(env.DB)
	require.NoError(t, err)
	assert.Nil(t, state)

	rec = testenv.Serve(Step2PageHandler(env), testenv.Get("/shifts/stop/step2-produced", "JFI"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "END: 27/11/2025 - 21:00")
	assert.Contains(t, body, "<td>1000</td>")
	assert.Contains(t, body, "<td>13:00</td><td>13:30</td><td>30</td>")

	form := url.Values{"start710": {"10000"}, "stop710": {"12000,5"}, "start720": {"0"}, "stop720": {"0"}, "mode": {"finish"}}
	rec = testenv.Serve(Step2Handler(env), testenv.PostForm("/shifts/stop/step2-produced", form, "JFI"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/shifts/overview", testenv.Location(rec))

	s, err := database.GetLatestEndedShift(env.DB, "JFI")
	require.NoError(t, err)
	require.NotNil(t, s.Produced)
	assert.Equal(t, 3500.5, *s.Produced)
	assert.Equal(t, 1000.0, *s.D710BB)
	assert.Equal(t, 0.0, *s.D720BB)
	assert.Equal(t, 500.0, *s.D710Bulk)
	assert.Equal(t, 30.0, *s.Downtime)
	assert.Equal(t, 100.0, *s.QC)

	uptime := 100 * (1 - 30.0/480)
	perf := 100 * (3500.5 * 60 / 480) / env.Cfg.Plant.TargetPerHour
	assert.InDelta(t, uptime*perf/100, *s.OEE, 1e-9)
}

func TestStep2ShowsResultsWithoutFinish(t *testing.T) {
	env, _ := testenv.New(t)
	startShift(t, env, url.Values{"day": {"27/11/2025"}, "time": {"06:00"}})
	testenv.Serve(Step1Handler(env), testenv.PostForm("/shifts/stop/step1", url.Values{"day": {"27/11/2025"}, "time": {"14:00"}}, "JFI"))

	form := url.Values{"start710": {"100"}, "stop710": {"2500"}}
	rec := testenv.Serve(Step2Handler(env), testenv.PostForm("/shifts/stop/step2-produced", form, "JFI"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Results saved.")
	assert.Contains(t, rec.Body.String(), "<strong>2400 kg</strong>")
}

func TestPrefillUsesPreviousStopWeights(t *testing.T) {
	prevStop := 4200.0
	prev := &model.Shift{Stop710: &prevStop}
	p := Prefill(model.Shift{}, prev)
	assert.Equal(t, 4200.0, p.Start710)
	assert.Equal(t, 0.0, p.Start720)

	own := 10.0
	p = Prefill(model.Shift{Start710: &own}, prev)
	assert.Equal(t, 10.0, p.Start710)
}

func TestStopPagesWithoutShift(t *testing.T) {
	env, _ := testenv.New(t)

	rec := testenv.Serve(Step1PageHandler(env), testenv.Get("/shifts/stop/step1", "JFI"))
	assert.Equal(t, "/shifts/start", testenv.Location(rec))

	rec = testenv.Serve(Step2PageHandler(env), testenv.Get("/shifts/stop/step2-produced", "JFI"))
	assert.Equal(t, "/shifts/start", testenv.Location(rec))

	rec = testenv.Serve(Step3Handler(env), testenv.Get("/shifts/stop/step3", "JFI"))
	assert.Equal(t, "/shifts/stop/step2-produced", testenv.Location(rec))

	rec = testenv.Serve(ConfirmOEEHandler(env), testenv.PostForm("/shifts/stop/confirm-oee", nil, "JFI"))
	assert.Equal(t, "/shifts/overview", testenv.Location(rec))
}

func TestOverviewAndDebug(t *testing.T) {
	env, _ := testenv.New(t)
	startShift(t, env, url.Values{"day": {"27/11/2025"}, "time": {"13:00"}})
	testenv.Serve(Step1Handler(env), testenv.PostForm("/shifts/stop/step1", url.Values{"day": {"27/11/2025"}, "time": {"21:00"}}, "JFI"))
	require.NoError(t, database.InsertBulkDelivery(env.DB, model.BulkDelivery{ID: "b1", CreatedAt: env.Now(), Silo: BulkSilo720, Kg: 750, Customer: "ACME"}))

	rec := testenv.Serve(OverviewHandler(env), testenv.Get("/shifts/overview", "JFI"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "START: 27/11/2025 - 13:00")

	rec = testenv.Serve(DebugHandler(env), testenv.Get("/shifts/debug-bulk-bb", "JFI"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<th>BULK</th><td>0</td><td>750</td>")
}
