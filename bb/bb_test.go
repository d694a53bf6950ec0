package bb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"fewr/app"
	"fewr/database"
	"fewr/model"
	"fewr/testenv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discharge(t *testing.T, env *app.Env, location, lot, kg string) {
	t.Helper()
	form := url.Values{"originSilo": {"SILO 710"}, "lotNumber": {lot}, "locationCode": {location}, "quantityKg": {kg}}
	rec := testenv.Serve(SaveDischargeHandler(env), testenv.PostForm("/bb/discharge/save", form, "JFI"))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/bb/discharge", testenv.Location(rec))
}

func slotByCode(slots []Slot, code string) Slot {
	for _, s := range slots {
		if s.Code == code {
			return s
		}
	}
	return Slot{}
}

func TestBuildSlots(t *testing.T) {
	// Newest first, as returned by the database.
	discharges := []model.Discharge{
		{LocationCode: "2b", LotNumber: "L3", QuantityKg: 1200, Status: model.DischargeShipped},
		{LocationCode: "1A", LotNumber: "L2", QuantityKg: 1100, Status: model.DischargeAllocated},
		{LocationCode: "2B", LotNumber: "L1", QuantityKg: 1000, Status: model.DischargeOccupied},
		{LocationCode: "1A", LotNumber: "L0", QuantityKg: 1000, Status: model.DischargeOccupied},
		{LocationCode: "99Z", LotNumber: "LX", QuantityKg: 1000, Status: model.DischargeOccupied},
	}
	slots := BuildSlots(discharges)
	require.Len(t, slots, 312)
	assert.Equal(t, "1A", slots[0].Code)
	assert.Equal(t, "26L", slots[311].Code)

	a := slotByCode(slots, "1A")
	assert.Equal(t, model.DischargeAllocated, a.Status)
	assert.Equal(t, "L2", a.Lot)

	b := slotByCode(slots, "2B")
	assert.Equal(t, model.SlotFree, b.Status)
	assert.Empty(t, b.Lot)

	grid := Grid(slots)
	require.Len(t, grid, 26)
	assert.Len(t, grid[25].Slots, 12)
	assert.Equal(t, 26, grid[25].Row)
}

func TestAllocatableOldestBatchFirst(t *testing.T) {
	now := time.Date(2025, 11, 27, 12, 0, 0, 0, time.UTC)
	slots := BuildSlots([]model.Discharge{
		{LocationCode: "1A", LotNumber: "NEW", Status: model.DischargeOccupied},
		{LocationCode: "1B", LotNumber: "OLD", Status: model.DischargeOccupied},
		{LocationCode: "1C", LotNumber: "UNKNOWN", Status: model.DischargeOccupied},
		{LocationCode: "1D", LotNumber: "OLD", Status: model.DischargeAllocated},
	})
	batches := []model.BatchRecord{
		{BatchCode: "NEW", CreatedAt: now},
		{BatchCode: "OLD", CreatedAt: now.Add(-48 * time.Hour)},
	}
	got := Allocatable(slots, batches, testenv.Loc)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"UNKNOWN", "OLD", "NEW"}, []string{got[0].Lot, got[1].Lot, got[2].Lot})
	assert.Equal(t, "25/11/2025 - 13:00", got[1].CreatedLabel)
}

func TestStockSummary(t *testing.T) {
	discharges := []model.Discharge{
		{LotNumber: "B", QuantityKg: 1000, Status: model.DischargeOccupied},
		{LotNumber: "A", QuantityKg: 1100, Status: model.DischargeAllocated},
		{LotNumber: "A", QuantityKg: 1100, Status: model.DischargeOccupied},
		{LotNumber: "A", QuantityKg: 1200, Status: model.DischargeShipped},
		{LotNumber: "C", QuantityKg: 950, Status: model.DischargeOccupied},
		{LotNumber: "", QuantityKg: 1000, Status: model.DischargeOccupied},
	}
	batches := []model.BatchRecord{{BatchCode: "B", StartDate: "2025-11-01"}, {BatchCode: "A", StartDate: "2025-11-10"}}
	rows := StockSummary(discharges, batches)
	require.Len(t, rows, 3)
	assert.Equal(t, "B", rows[0].BatchCode)
	assert.Equal(t, 1, rows[0].Free1000)
	assert.Equal(t, "A", rows[1].BatchCode)
	assert.Equal(t, 1, rows[1].Free1100)
	assert.Equal(t, 1, rows[1].Alloc1100)
	assert.Equal(t, 0, rows[1].Free1200)
	assert.Equal(t, "C", rows[2].BatchCode)
	assert.Equal(t, StockRow{BatchCode: "C"}, rows[2])
}

func TestDischargeValidation(t *testing.T) {
	env, _ := testenv.New(t)

	form := url.Values{"originSilo": {"SILO 710"}, "locationCode": {"30A"}, "quantityKg": {"0"}}
	rec := testenv.Serve(SaveDischargeHandler(env), testenv.PostForm("/bb/discharge/save", form, "JFI"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Lot is required.")
	assert.Contains(t, body, "Quantity must be a positive number.")
	assert.Contains(t, body, "Location 30A is not a warehouse slot.")

	all, err := database.GetDischarges(env.DB)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAllocateLoadAndShip(t *testing.T) {
	env, clock := testenv.New(t)

	discharge(t, env, "1a", "AP-25112701", "1000")
	clock.Advance(time.Minute)
	discharge(t, env, "1B", "AP-25112701", "1200")
	clock.Advance(time.Minute)
	discharge(t, env, "2A", "AP-25112702", "1100")

	all, err := database.GetDischarges(env.DB)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1A", all[2].LocationCode)
	assert.Equal(t, "JFI", all[2].Operator)
	assert.Equal(t, "2025-11-27", all[2].DischargeDate)

	form := url.Values{"customer": {"ACME"}, "shippingDate": {"2025-12-01"}, "reference": {"PO-9"}, "locations": {"2A", "1A"}}
	rec := testenv.Serve(AllocateHandler(env), testenv.PostForm("/bb/allocation/allocate", form, "JFI"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/bb/allocation?customer=ACME&reference=PO-9&remarks=&shippingDate=2025-12-01", testenv.Location(rec))

	rec = testenv.Serve(AllocationPageHandler(env), testenv.Get("/bb/allocation?customer=ACME", "JFI"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="1B"`)

	rec = testenv.Serve(LoadingHandler(env), testenv.Get("/bb/loading?shippingDate=2025-12-01", "JFI"))
	require.Equal(t, http.StatusOK, rec.Code)
	allocated, err := database.GetAllocatedDischarges(env.DB, "", "2025-12-01")
	require.NoError(t, err)
	list := LoadingList(allocated)
	require.Len(t, list, 2)
	assert.Equal(t, "1A", list[0].LocationCode)
	assert.Equal(t, "2A", list[1].LocationCode)

	rec = testenv.Serve(StockHandler(env), testenv.Get("/bb/stock", "JFI"))
	assert.Equal(t, http.StatusOK, rec.Code)

	ids := url.Values{"ids": {itoa(list[0].ID), itoa(list[1].ID)}, "shippingDate": {"2025-12-01"}}
	rec = testenv.Serve(ConfirmLoadingHandler(env), testenv.PostForm("/bb/loading/confirm", ids, "JFI"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/bb/loading?msg=2+big+bag%28s%29+shipped.&shippingDate=2025-12-01", testenv.Location(rec))

	all, err = database.GetDischarges(env.DB)
	require.NoError(t, err)
	slots := BuildSlots(all)
	assert.Equal(t, model.SlotFree, slotByCode(slots, "1A").Status)
	assert.Equal(t, model.SlotFree, slotByCode(slots, "2A").Status)
	assert.Equal(t, model.DischargeOccupied, slotByCode(slots, "1B").Status)

	rows := StockSummary(all, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Free1200)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

type fakePrinter struct {
	got []byte
	err error
}

func (p *fakePrinter) PDF(_ context.Context, html []byte) ([]byte, error) {
	p.got = html
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-1.4"), nil
}

func TestPrintLabel(t *testing.T) {
	env, _ := testenv.New(t)
	form := url.Values{"originSilo": {"SILO 720"}, "lotNumber": {"AP-25112701"}, "locationCode": {"3C"}, "quantityKg": {"1100"}, "labelLang": {"fr"}}

	rec := testenv.Serve(PrintLabelHandler(env), testenv.PostForm("/bb/discharge/print-label", form, "JFI"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "POUDRE DE POMME DE TERRE SÉCHÉE")
	assert.Contains(t, body, "27/11/2025")
	assert.Contains(t, body, "1100 kg")

	p := &fakePrinter{}
	env.Labels = p
	rec = testenv.Serve(PrintLabelHandler(env), testenv.PostForm("/bb/discharge/print-label", form, "JFI"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
	assert.Contains(t, string(p.got), "AP-25112701")

	p.err = errors.New("no browser")
	rec = testenv.Serve(PrintLabelHandler(env), testenv.PostForm("/bb/discharge/print-label", form, "JFI"))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	all, err := database.GetDischarges(env.DB)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPagesAndDebug(t *testing.T) {
	env, _ := testenv.New(t)

	rec := testenv.Serve(DebugHandler(env), testenv.Get("/bb/debug-discharges", "JFI"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	discharge(t, env, "5E", "AP-1", "1000")

	rec = testenv.Serve(DebugHandler(env), testenv.Get("/bb/debug-discharges", "JFI"))
	var got []model.Discharge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "5E", got[0].LocationCode)

	rec = testenv.Serve(DischargePageHandler(env), testenv.Get("/bb/discharge", "JFI"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `title="5E AP-1"`)

	rec = testenv.Serve(DischargeOverviewHandler(env), testenv.Get("/bb/discharge-overview", "JFI"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AP-1")
}
