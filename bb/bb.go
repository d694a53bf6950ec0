// Package bb tracks big bags from discharge into a warehouse slot through
// allocation to a customer and loading.
package bb

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fewr/model"
	"fewr/timefmt"
)

// Grid dimensions: rows 1..26, columns A..L.
const Rows = 26

var Columns = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}

// Slot is one warehouse cell as the newest discharge into it left it.
type Slot struct {
	Code         string
	Row          int
	Col          string
	Status       string
	Lot          string
	QuantityKg   float64
	CreatedLabel string
	createdAt    time.Time
}

// SlotCode names a cell: "1A" .. "26L".
func SlotCode(row int, col string) string {
	return fmt.Sprintf("%d%s", row, col)
}

// BuildSlots replays the discharges (newest first, as stored) from oldest
// to newest so the newest discharge into a cell decides its state. A
// shipped discharge frees its cell.
func BuildSlots(discharges []model.Discharge) []Slot {
	slots := make([]Slot, 0, Rows*len(Columns))
	index := make(map[string]int, Rows*len(Columns))
	for row := 1; row <= Rows; row++ {
		for _, col := range Columns {
			code := SlotCode(row, col)
			index[code] = len(slots)
			slots = append(slots, Slot{Code: code, Row: row, Col: col, Status: model.SlotFree})
		}
	}
	for i := len(discharges) - 1; i >= 0; i-- {
		d := discharges[i]
		at, ok := index[strings.ToUpper(strings.TrimSpace(d.LocationCode))]
		if !ok {
			continue
		}
		s := &slots[at]
		if d.Status == model.DischargeShipped {
			s.Status, s.Lot, s.QuantityKg = model.SlotFree, "", 0
			continue
		}
		s.Status = d.Status
		if s.Status == "" {
			s.Status = model.DischargeOccupied
		}
		s.Lot = d.LotNumber
		s.QuantityKg = d.QuantityKg
	}
	return slots
}

// GridRow is one row of the slot grid.
type GridRow struct {
	Row   int
	Slots []Slot
}

func Grid(slots []Slot) []GridRow {
	rows := make([]GridRow, 0, Rows)
	for i := 0; i < len(slots); i += len(Columns) {
		end := min(i+len(Columns), len(slots))
		rows = append(rows, GridRow{Row: slots[i].Row, Slots: slots[i:end]})
	}
	return rows
}

func batchesByCode(batches []model.BatchRecord) map[string]model.BatchRecord {
	m := make(map[string]model.BatchRecord, len(batches))
	for _, b := range batches {
		if b.BatchCode != "" {
			m[b.BatchCode] = b
		}
	}
	return m
}

// Allocatable returns the occupied slots with the creation time of their
// batch, oldest batch first. Slots whose lot is not a known batch come
// first.
func Allocatable(slots []Slot, batches []model.BatchRecord, loc *time.Location) []Slot {
	byCode := batchesByCode(batches)
	var out []Slot
	for _, s := range slots {
		if s.Status != model.DischargeOccupied {
			continue
		}
		if b, ok := byCode[s.Lot]; ok && !b.CreatedAt.IsZero() {
			s.createdAt = b.CreatedAt
			s.CreatedLabel = timefmt.Stamp(b.CreatedAt.In(loc))
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].createdAt.Before(out[j].createdAt) })
	return out
}

// LoadingList sorts allocated discharges by location code.
func LoadingList(allocated []model.Discharge) []model.Discharge {
	out := make([]model.Discharge, len(allocated))
	copy(out, allocated)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToUpper(out[i].LocationCode) < strings.ToUpper(out[j].LocationCode)
	})
	return out
}

// StockRow counts the bags of one batch per standard weight.
type StockRow struct {
	BatchCode string
	StartDate string
	Free1000  int
	Free1100  int
	Free1200  int
	Alloc1000 int
	Alloc1100 int
	Alloc1200 int
}

func (r *StockRow) count(kg float64, allocated bool) {
	var free, alloc *int
	switch kg {
	case 1000:
		free, alloc = &r.Free1000, &r.Alloc1000
	case 1100:
		free, alloc = &r.Free1100, &r.Alloc1100
	case 1200:
		free, alloc = &r.Free1200, &r.Alloc1200
	default:
		return
	}
	if allocated {
		*alloc++
	} else {
		*free++
	}
}

// StockSummary counts the bags still in the warehouse per batch code.
// Rows with a known batch start date come first in date order; ties and
// unknown batches are ordered by code.
func StockSummary(discharges []model.Discharge, batches []model.BatchRecord) []StockRow {
	byCode := batchesByCode(batches)
	rows := make(map[string]*StockRow)
	for _, d := range discharges {
		if d.LotNumber == "" || d.Status == model.DischargeShipped {
			continue
		}
		r, ok := rows[d.LotNumber]
		if !ok {
			r = &StockRow{BatchCode: d.LotNumber, StartDate: byCode[d.LotNumber].StartDate}
			rows[d.LotNumber] = r
		}
		r.count(d.QuantityKg, d.Status == model.DischargeAllocated)
	}
	out := make([]StockRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.StartDate == "") != (b.StartDate == "") {
			return a.StartDate != ""
		}
		if a.StartDate != b.StartDate {
			return a.StartDate < b.StartDate
		}
		return a.BatchCode < b.BatchCode
	})
	return out
}
