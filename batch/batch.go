// Package batch composes production batches from the shifts, raw receipts
// and chemical lots of a period.
package batch

import (
	"fmt"
	"sort"
	"time"

	"fewr/database"
	"fewr/model"
	"fewr/raw"
	"fewr/shifts"
	"fewr/timefmt"

	"github.com/jmoiron/sqlx"
)

// Period is a range of whole days, both ends included.
type Period struct {
	StartDate string
	EndDate   string
	From      time.Time
	To        time.Time
}

// ParsePeriod reads two ISO dates. ok is false when either is missing or
// unreadable.
func ParsePeriod(startDate, endDate string, loc *time.Location) (Period, bool) {
	from, okFrom := timefmt.ParseDate(startDate, loc)
	to, okTo := timefmt.ParseDate(endDate, loc)
	if !okFrom || !okTo {
		return Period{StartDate: startDate, EndDate: endDate}, false
	}
	return Period{
		StartDate: startDate,
		EndDate:   endDate,
		From:      from,
		To:        to.AddDate(0, 0, 1).Add(-time.Second),
	}, true
}

func (p Period) overlaps(start, end time.Time) bool {
	return !end.Before(p.From) && !start.After(p.To)
}

func (p Period) contains(t time.Time) bool {
	return p.overlaps(t, t)
}

type ProducedRow struct {
	Start string
	End   string
	Kg    float64
	at    time.Time
}

type RawRow struct {
	Date    string
	Batch   string
	Article string
	Origin  string
	Kg      float64
	at      time.Time
}

type ChemicalRow struct {
	Date    string
	Product string
	Lot     string
}

type Summary struct {
	TotalProducedKg  float64
	TotalRawKg       float64
	TotalChemicalsKg float64
	BatchCode        string
	ExpiryCode       string
}

// Preview is everything that goes into a batch of the period.
type Preview struct {
	Period    Period
	Produced  []ProducedRow
	Raws      []RawRow
	Chemicals []ChemicalRow
	Summary   Summary
}

// ProducedIn returns the stopped shifts with a produced result that
// overlap the period, oldest first.
func ProducedIn(all []model.Shift, p Period, loc *time.Location) []ProducedRow {
	var rows []ProducedRow
	for _, s := range all {
		start, end, ok := shifts.Window(s, loc)
		if !ok || s.Produced == nil || !p.overlaps(start, end) {
			continue
		}
		rows = append(rows, ProducedRow{
			Start: timefmt.Stamp(start),
			End:   timefmt.Stamp(end),
			Kg:    *s.Produced,
			at:    start,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })
	return rows
}

// RawIn returns the receipts received in the period, oldest first.
func RawIn(all []model.RawReceipt, p Period, loc *time.Location) []RawRow {
	var rows []RawRow
	for _, rec := range all {
		at, ok := raw.ReceivedAt(rec, loc)
		if !ok || !p.contains(at) {
			continue
		}
		row := RawRow{Date: rec.ReceivedDate, Batch: rec.Batch, Article: rec.Article, Origin: rec.Origin, at: at}
		if rec.Quantity != nil {
			row.Kg = *rec.Quantity
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })
	return rows
}

// ChemicalsIn returns the usage blocks overlapping the period, oldest
// first. An open block counts from its start only.
func ChemicalsIn(all []model.ChemicalUsage, p Period, loc *time.Location) []ChemicalRow {
	sorted := make([]model.ChemicalUsage, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartDate.Before(sorted[j].StartDate) })

	var rows []ChemicalRow
	for _, u := range sorted {
		end := u.StartDate
		if u.EndDate != nil {
			end = *u.EndDate
		}
		if !p.overlaps(u.StartDate, end) {
			continue
		}
		product := u.ArticleName
		if product == "" {
			product = u.ArticleID
		}
		rows = append(rows, ChemicalRow{
			Date:    u.StartDate.In(loc).Format(timefmt.ISODate),
			Product: product,
			Lot:     u.LotNumber,
		})
	}
	return rows
}

func codePrefix(now time.Time) string {
	return "AP-" + now.Format("060102")
}

func sequenceName(now time.Time) string {
	return "batch-" + now.Format("060102")
}

// NextCode is the batch code the next save of the day would get.
func NextCode(db sqlx.Queryer, now time.Time) (string, error) {
	return database.PeekSequence(db, sequenceName(now), codePrefix(now), 2)
}

// BuildPreview collects the period's lots and the proposed codes. now is on
// the plant clock.
func BuildPreview(db *sqlx.DB, p Period, now time.Time) (Preview, error) {
	allShifts, err := database.GetAllShifts(db)
	if err != nil {
		return Preview{}, err
	}
	receipts, err := database.GetRawReceipts(db)
	if err != nil {
		return Preview{}, err
	}
	usage, err := database.GetChemicalUsage(db)
	if err != nil {
		return Preview{}, err
	}
	loc := now.Location()
	pv := Preview{
		Period:    p,
		Produced:  ProducedIn(allShifts, p, loc),
		Raws:      RawIn(receipts, p, loc),
		Chemicals: ChemicalsIn(usage, p, loc),
	}
	for _, r := range pv.Produced {
		pv.Summary.TotalProducedKg += r.Kg
	}
	for _, r := range pv.Raws {
		pv.Summary.TotalRawKg += r.Kg
	}
	code, err := NextCode(db, now)
	if err != nil {
		return Preview{}, err
	}
	pv.Summary.BatchCode = code
	pv.Summary.ExpiryCode = timefmt.ExpiryCode(now)
	return pv, nil
}

// Record turns a preview into the stored composition.
func (pv Preview) Record(batchCode, expiryCode string, now time.Time) model.BatchRecord {
	b := model.BatchRecord{
		BatchCode:   batchCode,
		ExpiryCode:  expiryCode,
		StartDate:   pv.Period.StartDate,
		EndDate:     pv.Period.EndDate,
		PeriodLabel: fmt.Sprintf("%s → %s", pv.Period.StartDate, pv.Period.EndDate),
		CreatedAt:   now,
	}
	for _, r := range pv.Produced {
		b.ProducedLots = append(b.ProducedLots, model.Lot{Lot: r.Start + " → " + r.End, Kg: r.Kg})
	}
	for _, r := range pv.Raws {
		lot := r.Batch
		if lot == "" {
			lot = r.Article
		}
		b.RawLots = append(b.RawLots, model.Lot{Lot: lot, Origin: r.Origin, Kg: r.Kg})
	}
	for _, c := range pv.Chemicals {
		lot := c.Lot
		if lot == "" {
			lot = c.Product
		}
		b.ChemicalLots = append(b.ChemicalLots, model.Lot{Lot: lot, Article: c.Product})
	}
	b.TotalProducedKg = b.ProducedLots.TotalKg()
	b.TotalRawKg = b.RawLots.TotalKg()
	return b
}

// Save stores the batch of the period. The proposed code is kept when it
// is still free, otherwise the next free code of the day is taken. The
// daily sequence always ends past the stored code.
func Save(db *sqlx.DB, p Period, batchCode, expiryCode string, now time.Time) (model.BatchRecord, error) {
	pv, err := BuildPreview(db, p, now)
	if err != nil {
		return model.BatchRecord{}, err
	}
	if expiryCode == "" {
		expiryCode = pv.Summary.ExpiryCode
	}

	tx, err := db.Beginx()
	if err != nil {
		return model.BatchRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	name, prefix := sequenceName(now), codePrefix(now)
	if batchCode != "" {
		taken, err := database.BatchCodeExists(tx, batchCode)
		if err != nil {
			return model.BatchRecord{}, err
		}
		if taken {
			batchCode = ""
		}
	}
	for batchCode == "" {
		code, err := database.NextSequenceInTx(tx, name, prefix, 2)
		if err != nil {
			return model.BatchRecord{}, err
		}
		taken, err := database.BatchCodeExists(tx, code)
		if err != nil {
			return model.BatchRecord{}, err
		}
		if !taken {
			batchCode = code
		}
	}
	if err := database.ClaimSequenceCodeInTx(tx, name, prefix, batchCode); err != nil {
		return model.BatchRecord{}, err
	}

	rec := pv.Record(batchCode, expiryCode, now)
	id, err := database.InsertBatchInTx(tx, rec)
	if err != nil {
		return model.BatchRecord{}, err
	}
	rec.ID = id
	return rec, tx.Commit()
}
