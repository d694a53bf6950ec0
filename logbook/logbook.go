// Package logbook records operator messages, keeps the live shift state in
// step with START and STOP markers and turns flagged messages into todos.
package logbook

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"fewr/database"
	"fewr/model"
	"fewr/oee"
	"fewr/timefmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrStartWithoutStop rejects a START marker while the log holds no STOP.
var ErrStartWithoutStop = errors.New("You can't add a START message without a previous STOP message")

// Flag values that send the operator on to another page after posting.
const (
	WmsInboundRaw    = "IB-RAW"
	ChemInbound      = "CHEM-IB"
	BulkOutbound     = "BULK-OB"
	ChemSwitchAction = "CHEM-SWITCH"
)

// Draft is a message as typed in the form.
type Draft struct {
	User         string
	Day          string
	Time         string
	Message      string
	Calc         string
	Push         string
	Wms          string
	ChemSwitch   string
	QC           string
	Maintenance  string
	ChemIB       string
	BulkOB       string
	InfoLabels   []string
	Software     []string
	Attachments  model.Attachments
	NotebookOnly bool
}

var upper = cases.Upper(language.Und)

// NormalizeText capitalizes the first letter and ends the text with a
// full stop unless it already ends in . ! or ?.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	s = upper.String(string(r)) + s[size:]
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}

// DeltaMinutes is the time from a STOP clock time to a START clock time,
// wrapping past midnight, rounded to a tenth of a minute.
func DeltaMinutes(stopHHMM, startHHMM string) (float64, bool) {
	sh, sm, ok := oee.ParseHHMM(stopHHMM)
	if !ok {
		return 0, false
	}
	th, tm, ok := oee.ParseHHMM(startHHMM)
	if !ok {
		return 0, false
	}
	stop := sh*60 + sm
	start := th*60 + tm
	if start < stop {
		start += 24 * 60
	}
	return math.Round(float64(start-stop)*10) / 10, true
}

// CanStart reports whether a START marker is allowed now.
func CanStart(db sqlx.Queryer) (bool, error) {
	stop, err := database.GetLatestStopMessage(db)
	if err != nil {
		return false, err
	}
	return stop != nil, nil
}

// Result tells the handler what was stored and where to go next.
type Result struct {
	Message  model.Message
	Redirect string
}

// Post validates and stores a draft. A notebook-only draft lands in the
// author's notebook and nowhere else.
func Post(db *sqlx.DB, d Draft, now time.Time) (Result, error) {
	tx, err := db.Beginx()
	if err != nil {
		return Result{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lastStop *model.Message
	if d.Calc == model.CalcStart {
		lastStop, err = database.GetLatestStopMessage(tx)
		if err != nil {
			return Result{}, err
		}
		if lastStop == nil {
			return Result{}, ErrStartWithoutStop
		}
	}

	if d.Day == "" {
		d.Day = timefmt.Day(now)
	}
	m := model.Message{
		ID:          uuid.NewString(),
		UserCode:    d.User,
		Day:         d.Day,
		Time:        d.Time,
		Message:     NormalizeText(d.Message),
		InfoLabels:  model.StringList(d.InfoLabels),
		Software:    model.StringList(d.Software),
		Calc:        d.Calc,
		Push:        d.Push,
		Wms:         d.Wms,
		ChemSwitch:  d.ChemSwitch,
		QC:          d.QC,
		Maintenance: d.Maintenance,
		ChemIB:      d.ChemIB,
		BulkOB:      d.BulkOB,
		Attachments: d.Attachments,
		CreatedAt:   now,
	}
	if lastStop != nil {
		if delta, ok := DeltaMinutes(lastStop.Time, m.Time); ok {
			m.DeltaMin = &delta
		}
	}

	if d.NotebookOnly {
		if err := database.SaveNotebookEntry(tx, notebookCopy(m, d.User, now)); err != nil {
			return Result{}, err
		}
		return Result{Message: m, Redirect: "/logbook/mynotebook"}, tx.Commit()
	}

	m.MustRead = m.Push == model.PushMustRead || m.Push == model.PushSafety
	m.Archived = m.MustRead
	if err := database.InsertMessage(tx, m); err != nil {
		return Result{}, err
	}
	if err := updateShiftState(tx, m); err != nil {
		return Result{}, err
	}
	for _, t := range todosFor(m, now) {
		if err := database.InsertTodo(tx, t); err != nil {
			return Result{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("failed to commit message: %w", err)
	}
	return Result{Message: m, Redirect: redirectFor(m)}, nil
}

func updateShiftState(tx *sqlx.Tx, m model.Message) error {
	state, err := database.GetShiftState(tx)
	if err != nil || state == nil {
		return err
	}
	switch m.Calc {
	case model.CalcStop:
		state.Status = model.StatusDown
		state.LastStopHHMM = m.Time
	case model.CalcStart:
		state.Status = model.StatusUp
		if state.LastStopHHMM != "" && m.DeltaMin != nil {
			state.Downtime += int(math.Max(0, math.Floor(*m.DeltaMin)))
			state.LastStopHHMM = ""
		}
	default:
		return nil
	}
	return database.SetShiftState(tx, *state)
}

func todosFor(m model.Message, now time.Time) []model.Todo {
	var todos []model.Todo
	add := func(suffix, label, link string) {
		todos = append(todos, model.Todo{
			ID:        "todo-" + m.ID + suffix,
			UserCode:  m.UserCode,
			Label:     label,
			Link:      link,
			CreatedAt: now,
		})
	}
	if m.Wms != "" {
		link := "#"
		if m.Wms == WmsInboundRaw {
			link = "/raw/inbound-raw"
		}
		add("", m.Wms, link)
	}
	if m.ChemSwitch != "" {
		add("-chem-switch", m.ChemSwitch, "/chemicals/switch")
	}
	if m.ChemIB != "" {
		add("-chem-ib", m.ChemIB, "/chemicals/inbound")
	}
	if m.BulkOB != "" {
		add("-bulk-ob", m.BulkOB, "/bulk/registratie")
	}
	return todos
}

func redirectFor(m model.Message) string {
	switch {
	case m.Wms == WmsInboundRaw:
		return "/raw/inbound-raw"
	case m.ChemIB == ChemInbound:
		return "/chemicals/inbound"
	case m.BulkOB == BulkOutbound:
		return "/bulk/registratie"
	case m.ChemSwitch == ChemSwitchAction:
		return "/chemicals/switch"
	}
	return "/logbook/form"
}

func notebookCopy(m model.Message, owner string, now time.Time) model.NotebookEntry {
	created := m.CreatedAt
	return model.NotebookEntry{
		UserCode:    owner,
		ID:          "nb-" + m.ID,
		FromID:      m.ID,
		Author:      m.UserCode,
		Message:     m.Message,
		Time:        m.Time,
		InfoLabels:  m.InfoLabels,
		Software:    m.Software,
		Calc:        m.Calc,
		Push:        m.Push,
		Wms:         m.Wms,
		ChemSwitch:  m.ChemSwitch,
		QC:          m.QC,
		Maintenance: m.Maintenance,
		ChemIB:      m.ChemIB,
		BulkOB:      m.BulkOB,
		Attachments: m.Attachments,
		CreatedAt:   &created,
		SavedAt:     now,
	}
}
