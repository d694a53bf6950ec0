package logbook

import (
	"errors"
	"net/http"

	"fewr/app"
	"fewr/database"
	"fewr/model"
	"fewr/timefmt"
	"fewr/uploads"

	"go.uber.org/zap"
)

const formPage = "logbook/form"

// Options offered by the message form.
var (
	CalcOptions  = []string{model.CalcStart, model.CalcStop}
	PushOptions  = []string{model.PushMustRead, model.PushSafety}
	WmsOptions   = []string{WmsInboundRaw, "IB-CHEM", "OB-BB", "OB-BULK"}
	SoftwareTags = []string{"SAP", "WMS", "SCADA", "PMS"}
)

type formOld struct {
	Calc    string
	Time    string
	Message string
}

type formData struct {
	Old        formOld
	InfoLabels []string
	Calcs      []string
	Pushes     []string
	Wms        []string
	Software   []string
}

func (h formData) with(old formOld) formData {
	h.Old = old
	return h
}

func newFormData(env *app.Env) formData {
	return formData{
		InfoLabels: env.Catalog.Get().InfoLabels,
		Calcs:      CalcOptions,
		Pushes:     PushOptions,
		Wms:        WmsOptions,
		Software:   SoftwareTags,
	}
}

func FormPageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := newFormData(env).with(formOld{Time: timefmt.Clock(env.Clock())})
		env.Render(w, r, http.StatusOK, formPage, "LOGBOOK FORM", data)
	}
}

// SubmitHandler stores a posted message with its attachments.
func SubmitHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(env.Uploads.MaxRequestSize()); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			env.RenderError(w, r, http.StatusBadRequest, formPage, "LOGBOOK FORM", "Could not read the form: "+err.Error(), newFormData(env))
			return
		}

		d := Draft{
			User:         app.UserCode(r),
			Day:          timefmt.Day(env.Clock()),
			Time:         app.FormValue(r, "timeHHMM", "when"),
			Message:      r.FormValue("message"),
			Calc:         app.FormValue(r, "labelCalc", "calc"),
			Push:         app.FormValue(r, "push"),
			Wms:          app.FormValue(r, "wms"),
			ChemSwitch:   app.FormValue(r, "chemswitch"),
			QC:           app.FormValue(r, "qc"),
			Maintenance:  app.FormValue(r, "maintenance"),
			ChemIB:       app.FormValue(r, "chemib"),
			BulkOB:       app.FormValue(r, "bulkob"),
			InfoLabels:   app.FormList(r, "infoLabels"),
			Software:     app.FormList(r, "softwareLabels"),
			NotebookOnly: app.FormFlag(r, "notebookOnly"),
		}
		if d.Time == "" {
			d.Time = timefmt.Clock(env.Clock())
		}
		old := formOld{Calc: d.Calc, Time: d.Time, Message: d.Message}

		if d.Calc == model.CalcStart {
			ok, err := CanStart(env.DB)
			if err != nil {
				env.ServerError(w, r, "could not check for a STOP message", err)
				return
			}
			if !ok {
				env.RenderError(w, r, http.StatusBadRequest, formPage, "LOGBOOK FORM", ErrStartWithoutStop.Error(), newFormData(env).with(old))
				return
			}
		}

		if r.MultipartForm != nil {
			atts, err := env.Uploads.SaveAll(r.MultipartForm.File["attachments"])
			if err != nil {
				status := http.StatusBadRequest
				if !errors.Is(err, uploads.ErrNotAllowed) && !errors.Is(err, uploads.ErrTooLarge) && !errors.Is(err, uploads.ErrTooMany) {
					status = http.StatusInternalServerError
				}
				env.RenderError(w, r, status, formPage, "LOGBOOK FORM", err.Error(), newFormData(env).with(old))
				return
			}
			d.Attachments = atts
		}

		res, err := Post(env.DB, d, env.Now())
		if errors.Is(err, ErrStartWithoutStop) {
			env.RenderError(w, r, http.StatusBadRequest, formPage, "LOGBOOK FORM", err.Error(), newFormData(env).with(old))
			return
		}
		if err != nil {
			env.ServerError(w, r, "could not store message", err)
			return
		}

		if !d.NotebookOnly {
			env.Metrics.RecordMessage(res.Message.Calc)
		}
		env.Log.Info("message logged",
			zap.String("id", res.Message.ID),
			zap.String("user", d.User),
			zap.String("calc", d.Calc),
			zap.Bool("notebookOnly", d.NotebookOnly),
			zap.Int("attachments", len(d.Attachments)))
		app.Redirect(w, r, res.Redirect)
	}
}

type listData struct {
	Items    []model.Message
	Notebook map[string]bool
	Ack      bool
}

func listHandler(env *app.Env, page, title string, load func() ([]model.Message, error), ack bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := load()
		if err != nil {
			env.ServerError(w, r, "could not load messages", err)
			return
		}
		nb, err := database.GetNotebookSourceIDs(env.DB, app.UserCode(r))
		if err != nil {
			env.ServerError(w, r, "could not load notebook ids", err)
			return
		}
		env.Render(w, r, http.StatusOK, page, title, listData{Items: items, Notebook: nb, Ack: ack})
	}
}

func MessagesHandler(env *app.Env) http.HandlerFunc {
	return listHandler(env, "logbook/messages", "MESSAGES", func() ([]model.Message, error) {
		return database.GetMessages(env.DB)
	}, false)
}

func MustReadHandler(env *app.Env) http.HandlerFunc {
	return listHandler(env, "logbook/mustread", "MUST-READ", func() ([]model.Message, error) {
		return database.GetMustReadMessages(env.DB)
	}, true)
}

func ArchiveHandler(env *app.Env) http.HandlerFunc {
	return listHandler(env, "logbook/archive", "ARCHIVE", func() ([]model.Message, error) {
		return database.GetArchivedMessages(env.DB)
	}, false)
}

func TodoHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := database.GetTodos(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load todos", err)
			return
		}
		env.Render(w, r, http.StatusOK, "logbook/todo", "TODO", items)
	}
}

func NotebookHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := database.GetNotebook(env.DB, app.UserCode(r))
		if err != nil {
			env.ServerError(w, r, "could not load notebook", err)
			return
		}
		env.Render(w, r, http.StatusOK, "logbook/mynotebook", "MY NOTEBOOK", items)
	}
}

// DeleteMessageHandler removes a message from the log and every notebook.
func DeleteMessageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := database.DeleteMessageEverywhere(env.DB, id); err != nil {
			env.ServerError(w, r, "could not delete message", err)
			return
		}
		env.Log.Info("message deleted", zap.String("id", id), zap.String("user", app.UserCode(r)))
		app.RedirectBack(w, r, "/logbook/messages")
	}
}

func DeleteTodoHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := database.DeleteTodo(env.DB, r.PathValue("id"))
		if err != nil {
			env.Log.Error("could not delete todo", zap.Error(err))
			app.WriteJSONError(w, "could not delete todo", http.StatusInternalServerError)
			return
		}
		status := http.StatusOK
		if !removed {
			status = http.StatusNotFound
		}
		app.WriteJSON(w, status, map[string]bool{"ok": removed})
	}
}

// AddNotebookHandler copies a message into the operator's notebook. An
// unknown id is ignored.
func AddNotebookHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := database.GetMessageByID(env.DB, r.FormValue("id"))
		if err != nil {
			env.ServerError(w, r, "could not load message", err)
			return
		}
		if m != nil {
			e := notebookCopy(*m, app.UserCode(r), env.Now())
			e.Attachments = uploads.Normalize(m.Attachments)
			if err := database.SaveNotebookEntry(env.DB, e); err != nil {
				env.ServerError(w, r, "could not save notebook entry", err)
				return
			}
		}
		app.RedirectBack(w, r, "/logbook/messages")
	}
}

func RemoveNotebookHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := database.RemoveNotebookEntry(env.DB, app.UserCode(r), r.FormValue("id")); err != nil {
			env.ServerError(w, r, "could not remove notebook entry", err)
			return
		}
		app.RedirectBack(w, r, "/logbook/mynotebook")
	}
}

// AcknowledgeHandler drops the checked messages from the must-read list.
func AcknowledgeHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		ids := r.PostForm["ids"]
		if len(ids) == 0 {
			app.RedirectBack(w, r, "/logbook/mustread")
			return
		}
		if err := database.AcknowledgeMustRead(env.DB, ids); err != nil {
			env.ServerError(w, r, "could not acknowledge messages", err)
			return
		}
		app.Redirect(w, r, "/logbook/mustread")
	}
}
