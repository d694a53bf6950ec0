package main

import (
	"net/http"

	"fewr/analyses"
	"fewr/app"
	"fewr/auth"
	"fewr/batch"
	"fewr/bb"
	"fewr/bulk"
	"fewr/chemicals"
	"fewr/loader"
	"fewr/logbook"
	"fewr/raw"
	"fewr/render"
	"fewr/shifts"
	"fewr/team"
)

// SetupRoutes registers every page on mux. Everything except the login
// page, static assets and metrics needs a session.
func SetupRoutes(mux *http.ServeMux, env *app.Env, limiter *auth.Limiter) {
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, auth.RequireAuth(env, h))
	}
	redirect := func(to string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { app.Redirect(w, r, to) }
	}

	mux.Handle("GET /static/", render.StaticHandler())
	mux.HandleFunc("GET /login", auth.LoginPageHandler(env))
	mux.HandleFunc("POST /login", auth.LoginHandler(env, limiter))
	mux.HandleFunc("POST /logout", auth.LogoutHandler(env))
	mux.Handle("GET /uploads/", auth.RequireAuth(env, env.Uploads.Handler()))
	handle("/", auth.HomeHandler(env))

	// LOGBOOK
	handle("GET /logbook", redirect("/logbook/form"))
	handle("GET /logbook/form", logbook.FormPageHandler(env))
	handle("POST /logbook/form", logbook.SubmitHandler(env))
	handle("GET /logbook/messages", logbook.MessagesHandler(env))
	handle("GET /logbook/mustread", logbook.MustReadHandler(env))
	handle("GET /logbook/archive", logbook.ArchiveHandler(env))
	handle("GET /logbook/todo", logbook.TodoHandler(env))
	handle("GET /logbook/mynotebook", logbook.NotebookHandler(env))
	handle("POST /logbook/message/{id}/delete", logbook.DeleteMessageHandler(env))
	handle("POST /logbook/todo/{id}/delete", logbook.DeleteTodoHandler(env))
	handle("POST /logbook/add-notebook", logbook.AddNotebookHandler(env))
	handle("POST /logbook/remove-notebook", logbook.RemoveNotebookHandler(env))
	handle("POST /logbook/acknowledge", logbook.AcknowledgeHandler(env))

	// SHIFTS
	handle("GET /shifts/start", shifts.StartPageHandler(env))
	handle("POST /shifts/start", shifts.StartHandler(env))
	handle("GET /shifts/stop", redirect("/shifts/stop/step1"))
	handle("GET /shifts/stop/step1", shifts.Step1PageHandler(env))
	handle("POST /shifts/stop/step1", shifts.Step1Handler(env))
	handle("GET /shifts/stop/step2-produced", shifts.Step2PageHandler(env))
	handle("POST /shifts/stop/step2-produced", shifts.Step2Handler(env))
	handle("GET /shifts/stop/step3", shifts.Step3Handler(env))
	handle("POST /shifts/stop/step3", shifts.Step3Handler(env))
	handle("POST /shifts/stop/confirm-oee", shifts.ConfirmOEEHandler(env))
	handle("GET /shifts/debug-bulk-bb", shifts.DebugHandler(env))
	handle("GET /shifts/overview", shifts.OverviewHandler(env))

	// RAW MATERIALS
	handle("GET /raw/inbound-raw", raw.InboundPageHandler(env))
	handle("POST /raw/inbound-raw", raw.InboundHandler(env))
	handle("GET /raw/inbound", raw.InboundAliasHandler(env))
	handle("GET /raw/overview", raw.OverviewHandler(env))
	handle("GET /raw/labo/{id}", raw.LaboPageHandler(env))
	handle("POST /raw/labo/{id}", raw.LaboHandler(env))
	handle("GET /raw/filter", raw.FilterRedirectHandler(env))

	// CHEMICALS
	handle("GET /chemicals/inbound", chemicals.InboundPageHandler(env))
	handle("POST /chemicals/inbound/add-line", chemicals.AddLineHandler(env))
	handle("POST /chemicals/inbound/commit", chemicals.CommitHandler(env))
	handle("GET /chemicals/stock", chemicals.StockHandler(env))
	handle("POST /chemicals/stock/{articleId}/alert", chemicals.AlertHandler(env))
	handle("GET /chemicals/switch", chemicals.SwitchPageHandler(env))
	handle("POST /chemicals/switch", chemicals.SwitchHandler(env))
	handle("GET /chemicals/used", chemicals.UsedHandler(env))
	handle("GET /chemicals/used-overview", chemicals.UsedHandler(env))

	// BATCH
	handle("GET /bb/batch", batch.CreationPageHandler(env))
	handle("POST /bb/batch", batch.PreviewHandler(env))
	handle("POST /bb/batch/save", batch.SaveHandler(env))
	handle("GET /bb/batch-overview", batch.OverviewHandler(env))
	handle("GET /bb/batch/{id}", batch.DetailHandler(env))

	// BB WAREHOUSING
	handle("GET /bb/discharge", bb.DischargePageHandler(env))
	handle("POST /bb/discharge/save", bb.SaveDischargeHandler(env))
	handle("POST /bb/discharge/print-label", bb.PrintLabelHandler(env))
	handle("GET /bb/discharge-overview", bb.DischargeOverviewHandler(env))
	handle("GET /bb/allocation", bb.AllocationPageHandler(env))
	handle("POST /bb/allocation/allocate", bb.AllocateHandler(env))
	handle("GET /bb/loading", bb.LoadingHandler(env))
	handle("POST /bb/loading/confirm", bb.ConfirmLoadingHandler(env))
	handle("GET /bb/stock", bb.StockHandler(env))
	handle("GET /bb/debug-discharges", bb.DebugHandler(env))

	// OUTBOUND BULK
	handle("GET /bulk/registratie", bulk.FormPageHandler(env))
	handle("POST /bulk/registratie", bulk.RegisterHandler(env))
	handle("GET /bulk/all", bulk.OverviewHandler(env))

	// ANALYSES
	handle("GET /analyses", analyses.IndexHandler(env))
	handle("GET /analyses/overview-oee", analyses.OverviewOEEHandler(env))
	handle("GET /analyses/production", analyses.ProductionHandler(env))
	handle("GET /analyses/filter", analyses.RawFilterHandler(env))
	handle("GET /analyses/messages-filter", analyses.MessagesFilterHandler(env))

	// TEAM
	handle("GET /team/topics", team.TopicsHandler(env))
	handle("GET /team/topics/add", team.AddTopicPageHandler(env))
	handle("POST /team/topics/add", team.AddTopicHandler(env))
	handle("POST /team/topics/acknowledge", team.AcknowledgeHandler(env))
	handle("POST /team/topics/add-notebook", team.AddNotebookHandler(env))
	handle("GET /team/topics/stats", team.StatsHandler(env))
	handle("GET /team/topics/past", team.PastTopicsHandler(env))
	handle("GET /topics/stats", team.StatsRedirectHandler(env))
	handle("GET /team/schedule", team.ScheduleHandler(env))
	handle("POST /team/schedule/mark-absent", team.MarkAbsentHandler(env))
	handle("GET /team/absences", team.AbsencesHandler(env))
	handle("POST /team/absences/fill", team.FillCoverHandler(env))
	handle("GET /team/replacements", team.ReplacementsHandler(env))
	handle("POST /team/replacements/undo", team.UndoReplacementHandler(env))
	handle("GET /team/work-performance", team.WorkPerformanceHandler(env))
	handle("GET /team/export", team.ExportHandler(env))

	handle("POST /admin/catalog/reload", loader.ReloadCatalogHandler(env))
}
