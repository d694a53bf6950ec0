package team

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"fewr/app"
	"fewr/database"
	"fewr/model"
	"fewr/uploads"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TopicTypes are offered on the add topic form.
var TopicTypes = []string{"INFO", "SAFETY", "QUALITY", "PROCEDURE", "TRAINING"}

// SplitLabels reads a comma separated label field.
func SplitLabels(s string) model.StringList {
	var out model.StringList
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type topicsData struct {
	Items    []model.Topic
	Notebook map[string]bool
	User     string
}

func TopicsHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := database.GetTopics(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load topics", err)
			return
		}
		nb, err := database.GetNotebookSourceIDs(env.DB, app.UserCode(r))
		if err != nil {
			env.ServerError(w, r, "could not load notebook ids", err)
			return
		}
		env.Render(w, r, http.StatusOK, "team/topics", "TEAM - TOPICS", topicsData{Items: items, Notebook: nb, User: app.UserCode(r)})
	}
}

type addTopicData struct {
	Types      []string
	InfoLabels []string
}

func renderAddTopic(env *app.Env, w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	data := addTopicData{Types: TopicTypes, InfoLabels: env.Catalog.Get().InfoLabels}
	env.RenderError(w, r, status, "team/add-topic", "TEAM - ADD TOPIC", errMsg, data)
}

func AddTopicPageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderAddTopic(env, w, r, http.StatusOK, "")
	}
}

// AddTopicHandler stores a topic with its attachments on top of the list.
func AddTopicHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(env.Uploads.MaxRequestSize()); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			renderAddTopic(env, w, r, http.StatusBadRequest, "Could not read the form: "+err.Error())
			return
		}
		t := model.Topic{
			ID:         "T" + uuid.NewString(),
			CreatedAt:  env.Now(),
			UserCode:   app.UserCode(r),
			InfoLabels: SplitLabels(r.FormValue("infoLabels")),
			TopicType:  app.FormValue(r, "topicType"),
			Message:    r.FormValue("message"),
		}
		if t.UserCode == "" {
			t.UserCode = "TEAM"
		}
		if r.MultipartForm != nil {
			atts, err := env.Uploads.SaveAll(r.MultipartForm.File["attachments"])
			if err != nil {
				status := http.StatusBadRequest
				if !errors.Is(err, uploads.ErrNotAllowed) && !errors.Is(err, uploads.ErrTooLarge) && !errors.Is(err, uploads.ErrTooMany) {
					status = http.StatusInternalServerError
				}
				renderAddTopic(env, w, r, status, err.Error())
				return
			}
			t.Attachments = atts
		}
		if err := database.InsertTopic(env.DB, t); err != nil {
			env.ServerError(w, r, "could not store topic", err)
			return
		}
		env.Log.Info("topic added", zap.String("id", t.ID), zap.String("user", t.UserCode), zap.Int("attachments", len(t.Attachments)))
		app.Redirect(w, r, "/team/topics")
	}
}

func AcknowledgeHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		ids := r.PostForm["ids"]
		if len(ids) > 0 {
			if err := database.AcknowledgeTopics(env.DB, ids, app.UserCode(r)); err != nil {
				env.ServerError(w, r, "could not acknowledge topics", err)
				return
			}
		}
		app.Redirect(w, r, "/team/topics")
	}
}

// NotebookEntry is the copy of a topic kept in an operator's notebook.
func NotebookEntry(t model.Topic, owner string, now time.Time) model.NotebookEntry {
	created := t.CreatedAt
	return model.NotebookEntry{
		UserCode:    owner,
		ID:          "nb-topic-" + t.ID,
		FromID:      t.ID,
		Author:      t.UserCode,
		Message:     t.Message,
		InfoLabels:  t.InfoLabels,
		Software:    model.StringList{},
		Push:        model.PushTopic,
		TopicType:   t.TopicType,
		Attachments: uploads.Normalize(t.Attachments),
		CreatedAt:   &created,
		SavedAt:     now,
	}
}

// AddNotebookHandler copies a topic into the operator's notebook once.
func AddNotebookHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := app.FormValue(r, "id")
		if id == "" {
			app.RedirectBack(w, r, "/team/topics")
			return
		}
		t, err := database.GetTopic(env.DB, id)
		if err != nil {
			env.ServerError(w, r, "could not load topic", err)
			return
		}
		if t != nil {
			if err := database.SaveNotebookEntry(env.DB, NotebookEntry(*t, app.UserCode(r), env.Now())); err != nil {
				env.ServerError(w, r, "could not save notebook entry", err)
				return
			}
		}
		app.RedirectBack(w, r, "/team/topics")
	}
}

// Unread counts per operator the topics they have not acknowledged.
type Unread struct {
	Code  string
	Count int
}

func TopicStats(topics []model.Topic, operators []string) []Unread {
	out := make([]Unread, 0, len(operators))
	for _, code := range operators {
		n := 0
		for _, t := range topics {
			if !t.AckBy.Contains(code) {
				n++
			}
		}
		out = append(out, Unread{Code: code, Count: n})
	}
	return out
}

func StatsHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topics, err := database.GetTopics(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load topics", err)
			return
		}
		env.Render(w, r, http.StatusOK, "team/stats-topics", "TEAM - TOPIC STATS", TopicStats(topics, env.Catalog.Get().StatsOperators))
	}
}

func PastTopicsHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topics, err := database.GetTopics(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load topics", err)
			return
		}
		env.Render(w, r, http.StatusOK, "team/past-topics", "TEAM - PAST TOPICS", topics)
	}
}

// StatsRedirectHandler keeps the old /topics/stats address working.
func StatsRedirectHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app.Redirect(w, r, "/team/topics/stats")
	}
}
