// Package chemicals books chemical lots in, tracks the stock per article
// and records which lot is in use.
package chemicals

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"fewr/app"
	"fewr/database"
	"fewr/model"

	"go.uber.org/zap"
)

// StockOverview groups the lots per article in article order. An article
// is below alert when its total is strictly lower than the alert value.
func StockOverview(articles []model.ChemicalArticle, lots []model.ChemicalLot) []model.ChemicalStock {
	byArticle := make(map[string][]model.ChemicalLot)
	for _, l := range lots {
		byArticle[l.ArticleID] = append(byArticle[l.ArticleID], l)
	}
	out := make([]model.ChemicalStock, 0, len(articles))
	for _, a := range articles {
		batches := byArticle[a.ID]
		sort.SliceStable(batches, func(i, j int) bool { return batches[i].LotNumber < batches[j].LotNumber })
		total := 0
		for _, b := range batches {
			total += b.AvailableQuantity
		}
		if batches == nil {
			batches = []model.ChemicalLot{}
		}
		out = append(out, model.ChemicalStock{
			ArticleID:       a.ID,
			ArticleName:     a.Name,
			StockAlertValue: a.StockAlertValue,
			TotalAvailable:  total,
			IsBelowAlert:    total < a.StockAlertValue,
			Batches:         batches,
		})
	}
	return out
}

func loadStock(env *app.Env) ([]model.ChemicalStock, error) {
	articles, err := database.GetChemicalArticles(env.DB)
	if err != nil {
		return nil, err
	}
	lots, err := database.GetChemicalLots(env.DB)
	if err != nil {
		return nil, err
	}
	return StockOverview(articles, lots), nil
}

type inboundData struct {
	Articles []model.ChemicalArticle
	Lines    []model.InboundLine
}

func InboundPageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articles, err := database.GetChemicalArticles(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load chemical articles", err)
			return
		}
		lines, err := database.GetInboundLines(env.DB, app.SessionID(r))
		if err != nil {
			env.ServerError(w, r, "could not load inbound lines", err)
			return
		}
		env.Render(w, r, http.StatusOK, "chemicals/inbound", "INBOUND CHEMICALS", inboundData{Articles: articles, Lines: lines})
	}
}

// AddLineHandler puts a line in the session's inbound basket. Lines are
// checked when the basket is committed.
func AddLineHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qty, _ := strconv.Atoi(app.FormValue(r, "quantity"))
		line := model.InboundLine{
			SessionID: app.SessionID(r),
			ArticleID: app.FormValue(r, "articleId"),
			LotNumber: app.FormValue(r, "lotNumber"),
			Quantity:  qty,
		}
		if err := database.AddInboundLine(env.DB, line); err != nil {
			env.ServerError(w, r, "could not add inbound line", err)
			return
		}
		app.Redirect(w, r, "/chemicals/inbound")
	}
}

// CommitHandler books the basket into lot stock.
func CommitHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		booked, err := database.CommitInbound(env.DB, app.SessionID(r))
		if err != nil {
			env.ServerError(w, r, "could not commit inbound lines", err)
			return
		}
		env.Log.Info("chemicals booked in", zap.String("user", app.UserCode(r)), zap.Int("lines", booked))
		app.RedirectWith(w, r, "/chemicals/stock", url.Values{"msg": {fmt.Sprintf("%d line(s) booked in.", booked)}})
	}
}

func StockHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stock, err := loadStock(env)
		if err != nil {
			env.ServerError(w, r, "could not load chemical stock", err)
			return
		}
		env.Render(w, r, http.StatusOK, "chemicals/stock", "CHEMICALS STOCK", stock)
	}
}

func AlertHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, _ := strconv.Atoi(app.FormValue(r, "stockAlertValue"))
		id := r.PathValue("articleId")
		found, err := database.SetStockAlert(env.DB, id, value)
		if err != nil {
			env.ServerError(w, r, "could not set stock alert", err)
			return
		}
		if !found {
			env.NotFound(w, r)
			return
		}
		env.Log.Info("stock alert changed", zap.String("article", id), zap.Int("value", value))
		app.Redirect(w, r, "/chemicals/stock")
	}
}

// SwitchRow is one article on the switch page.
type SwitchRow struct {
	model.ChemicalStock
	Active    *model.ChemicalUsage
	Available []model.ChemicalLot
}

// SwitchRows pairs every article with its open usage block and the lots
// that still have stock.
func SwitchRows(stock []model.ChemicalStock, usage []model.ChemicalUsage) []SwitchRow {
	active := make(map[string]*model.ChemicalUsage)
	for i := range usage {
		u := &usage[i]
		if u.EndDate == nil {
			if _, seen := active[u.ArticleID]; !seen {
				active[u.ArticleID] = u
			}
		}
	}
	rows := make([]SwitchRow, 0, len(stock))
	for _, s := range stock {
		row := SwitchRow{ChemicalStock: s, Active: active[s.ArticleID]}
		for _, b := range s.Batches {
			if b.AvailableQuantity > 0 {
				row.Available = append(row.Available, b)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func renderSwitch(env *app.Env, w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	stock, err := loadStock(env)
	if err != nil {
		env.ServerError(w, r, "could not load chemical stock", err)
		return
	}
	usage, err := database.GetChemicalUsage(env.DB)
	if err != nil {
		env.ServerError(w, r, "could not load chemical usage", err)
		return
	}
	env.RenderError(w, r, status, "chemicals/switch", "CHEMICALS SWITCH", errMsg, SwitchRows(stock, usage))
}

func SwitchPageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderSwitch(env, w, r, http.StatusOK, "")
	}
}

// SwitchHandler starts using another lot of an article.
func SwitchHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		article := app.FormValue(r, "articleId")
		lot := app.FormValue(r, "newLotNumber")
		err := database.SwitchLot(env.DB, article, lot, env.Now())
		if errors.Is(err, database.ErrLotUnavailable) {
			env.Log.Warn("chemical switch refused", zap.String("article", article), zap.String("lot", lot))
			renderSwitch(env, w, r, http.StatusBadRequest, fmt.Sprintf("Lot %q of %s is not available.", lot, article))
			return
		}
		if err != nil {
			env.ServerError(w, r, "could not switch chemical lot", err)
			return
		}
		env.Log.Info("chemical lot switched", zap.String("article", article), zap.String("lot", lot), zap.String("user", app.UserCode(r)))
		app.Redirect(w, r, "/chemicals/switch")
	}
}

func UsedHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		used, err := database.GetChemicalUsage(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load chemical usage", err)
			return
		}
		env.Render(w, r, http.StatusOK, "chemicals/used", "USED OVERVIEW", used)
	}
}
