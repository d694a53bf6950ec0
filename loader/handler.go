package loader

import (
	"fmt"
	"net/http"

	"fewr/app"
	"fewr/catalog"

	"go.uber.org/zap"
)

// ReloadCatalogHandler reads the catalog again, syncs its users and
// chemical articles into the database and makes it the catalog in use.
func ReloadCatalogHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := env.Cfg.Catalog.Path
		env.Log.Info("catalog reload requested", zap.String("path", path), zap.String("user", app.UserCode(r)))

		cat, err := catalog.Load(path)
		if err != nil {
			env.Log.Error("catalog reload failed", zap.Error(err))
			app.WriteJSONError(w, fmt.Sprintf("failed to load catalog: %v", err), http.StatusBadRequest)
			return
		}
		if err := SyncCatalog(env.DB, cat, env.Log, env.BcryptCost); err != nil {
			env.Log.Error("catalog sync failed", zap.Error(err))
			app.WriteJSONError(w, "failed to synchronize catalog", http.StatusInternalServerError)
			return
		}
		env.Catalog.Set(cat)

		app.WriteJSON(w, http.StatusOK, map[string]any{
			"message":   "Catalog reloaded.",
			"users":     len(cat.Users),
			"chemicals": len(cat.Chemicals),
		})
	}
}
