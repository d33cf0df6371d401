package internal

import (
	"net/http"
	"spinlog/internal/controllers"
	"spinlog/internal/providers"
	"spinlog/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, adminController *controllers.AdminController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/api/live", cors(apiController.GetLive))
	routers.Get("/api/history", cors(apiController.GetHistory))
	routers.Get("/api/history/archive", cors(apiController.GetArchive))
	routers.Get("/api/achievements", cors(apiController.GetAchievements))
	routers.Get("/api/goals", cors(apiController.GetGoals))
	routers.Get("/api/insights", cors(apiController.GetInsights))

	routers.Get("/trigger", http.HandlerFunc(adminController.Trigger))
	routers.Post("/clear", http.HandlerFunc(adminController.Clear))
	routers.Post("/backup", http.HandlerFunc(adminController.Backup))
	return routers
}

// cors marks the read-only API endpoints as publicly readable. The frontend
// is served from a different origin than the service.
func cors(handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		handler(w, r)
	})
}
