package handler

import (
	"github.com/gofiber/fiber/v2"

	"blogapi/internal/service"
	"blogapi/internal/storage"
)

// Deps are the collaborators the routes need. Media is nil unless images live in
// the object store.
type Deps struct {
	Store        Pinger
	Blogs        service.BlogService
	Translations service.TranslationService
	Media        storage.Storage
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/", Root())
	app.Get("/health", HealthCheck(d.Store))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")

	blogs := api.Group("/blogs")
	blogs.Get("/", ListPosts(d.Blogs))
	blogs.Post("/", CreatePost(d.Blogs))
	blogs.Get("/title/:title", GetPostByTitle(d.Blogs))
	blogs.Get("/:id", GetPost(d.Blogs))
	blogs.Put("/:id", UpdatePost(d.Blogs))
	blogs.Delete("/:id", DeletePost(d.Blogs))

	api.Post("/translate", Translate(d.Translations))

	if d.Media != nil {
		app.Get("/media/*", MediaFile(d.Media))
	}
}
