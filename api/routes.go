package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setupFrontendRoutes mounts the blog API. Reads are open to anonymous callers; the service
// rejects mutations without an admin capability.
func setupFrontendRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware, requestLogger func(http.Handler) http.Handler) {
	r.Get("/", root())
	r.Get("/health", handlers.healthHandler.health())

	r.Route("/api/blogs", func(r chi.Router) {
		r.Use(requestLogger)
		r.Use(authMiddleware.identify)

		r.Get("/", handlers.blogPostHandler.getAllBlogPosts())
		r.Get("/categories", handlers.blogPostHandler.getCategories())
		r.Get("/tags", handlers.blogPostHandler.getTags())
		r.Get("/category/{category}", handlers.blogPostHandler.getBlogPostsByCategory())
		r.Get("/{id}", handlers.blogPostHandler.getBlogPost())

		r.Post("/", handlers.blogPostHandler.createBlogPost())
		r.Post("/upload-image", handlers.blogPostHandler.uploadImage())
		r.Put("/{id}", handlers.blogPostHandler.updateBlogPost())
		r.Delete("/{id}", handlers.blogPostHandler.deleteBlogPost())
	})
}

// setupUploadRoutes serves images written by the local asset store.
func setupUploadRoutes(r chi.Router, handlers *routeHandlers) {
	if handlers.uploadHandler.uploads == nil {
		return
	}
	r.Get("/uploads/*", handlers.uploadHandler.serve())
}
