package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/portfolio-site/backend/blog"
	"github.com/portfolio-site/backend/errs"
	"github.com/portfolio-site/backend/taxonomy"
)

type blogPostHandler struct {
	responder     Responder
	logger        zerolog.Logger
	service       *blog.Service
	maxImageBytes int64
}

func newBlogPostHandler(service *blog.Service, maxImageBytes int64) blogPostHandler {
	logger := log.With().Str("handlerName", "blogPostHandler").Logger()

	return blogPostHandler{
		responder:     NewResponder(logger),
		logger:        logger,
		service:       service,
		maxImageBytes: maxImageBytes,
	}
}

// getAllBlogPosts lists posts, newest first
// @Summary List blog posts
// @Tags Blog Posts
// @Produce json
// @Param category query string false "Exact category"
// @Param published query bool false "Publish state (admin only for false)"
// @Success 200 {object} listResponse
// @Router /api/blogs [get]
func (h blogPostHandler) getAllBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter blog.Filter
		query := r.URL.Query()
		if category := query.Get("category"); category != "" {
			filter.Category = &category
		}
		if raw := query.Get("published"); raw != "" {
			published, err := parsePublished(raw)
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			filter.Published = &published
		}

		blogPosts, err := h.service.List(r.Context(), ctxGetCapability(r.Context()), filter)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, listResponse{Success: true, Count: len(blogPosts), Data: blogPosts})
	}
}

// getBlogPost returns one post and counts the view
// @Summary Get blog post
// @Tags Blog Posts
// @Produce json
// @Param id path string true "Blog Post ID" format(uuid)
// @Success 200 {object} itemResponse
// @Failure 404 {object} ErrorResponse "Blog not found"
// @Router /api/blogs/{id} [get]
func (h blogPostHandler) getBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogPostID, ok := h.pathID(w, r)
		if !ok {
			return
		}

		blogPost, err := h.service.GetByID(r.Context(), ctxGetCapability(r.Context()), blogPostID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, itemResponse{Success: true, Data: blogPost})
	}
}

// getBlogPostsByCategory lists published posts of one category
// @Summary List blog posts by category
// @Tags Blog Posts
// @Produce json
// @Param category path string true "Exact, case-sensitive category"
// @Success 200 {object} listResponse
// @Router /api/blogs/category/{category} [get]
func (h blogPostHandler) getBlogPostsByCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		if unescaped, err := url.PathUnescape(category); err == nil {
			category = unescaped
		}

		blogPosts, err := h.service.GetByCategory(r.Context(), category)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, listResponse{Success: true, Count: len(blogPosts), Data: blogPosts})
	}
}

// createBlogPost creates a post from a multipart form (with optional image) or JSON
// @Summary Create blog post
// @Tags Blog Posts
// @Accept multipart/form-data,json
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param excerpt formData string true "Excerpt (HTML)"
// @Param content formData string true "Content (HTML)"
// @Param category formData string true "Category"
// @Param tags formData string false "Comma separated tags"
// @Param author formData string false "Author"
// @Param published formData bool false "Publish state"
// @Param publishDate formData string false "YYYY-MM-DD"
// @Param publishTime formData string false "HH:MM"
// @Param image formData file false "Cover image"
// @Success 201 {object} itemResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse "Image upload failed"
// @Router /api/blogs [post]
func (h blogPostHandler) createBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, image, err := decodePost(w, r, h.maxImageBytes)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPost, err := h.service.Create(r.Context(), ctxGetCapability(r.Context()), input, image)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, itemResponse{
			Success: true,
			Message: "Blog created successfully",
			Data:    blogPost,
		})
	}
}

// updateBlogPost applies the supplied fields to an existing post
// @Summary Update blog post
// @Tags Blog Posts
// @Accept multipart/form-data,json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Blog Post ID" format(uuid)
// @Param image formData file false "Replacement cover image"
// @Success 200 {object} itemResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Blog not found"
// @Router /api/blogs/{id} [put]
func (h blogPostHandler) updateBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogPostID, ok := h.pathID(w, r)
		if !ok {
			return
		}
		input, image, err := decodePost(w, r, h.maxImageBytes)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPost, err := h.service.Update(r.Context(), ctxGetCapability(r.Context()), blogPostID, input, image)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, itemResponse{
			Success: true,
			Message: "Blog updated successfully",
			Data:    blogPost,
		})
	}
}

// deleteBlogPost permanently removes a post
// @Summary Delete blog post
// @Tags Blog Posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Blog Post ID" format(uuid)
// @Success 200 {object} messageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Blog not found"
// @Router /api/blogs/{id} [delete]
func (h blogPostHandler) deleteBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogPostID, ok := h.pathID(w, r)
		if !ok {
			return
		}

		if err := h.service.Delete(r.Context(), ctxGetCapability(r.Context()), blogPostID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, messageResponse{Success: true, Message: "Blog deleted successfully"})
	}
}

// uploadImage stores an inline content image and returns its URL
// @Summary Upload content image
// @Tags Blog Posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image (jpg, png, gif, webp)"
// @Success 200 {object} uploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse "Image upload failed"
// @Router /api/blogs/upload-image [post]
func (h blogPostHandler) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		capability := ctxGetCapability(r.Context())
		if err := capability.RequireAdmin(); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		image, err := decodeImage(w, r, h.maxImageBytes)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		imageURL, err := h.service.UploadContentImage(r.Context(), capability, image)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, uploadResponse{Success: true, ImageURL: imageURL})
	}
}

// getTags lists tags with usage counts
// @Summary List tags
// @Tags Blog Posts
// @Produce json
// @Success 200 {object} listResponse
// @Router /api/blogs/tags [get]
func (h blogPostHandler) getTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := h.service.Tags(r.Context(), ctxGetCapability(r.Context()))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, listResponse{Success: true, Count: len(tags), Data: tags})
	}
}

// getCategories lists catalog labels, optionally filtered by ?q=
// @Summary List categories
// @Tags Blog Posts
// @Produce json
// @Param q query string false "Case-insensitive substring"
// @Success 200 {object} listResponse
// @Router /api/blogs/categories [get]
func (h blogPostHandler) getCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labels := taxonomy.Search(r.URL.Query().Get("q"))
		h.responder.WriteJSON(w, listResponse{Success: true, Count: len(labels), Data: labels})
	}
}

func (h blogPostHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	if raw == "" {
		h.responder.WriteError(w, errs.NewMissingRequiredFieldError("id"))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		// a malformed id names no post
		h.responder.WriteError(w, errs.NewNotFound("Blog"))
		return uuid.Nil, false
	}
	return id, true
}
