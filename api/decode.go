package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/portfolio-site/backend/assets"
	"github.com/portfolio-site/backend/blog"
	"github.com/portfolio-site/backend/errs"
	"github.com/portfolio-site/backend/models"
)

// formFieldsBytes is the allowance for text fields on top of the image limit.
const formFieldsBytes = 2 << 20

// postPayload is the JSON form of a post. Tags may be a list or a comma separated string, and
// published a bool or the same words a form checkbox sends.
type postPayload struct {
	Title       *string         `json:"title"`
	Excerpt     *string         `json:"excerpt"`
	Content     *string         `json:"content"`
	Image       *string         `json:"image"`
	Category    *string         `json:"category"`
	Tags        json.RawMessage `json:"tags"`
	Author      *string         `json:"author"`
	Published   json.RawMessage `json:"published"`
	PublishDate *string         `json:"publishDate"`
	PublishTime *string         `json:"publishTime"`
}

// decodePost reads a post from a multipart, urlencoded or JSON body. Only fields present in the
// request are set on the returned input.
func decodePost(w http.ResponseWriter, r *http.Request, maxImageBytes int64) (blog.PostInput, *assets.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+formFieldsBytes)

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return blog.PostInput{}, nil, errs.NewMalformedPayloadError("request", err)
		}
		mediaType = parsed
	}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxImageBytes + formFieldsBytes); err != nil {
			return blog.PostInput{}, nil, bodyError("multipart", err, maxImageBytes)
		}
		in, err := postFromForm(r.MultipartForm.Value)
		if err != nil {
			return blog.PostInput{}, nil, err
		}
		image, err := formImage(r, "image")
		if err != nil {
			return blog.PostInput{}, nil, err
		}
		return in, image, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return blog.PostInput{}, nil, bodyError("form", err, maxImageBytes)
		}
		in, err := postFromForm(r.PostForm)
		return in, nil, err

	case "application/json", "":
		var payload postPayload
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&payload); err != nil {
			if errors.Is(err, io.EOF) {
				return blog.PostInput{}, nil, nil
			}
			return blog.PostInput{}, nil, bodyError("JSON", err, maxImageBytes)
		}
		in, err := payload.input()
		return in, nil, err
	}

	return blog.PostInput{}, nil, errs.NewBadRequestError("unsupported content type " + mediaType)
}

// decodeImage reads the single "image" file of an upload-image request.
func decodeImage(w http.ResponseWriter, r *http.Request, maxImageBytes int64) (assets.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+formFieldsBytes)
	if err := r.ParseMultipartForm(maxImageBytes + formFieldsBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return assets.Upload{}, errs.NewMissingRequiredFieldError("image")
		}
		return assets.Upload{}, bodyError("multipart", err, maxImageBytes)
	}
	image, err := formImage(r, "image")
	if err != nil {
		return assets.Upload{}, err
	}
	if image == nil {
		return assets.Upload{}, errs.NewMissingRequiredFieldError("image")
	}
	return *image, nil
}

func postFromForm(values map[string][]string) (blog.PostInput, error) {
	var in blog.PostInput
	field := func(name string) *string {
		if v, ok := values[name]; ok && len(v) > 0 {
			s := v[0]
			return &s
		}
		return nil
	}

	in.Title = field("title")
	in.Excerpt = field("excerpt")
	in.Content = field("content")
	in.Image = field("image")
	in.Category = field("category")
	in.Author = field("author")
	in.PublishDate = field("publishDate")
	in.PublishTime = field("publishTime")
	if raw := field("tags"); raw != nil {
		tags := models.SplitTags(*raw)
		in.Tags = &tags
	}
	if raw := field("published"); raw != nil {
		published, err := parsePublished(*raw)
		if err != nil {
			return in, err
		}
		in.Published = &published
	}
	return in, nil
}

func (p postPayload) input() (blog.PostInput, error) {
	in := blog.PostInput{
		Title:       p.Title,
		Excerpt:     p.Excerpt,
		Content:     p.Content,
		Image:       p.Image,
		Category:    p.Category,
		Author:      p.Author,
		PublishDate: p.PublishDate,
		PublishTime: p.PublishTime,
	}
	if len(p.Published) > 0 && string(p.Published) != "null" {
		published, err := publishedFromJSON(p.Published)
		if err != nil {
			return in, err
		}
		in.Published = &published
	}
	if len(p.Tags) == 0 || string(p.Tags) == "null" {
		return in, nil
	}

	var list []string
	if err := json.Unmarshal(p.Tags, &list); err == nil {
		in.Tags = &list
		return in, nil
	}
	var joined string
	if err := json.Unmarshal(p.Tags, &joined); err != nil {
		return in, errs.NewInvalidFieldError("tags", "expected a list or a comma separated string")
	}
	tags := models.SplitTags(joined)
	in.Tags = &tags
	return in, nil
}

func publishedFromJSON(raw json.RawMessage) (bool, error) {
	var published bool
	if err := json.Unmarshal(raw, &published); err == nil {
		return published, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return false, errs.NewInvalidFieldError("published", "expected true or false")
	}
	return parsePublished(text)
}

// parsePublished accepts what HTML forms and fetch clients send for a checkbox.
func parsePublished(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	published, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, errs.NewInvalidFieldError("published", "expected true or false")
	}
	return published, nil
}

func formImage(r *http.Request, name string) (*assets.Upload, error) {
	file, header, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewMalformedPayloadError("multipart", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errs.NewMalformedPayloadError("multipart", err)
	}
	return &assets.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func bodyError(kind string, err error, maxImageBytes int64) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		return errs.NewMaxBodySizeExceededError(maxImageBytes + formFieldsBytes)
	}
	return errs.NewMalformedPayloadError(kind, err)
}
