package handler

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"blogapi/internal/media"
	"blogapi/internal/service"
)

type messageResponse struct {
	Message string `json:"message"`
}

// parseTags decodes the JSON array sent in the "tags" form field. Blank means no tags.
func parseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, errMalformedTags
	}
	if tags == nil {
		return []string{}, nil
	}
	return tags, nil
}

// bodyField looks fields up in the multipart or url-encoded body only. c.FormValue
// would also fall back to the query string.
func bodyField(c *fiber.Ctx) func(string) string {
	if form, err := c.MultipartForm(); err == nil {
		return func(key string) string {
			if v := form.Value[key]; len(v) > 0 {
				return v[0]
			}
			return ""
		}
	}
	args := c.Request().PostArgs()
	return func(key string) string { return string(args.Peek(key)) }
}

// postInput reads the form fields shared by create and update.
func postInput(c *fiber.Ctx) (service.PostInput, error) {
	field := bodyField(c)
	in := service.PostInput{
		Title:      field("title"),
		TitleEng:   field("titleEng"),
		Content:    field("content"),
		ContentEng: field("contentEng"),
	}
	tags, err := parseTags(field("tags"))
	if err != nil {
		return in, err
	}
	in.Tags = tags
	return in, nil
}

// readForm validates the text fields before reporting malformed tags, so a request
// missing title or content is always a 400.
func readForm(c *fiber.Ctx) (service.PostInput, error) {
	in, tagsErr := postInput(c)
	if err := in.Validate(); err != nil {
		return in, err
	}
	return in, tagsErr
}

// imageFile returns the optional "image" part. Url-encoded bodies carry no file.
// The returned closer must always be called.
func imageFile(c *fiber.Ctx) (*media.File, func(), error) {
	noop := func() {}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, nil
	}
	files := form.File["image"]
	if len(files) == 0 {
		return nil, noop, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &media.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}

// ListPosts godoc
// @Summary      List posts
// @Description  Every post, newest first. No pagination.
// @Tags         blogs
// @Produce      json
// @Success      200  {array}   model.BlogPost
// @Failure      500  {object}  errorPayload
// @Router       /api/blogs [get]
func ListPosts(svc service.BlogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(items)
	}
}

// CreatePost godoc
// @Summary      Create a post
// @Tags         blogs
// @Accept       multipart/form-data
// @Produce      json
// @Param        title       formData  string  true   "Title in the primary language"
// @Param        content     formData  string  true   "Content in the primary language"
// @Param        titleEng    formData  string  false  "English title"
// @Param        contentEng  formData  string  false  "English content"
// @Param        tags        formData  string  false  "JSON array of strings"
// @Param        image       formData  file    false  "JPEG, PNG or WEBP"
// @Success      201  {object}  model.BlogPost
// @Failure      400  {object}  errorPayload
// @Failure      413  {object}  errorPayload
// @Failure      500  {object}  errorPayload
// @Router       /api/blogs [post]
func CreatePost(svc service.BlogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := readForm(c)
		if err != nil {
			return respondError(c, err)
		}
		img, closeImg, err := imageFile(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_IMAGE", "cannot open uploaded file")
		}
		defer closeImg()

		post, err := svc.Create(c.UserContext(), in, img)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	}
}

// GetPost godoc
// @Summary      Get a post by id
// @Tags         blogs
// @Produce      json
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  model.BlogPost
// @Failure      404  {object}  errorPayload
// @Router       /api/blogs/{id} [get]
func GetPost(svc service.BlogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		post, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(post)
	}
}

// GetPostByTitle godoc
// @Summary      Get a post by title slug
// @Description  Hyphens become spaces, then the slug is percent-decoded. The oldest matching post wins.
// @Tags         blogs
// @Produce      json
// @Param        title  path      string  true  "Title slug, e.g. my-post-title"
// @Success      200    {object}  model.BlogPost
// @Failure      404    {object}  errorPayload
// @Router       /api/blogs/title/{title} [get]
func GetPostByTitle(svc service.BlogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		post, err := svc.GetByTitleSlug(c.UserContext(), c.Params("title"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(post)
	}
}

// UpdatePost godoc
// @Summary      Replace a post
// @Description  Title, content and tags are replaced. The image changes only when a new file is sent.
// @Tags         blogs
// @Accept       multipart/form-data
// @Produce      json
// @Param        id          path      string  true   "Post id"
// @Param        title       formData  string  true   "Title in the primary language"
// @Param        content     formData  string  true   "Content in the primary language"
// @Param        titleEng    formData  string  false  "English title"
// @Param        contentEng  formData  string  false  "English content"
// @Param        tags        formData  string  false  "JSON array of strings"
// @Param        image       formData  file    false  "JPEG, PNG or WEBP"
// @Success      200  {object}  model.BlogPost
// @Failure      400  {object}  errorPayload
// @Failure      404  {object}  errorPayload
// @Failure      413  {object}  errorPayload
// @Router       /api/blogs/{id} [put]
func UpdatePost(svc service.BlogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := readForm(c)
		if err != nil {
			return respondError(c, err)
		}
		img, closeImg, err := imageFile(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_IMAGE", "cannot open uploaded file")
		}
		defer closeImg()

		post, err := svc.Update(c.UserContext(), c.Params("id"), in, img)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(post)
	}
}

// DeletePost godoc
// @Summary      Delete a post
// @Tags         blogs
// @Produce      json
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  errorPayload
// @Router       /api/blogs/{id} [delete]
func DeletePost(svc service.BlogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(messageResponse{Message: "post deleted"})
	}
}
