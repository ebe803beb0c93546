package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"blogapi/internal/media"
	"blogapi/internal/model"
	"blogapi/internal/service"
	serviceMocks "blogapi/internal/service/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		raw     string
		want    []string
		wantErr bool
	}{
		{"", []string{}, false},
		{"   ", []string{}, false},
		{"null", []string{}, false},
		{"[]", []string{}, false},
		{`["go","db"]`, []string{"go", "db"}, false},
		{"go,db", nil, true},
		{`[1,2]`, nil, true},
		{`{"a":1}`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseTags(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, errMalformedTags)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListPosts(t *testing.T) {
	mockSvc := new(serviceMocks.MockBlogService)
	app := fiber.New()
	app.Get("/api/blogs", ListPosts(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return([]model.BlogPost{{ID: "b"}, {ID: "a"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/blogs", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result []model.BlogPost
		json.NewDecoder(resp.Body).Decode(&result)
		require.Len(t, result, 2)
		assert.Equal(t, "b", result[0].ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty store is an empty array", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return([]model.BlogPost{}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/blogs", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		b, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `[]`, string(b))
	})

	t.Run("service error", func(t *testing.T) {
		captureLogs(t)
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("service error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/blogs", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp).Error.Code)
	})
}

func TestCreatePost(t *testing.T) {
	mockSvc := new(serviceMocks.MockBlogService)
	app := fiber.New()
	app.Post("/api/blogs", CreatePost(mockSvc))

	t.Run("multipart without image", func(t *testing.T) {
		want := service.PostInput{Title: "Tytuł", TitleEng: "Title", Content: "Treść", Tags: []string{"go", "db"}}
		mockSvc.On("Create", mock.Anything, want, (*media.File)(nil)).
			Return(&model.BlogPost{ID: "1", Tags: []string{"go", "db"}}, nil).Once()

		body, ct := multipartBody(t, map[string]string{
			"title": "Tytuł", "titleEng": "Title", "content": "Treść", "tags": `["go","db"]`,
		}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/blogs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.BlogPost
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "1", result.ID)
		assert.Equal(t, []string{"go", "db"}, result.Tags)
		mockSvc.AssertExpectations(t)
	})

	t.Run("url-encoded form", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, service.PostInput{Title: "T", Content: "C", Tags: []string{}}, (*media.File)(nil)).
			Return(&model.BlogPost{ID: "2"}, nil).Once()

		form := url.Values{"title": {"T"}, "content": {"C"}}
		req := httptest.NewRequest(http.MethodPost, "/api/blogs", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("query string is not a form", func(t *testing.T) {
		svc := new(serviceMocks.MockBlogService)
		app := fiber.New()
		app.Post("/api/blogs", CreatePost(svc))

		for _, ct := range []string{"", "application/x-www-form-urlencoded"} {
			req := httptest.NewRequest(http.MethodPost, "/api/blogs?title=a&content=b", nil)
			if ct != "" {
				req.Header.Set("Content-Type", ct)
			}
			resp, _ := app.Test(req)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "missing required fields: title, content", decodeError(t, resp).Error.Message)
		}
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("body fields ignore query overrides", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, service.PostInput{Title: "body", Content: "C", Tags: []string{}}, (*media.File)(nil)).
			Return(&model.BlogPost{ID: "4"}, nil).Once()

		body, ct := multipartBody(t, map[string]string{"title": "body", "content": "C"}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/blogs?title=query&titleEng=query", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("image part is handed to the service", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(f *media.File) bool {
			return f != nil && f.Name == "cover.jpg" && f.Size == 3
		})).Return(&model.BlogPost{ID: "3"}, nil).Once()

		body, ct := multipartBody(t, map[string]string{"title": "T", "content": "C"},
			&formFile{name: "cover.jpg", contentType: "image/jpeg", data: []byte{0xFF, 0xD8, 0xFF}})
		req := httptest.NewRequest(http.MethodPost, "/api/blogs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing fields win over malformed tags", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"title": "T", "tags": "not json"}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/blogs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		res := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		assert.Equal(t, "missing required fields: content", res.Error.Message)
	})

	t.Run("malformed tags", func(t *testing.T) {
		captureLogs(t)
		body, ct := multipartBody(t, map[string]string{"title": "T", "content": "C", "tags": "go,db"}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/blogs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "MALFORMED_TAGS", decodeError(t, resp).Error.Code)
	})

	t.Run("service errors map to codes", func(t *testing.T) {
		captureLogs(t)
		tests := []struct {
			err    error
			status int
			code   string
		}{
			{media.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
			{media.ErrUnsupportedFormat, http.StatusBadRequest, "INVALID_IMAGE"},
			{errors.Join(service.ErrUploadFailed, errors.New("cloud down")), http.StatusInternalServerError, "UPLOAD_FAILED"},
			{errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		}
		for _, tt := range tests {
			t.Run(tt.code, func(t *testing.T) {
				mockSvc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err).Once()

				body, ct := multipartBody(t, map[string]string{"title": "T", "content": "C"}, nil)
				req := httptest.NewRequest(http.MethodPost, "/api/blogs", body)
				req.Header.Set("Content-Type", ct)
				resp, _ := app.Test(req)

				assert.Equal(t, tt.status, resp.StatusCode)
				res := decodeError(t, resp)
				assert.Equal(t, tt.code, res.Error.Code)
				assert.NotContains(t, res.Error.Message, "db down")
				assert.NotContains(t, res.Error.Message, "cloud down")
			})
		}
	})
}

func TestGetPost(t *testing.T) {
	mockSvc := new(serviceMocks.MockBlogService)
	app := fiber.New()
	app.Get("/api/blogs/:id", GetPost(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "abc").Return(&model.BlogPost{ID: "abc"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/blogs/abc", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.BlogPost
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "abc", result.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "missing").Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/blogs/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})
}

func TestGetPostByTitle(t *testing.T) {
	mockSvc := new(serviceMocks.MockBlogService)
	app := fiber.New()
	app.Get("/api/blogs/title/:title", GetPostByTitle(mockSvc))

	t.Run("raw slug reaches the service", func(t *testing.T) {
		mockSvc.On("GetByTitleSlug", mock.Anything, "za%C5%BC%C3%B3%C5%82%C4%87-post").
			Return(&model.BlogPost{ID: "1"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/blogs/title/za%C5%BC%C3%B3%C5%82%C4%87-post", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("GetByTitleSlug", mock.Anything, "nope").Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/blogs/title/nope", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestUpdatePost(t *testing.T) {
	mockSvc := new(serviceMocks.MockBlogService)
	app := fiber.New()
	app.Put("/api/blogs/:id", UpdatePost(mockSvc))

	t.Run("success", func(t *testing.T) {
		want := service.PostInput{Title: "T", Content: "C", ContentEng: "CE", Tags: []string{"x"}}
		mockSvc.On("Update", mock.Anything, "abc", want, (*media.File)(nil)).
			Return(&model.BlogPost{ID: "abc"}, nil).Once()

		body, ct := multipartBody(t, map[string]string{"title": "T", "content": "C", "contentEng": "CE", "tags": `["x"]`}, nil)
		req := httptest.NewRequest(http.MethodPut, "/api/blogs/abc", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Update", mock.Anything, "missing", mock.Anything, mock.Anything).Return(nil, service.ErrNotFound).Once()

		body, ct := multipartBody(t, map[string]string{"title": "T", "content": "C"}, nil)
		req := httptest.NewRequest(http.MethodPut, "/api/blogs/missing", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := new(serviceMocks.MockBlogService)
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		app.Put("/api/blogs/:id", UpdatePost(svc))

		body, ct := multipartBody(t, map[string]string{"content": "C"}, nil)
		req := httptest.NewRequest(http.MethodPut, "/api/blogs/abc", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeletePost(t *testing.T) {
	mockSvc := new(serviceMocks.MockBlogService)
	app := fiber.New()
	app.Delete("/api/blogs/:id", DeletePost(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, "abc").Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/blogs/abc", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body messageResponse
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "post deleted", body.Message)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Delete", mock.Anything, "missing").Return(service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/blogs/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		captureLogs(t)
		mockSvc.On("Delete", mock.Anything, "abc").Return(errors.New("delete error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/blogs/abc", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}
