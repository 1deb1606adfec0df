package controllers

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"socialfeed/app/auth"
	"socialfeed/app/services"
	"socialfeed/app/uploads"

	"github.com/sirupsen/logrus"
)

// multipartMemory is how much of a multipart body is kept in memory
// before spilling to temp files.
const multipartMemory = 1 << 20

// formOverhead is allowed on top of the image limit for the other fields.
const formOverhead = 64 << 10

// PostController handles HTTP requests for posts
type PostController struct {
	responder
	postService *services.PostService
	maxUpload   int64
}

// NewPostController creates a new PostController
func NewPostController(postService *services.PostService, maxUpload int64, logger logrus.FieldLogger) *PostController {
	return &PostController{
		responder:   responder{logger: logger},
		postService: postService,
		maxUpload:   maxUpload,
	}
}

// Index handles listing the feed
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.postService.ListPosts(r.Context())
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.sendJSON(w, http.StatusOK, posts)
}

// Show handles displaying a single post
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	post, err := pc.postService.GetPost(r.Context(), id)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.sendJSON(w, http.StatusOK, post)
}

// Create handles creating a new post. It accepts a multipart form with
// a content field and an optional image file, or a JSON body.
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		pc.sendError(w, r, auth.ErrUnauthorized)
		return
	}

	content, image, err := pc.readPost(w, r)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	// A nil multipart.File must not become a non-nil io.Reader
	var imageReader io.Reader
	if image != nil {
		defer image.Close()
		imageReader = image
	}
	post, err := pc.postService.CreatePost(r.Context(), user.ID, content, imageReader)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.sendJSON(w, http.StatusCreated, post)
}

func (pc *PostController) readPost(w http.ResponseWriter, r *http.Request) (string, multipart.File, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var body struct {
			Content string `json:"content"`
		}
		if err := pc.decodeJSON(r, &body); err != nil {
			return "", nil, err
		}
		return body.Content, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, pc.maxUpload+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, uploads.ErrFileTooLarge
		}
		return "", nil, &validationError{"invalid form: " + err.Error()}
	}

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return r.FormValue("content"), nil, nil
	}
	if err != nil {
		return "", nil, &validationError{"invalid image: " + err.Error()}
	}
	return r.FormValue("content"), file, nil
}
