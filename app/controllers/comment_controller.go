package controllers

import (
	"net/http"

	"socialfeed/app/auth"
	"socialfeed/app/services"

	"github.com/sirupsen/logrus"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	responder
	commentService *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService, logger logrus.FieldLogger) *CommentController {
	return &CommentController{
		responder:      responder{logger: logger},
		commentService: commentService,
	}
}

// Index lists a post's comments, oldest first
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postId")
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	comments, err := cc.commentService.ListPostComments(r.Context(), postID)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	cc.sendJSON(w, http.StatusOK, comments)
}

// Create adds a comment to a post
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		cc.sendError(w, r, auth.ErrUnauthorized)
		return
	}

	postID, err := pathID(r, "postId")
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := cc.decodeJSON(r, &body); err != nil {
		cc.sendError(w, r, err)
		return
	}

	comment, err := cc.commentService.CreateComment(r.Context(), postID, user.ID, body.Content)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	cc.sendJSON(w, http.StatusCreated, comment)
}
