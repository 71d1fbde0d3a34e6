package http

import (
	"fmt"
	"net/http"
	"strconv"

	"linkhub/domain/dto"
	"linkhub/infrastructure/logger"
	"linkhub/usecase"

	"github.com/gin-gonic/gin"
)

type IPostHandler interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	PublishNow(c *gin.Context)
	Cancel(c *gin.Context)
}

type PostHandler struct {
	postUsecase usecase.IPostUsecase
}

func NewPostHandler(postUsecase usecase.IPostUsecase) IPostHandler {
	return &PostHandler{postUsecase: postUsecase}
}

func (h *PostHandler) Create(c *gin.Context) {
	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", ErrorUnmarshal, err)})
		return
	}
	post, err := h.postUsecase.Create(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	posts, err := h.postUsecase.List(c.Request.Context(), c.GetString("user_id"), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.postUsecase.Get(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Update(c *gin.Context) {
	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", ErrorUnmarshal, err)})
		return
	}
	post, err := h.postUsecase.Update(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) PublishNow(c *gin.Context) {
	post, err := h.postUsecase.PublishNow(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Cancel is a soft delete; the row stays with status cancelled
func (h *PostHandler) Cancel(c *gin.Context) {
	post, err := h.postUsecase.Cancel(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}
