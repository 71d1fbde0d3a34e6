package http

import (
	"net/http"
	"strconv"

	"linkhub/domain/model"
	"linkhub/usecase"

	"github.com/gin-gonic/gin"
)

type INotificationHandler interface {
	List(c *gin.Context)
}

type NotificationHandler struct {
	notifications usecase.INotificationUsecase
}

func NewNotificationHandler(notifications usecase.INotificationUsecase) INotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	list, err := h.notifications.List(c.Request.Context(), c.GetString("user_id"), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if list == nil {
		list = []model.Notification{}
	}
	c.JSON(http.StatusOK, list)
}
