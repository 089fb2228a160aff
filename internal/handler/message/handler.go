package message

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/service/messaging"
)

type Handler struct {
	service *messaging.Service
}

func NewHandler(service *messaging.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	messages := r.Group("/messages")
	{
		messages.POST("", h.SendMessage)
		messages.GET("", h.GetConversation)
		messages.POST("/read", h.MarkRead)
		messages.GET("/unread", h.UnreadCount)
	}
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	msg, err := h.service.Send(c.Request.Context(), handler.IdentityFromContext(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(msg))
}

func (h *Handler) GetConversation(c *gin.Context) {
	patientID, doctorID, ok := h.conversationKey(c)
	if !ok {
		return
	}

	messages, err := h.service.Conversation(c.Request.Context(), patientID, doctorID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(messages))
}

func (h *Handler) MarkRead(c *gin.Context) {
	patientID, doctorID, ok := h.conversationKey(c)
	if !ok {
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), handler.IdentityFromContext(c), patientID, doctorID); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) UnreadCount(c *gin.Context) {
	patientID, doctorID, ok := h.conversationKey(c)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), handler.IdentityFromContext(c), patientID, doctorID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"unread": count}))
}

func (h *Handler) conversationKey(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	patientID, err := uuid.Parse(c.Query("patient_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return uuid.Nil, uuid.Nil, false
	}
	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return uuid.Nil, uuid.Nil, false
	}
	return patientID, doctorID, true
}
