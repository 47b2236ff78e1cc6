package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusswap/exchange"
	"campusswap/message"
	"campusswap/product"
)

func (h *handler) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.log.Warn("http: health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) listExchanges(c *gin.Context) {
	id, _ := actor(c)
	status, err := exchange.ParseStatus(c.Query("status"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var items []exchange.Details
	if id.IsAdmin() {
		limit, _ := strconv.Atoi(c.Query("limit"))
		items, err = h.exchanges.ListAll(c.Request.Context(), status, limit)
	} else {
		direction, perr := exchange.ParseDirection(c.Query("type"))
		if perr != nil {
			respondError(c, h.log, perr)
			return
		}
		items, err = h.exchanges.List(c.Request.Context(), exchange.ListFilter{
			StudentID: id.StudentID,
			Direction: direction,
			Status:    status,
		})
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exchanges": toExchanges(items)})
}

func (h *handler) getExchange(c *gin.Context) {
	id, _ := actor(c)
	d, err := h.exchanges.Get(c.Request.Context(), c.Param("id"), id.StudentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exchange": toExchange(d)})
}

func (h *handler) createExchange(c *gin.Context) {
	id, _ := actor(c)
	var body createExchangeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadJSON(c)
		return
	}
	d, err := h.exchanges.Create(c.Request.Context(), exchange.CreateParams{
		RequesterID:        id.StudentID,
		RequestedProductID: body.RequestedProductID,
		OfferedProductID:   body.OfferedProductID,
		Message:            body.Message,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "exchange": toExchange(d)})
}

func (h *handler) updateExchange(c *gin.Context) {
	id, _ := actor(c)
	var body updateExchangeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadJSON(c)
		return
	}
	d, err := h.exchanges.Transition(c.Request.Context(), exchange.TransitionParams{
		ExchangeID: body.ID,
		ActorID:    id.StudentID,
		Action:     exchange.Action(body.Action),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "exchange": toExchange(d)})
}

func (h *handler) listNotifications(c *gin.Context) {
	id, _ := actor(c)
	unreadOnly := c.Query("unreadOnly") == "true"
	res, err := h.notifications.List(c.Request.Context(), id.StudentID, unreadOnly)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	items, err := toNotifications(res.Items)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "unreadCount": res.UnreadCount})
}

func (h *handler) updateNotifications(c *gin.Context) {
	id, _ := actor(c)
	var body updateNotificationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadJSON(c)
		return
	}
	var err error
	if body.MarkAll {
		_, err = h.notifications.MarkAllRead(c.Request.Context(), id.StudentID)
	} else {
		err = h.notifications.MarkRead(c.Request.Context(), body.ID, id.StudentID)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handler) listMessages(c *gin.Context) {
	id, _ := actor(c)
	items, err := h.messages.List(c.Request.Context(), c.Query("exchangeId"), id.StudentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": toMessages(items)})
}

func (h *handler) sendMessage(c *gin.Context) {
	id, _ := actor(c)
	var body sendMessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadJSON(c)
		return
	}
	m, err := h.messages.Send(c.Request.Context(), message.SendParams{
		ExchangeID: body.ExchangeID,
		SenderID:   id.StudentID,
		Content:    body.Content,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": toMessage(m)})
}

func (h *handler) removeProduct(c *gin.Context) {
	p, err := h.products.Remove(c.Request.Context(), product.RemoveParams{
		ProductID: c.Param("id"),
		Reason:    c.Query("reason"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": toProduct(p)})
}
