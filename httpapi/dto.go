package httpapi

import (
	"encoding/json"
	"time"

	"campusswap/exchange"
	"campusswap/message"
	"campusswap/notification"
)

// Wire types keep the field names existing clients already read.

type partyDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MatricNumber string `json:"matricNumber"`
	ImageURL     string `json:"imageUrl"`
}

type productDTO struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"studentId"`
	Title         string    `json:"title"`
	MonetaryWorth int64     `json:"monetaryWorth"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type exchangeDTO struct {
	ID                 string     `json:"id"`
	RequesterID        string     `json:"requesterId"`
	ReceiverID         string     `json:"receiverId"`
	RequestedProductID string     `json:"requestedProductId"`
	OfferedProductID   string     `json:"offeredProductId"`
	Status             string     `json:"status"`
	Message            *string    `json:"message"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	Requester          partyDTO   `json:"requester"`
	Receiver           partyDTO   `json:"receiver"`
	RequestedProduct   productDTO `json:"requestedProduct"`
	OfferedProduct     productDTO `json:"offeredProduct"`
}

type notificationDTO struct {
	ID        string          `json:"id"`
	StudentID string          `json:"studentId"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"createdAt"`
}

type messageDTO struct {
	ID                string    `json:"id"`
	ExchangeRequestID string    `json:"exchangeRequestId"`
	SenderID          string    `json:"senderId"`
	RecipientID       string    `json:"recipientId"`
	Content           string    `json:"content"`
	Read              bool      `json:"read"`
	CreatedAt         time.Time `json:"createdAt"`
	Sender            partyDTO  `json:"sender"`
	Recipient         partyDTO  `json:"recipient"`
}

type createExchangeRequest struct {
	RequestedProductID string  `json:"requestedProductId"`
	OfferedProductID   string  `json:"offeredProductId"`
	Message            *string `json:"message"`
}

type updateExchangeRequest struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

type updateNotificationRequest struct {
	ID      string `json:"id"`
	MarkAll bool   `json:"markAll"`
}

type sendMessageRequest struct {
	ExchangeID string `json:"exchangeId"`
	Content    string `json:"content"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

func toParty(p exchange.Party) partyDTO {
	return partyDTO{ID: p.ID, Name: p.Name, MatricNumber: p.MatricNumber, ImageURL: p.ImageURL}
}

func toProduct(p exchange.Product) productDTO {
	return productDTO{
		ID:            p.ID,
		StudentID:     p.OwnerID,
		Title:         p.Title,
		MonetaryWorth: p.MonetaryWorth,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toExchange(d exchange.Details) exchangeDTO {
	return exchangeDTO{
		ID:                 d.ID,
		RequesterID:        d.RequesterID,
		ReceiverID:         d.ReceiverID,
		RequestedProductID: d.RequestedProductID,
		OfferedProductID:   d.OfferedProductID,
		Status:             string(d.Status),
		Message:            d.Message,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		Requester:          toParty(d.Requester),
		Receiver:           toParty(d.Receiver),
		RequestedProduct:   toProduct(d.RequestedProduct),
		OfferedProduct:     toProduct(d.OfferedProduct),
	}
}

func toExchanges(items []exchange.Details) []exchangeDTO {
	out := make([]exchangeDTO, 0, len(items))
	for _, d := range items {
		out = append(out, toExchange(d))
	}
	return out
}

func toNotifications(items []notification.Notification) ([]notificationDTO, error) {
	out := make([]notificationDTO, 0, len(items))
	for _, n := range items {
		data, err := notification.EncodePayload(n.Payload)
		if err != nil {
			return nil, err
		}
		out = append(out, notificationDTO{
			ID:        n.ID,
			StudentID: n.RecipientID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			Data:      data,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return out, nil
}

func toMessage(m message.Message) messageDTO {
	return messageDTO{
		ID:                m.ID,
		ExchangeRequestID: m.ExchangeID,
		SenderID:          m.SenderID,
		RecipientID:       m.RecipientID,
		Content:           m.Content,
		Read:              m.Read,
		CreatedAt:         m.CreatedAt,
		Sender:            toParty(m.Sender),
		Recipient:         toParty(m.Recipient),
	}
}

func toMessages(items []message.Message) []messageDTO {
	out := make([]messageDTO, 0, len(items))
	for _, m := range items {
		out = append(out, toMessage(m))
	}
	return out
}
