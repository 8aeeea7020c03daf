package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LAMpbrien/adventures-of/internal/service"
)

const eventCheckoutCompleted = "checkout.session.completed"

type paymentEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentIntent string            `json:"payment_intent"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// PaymentWebhook records completed checkouts. Events that can never
// succeed are acknowledged so the provider stops redelivering them.
func (h HandlerSet) PaymentWebhook(c *gin.Context) {
	var event paymentEvent
	if err := c.ShouldBindJSON(&event); err != nil || event.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_event"})
		return
	}

	logger := h.log.With().Str("event_id", event.ID).Str("event_type", event.Type).Logger()

	if event.Type != eventCheckoutCompleted {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx := c.Request.Context()
	first, err := h.events.FirstSeen(ctx, event.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !first {
		logger.Info().Msg("duplicate payment event")
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	}

	obj := event.Data.Object
	in := service.PaymentConfirmation{BookID: obj.Metadata["book_id"]}
	if obj.ID != "" {
		in.SessionID = &obj.ID
	}
	if obj.PaymentIntent != "" {
		in.IntentID = &obj.PaymentIntent
	}

	err = h.books.ConfirmPayment(ctx, in)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrBookNotFound),
		errors.Is(err, service.ErrInvalidState):
		logger.Warn().Err(err).Str("book_id", in.BookID).Msg("payment event ignored")
		c.JSON(http.StatusOK, gin.H{"received": true})
	default:
		if ferr := h.events.Forget(ctx, event.ID); ferr != nil {
			logger.Error().Err(ferr).Msg("forget payment event")
		}
		h.respondError(c, err)
	}
}
