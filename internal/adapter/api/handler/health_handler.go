package handler

import (
	"context"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"google.golang.org/api/iterator"
)

type HealthHandler struct {
	firestoreClient *firestore.Client
}

func NewHealthHandler(firestoreClient *firestore.Client) *HealthHandler {
	return &HealthHandler{
		firestoreClient: firestoreClient,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "Server is running",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// CheckStoreHealth does a one-document read to confirm Firestore is
// reachable.
func (h *HealthHandler) CheckStoreHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	iter := h.firestoreClient.Collection("chatRooms").Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status": "Firestore connection failed",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "Firestore connected successfully",
	})
}
