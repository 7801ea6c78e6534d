package utils

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func GetNewUUID() string {
	return uuid.New().String()
}

func GetChiURLParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

// IsValidUUID guards path parameters before they reach the session registry.
func IsValidUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
