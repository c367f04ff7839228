package api

import (
	"encoding/json"
	"net/http"
)

// APIError is the error body. Front-end clients read Message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MessageBody struct {
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, APIError{Code: code, Message: message})
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, MessageBody{Message: message})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
