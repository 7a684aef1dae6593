// Package response はフィーチャー間で共通のHTTPレスポンスボディを定義します。
package response

// ErrorResponse は4xx/5xxレスポンスのボディです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse は本文を持たない成功レスポンスのボディです。
type MessageResponse struct {
	Message string `json:"message"`
}
