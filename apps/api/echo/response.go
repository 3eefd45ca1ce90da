package echoapi

import (
	"github.com/labstack/echo/v4"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respond(ctx echo.Context, code int, data interface{}, message ...string) error {
	resp := Response{Success: code < 400, Data: data}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	return ctx.JSON(code, resp)
}
