package dto

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/onboard/pkg/errors"
)

// CreateDatabaseResponse is the JSON answer of the creation endpoint.
type CreateDatabaseResponse struct {
	OK       bool   `json:"ok"`
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SendCreateError writes the creation endpoint's error shape with the status
// carried by the error taxonomy.
func SendCreateError(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)
	c.JSON(appErr.HTTPStatus, CreateDatabaseResponse{
		OK:    false,
		Error: appErr.Message,
	})
}

// SendCreateSuccess writes the creation endpoint's success shape.
func SendCreateSuccess(c *gin.Context, redirect string) {
	c.JSON(200, CreateDatabaseResponse{
		OK:       true,
		Redirect: redirect,
	})
}
