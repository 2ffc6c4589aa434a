// User HTTP handlers.
//
// This file exposes REST endpoints for the user directory:
//   - POST /users       (register)
//   - GET  /users/{id}  (fetch profile)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rental-backend/internal/services"
)

// CreateUserRequest is the JSON payload for registering a user.
type CreateUserRequest struct {
	Username        string `json:"username" binding:"required" example:"camper_kim"`
	ProfileImageURL string `json:"profile_image_url,omitempty" example:"https://cdn.example.com/u/kim.png"`
	Phone           string `json:"phone,omitempty" example:"010-1234-5678"`
	Address         string `json:"address,omitempty" example:"Haeundae-gu, Busan"`
	Bio             string `json:"bio,omitempty" example:"Weekend camper"`
}

// CreateUser godoc
// @ID          createUser
// @Summary     Register a user
// @Description Creates a marketplace user. Usernames are unique.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CreateUserRequest  true  "User payload"
// @Success     201   {object}  domain.User
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     409   {object}  handlers.ErrorResponse  "Username taken"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username required")
		return
	}
	u, err := h.userSvc.Create(c.Request.Context(), services.NewUser{
		Username:        req.Username,
		ProfileImageURL: req.ProfileImageURL,
		Phone:           req.Phone,
		Address:         req.Address,
		Bio:             req.Bio,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
// @Param       id   path      string  true  "User ID"  format(uuid)
// @Success     200  {object}  domain.User
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.userSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
