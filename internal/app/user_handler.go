package app

import (
	"net/http"
	"strconv"

	"friendlink/internal/service"
	"friendlink/internal/util"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SearchUsers lists users to befriend, each annotated with the caller's
// current relationship status.
// GET /api/v1/users/search?q=keyword&limit=20&offset=0
func (h *UserHandler) SearchUsers(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	keyword := c.Query("q")
	if keyword == "" {
		util.BadRequest(c, "Search keyword is required")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	results, err := h.userService.SearchUsers(userID.(string), keyword, limit, offset)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Users retrieved successfully", gin.H{
		"users":  results,
		"limit":  limit,
		"offset": offset,
		"total":  len(results),
	})
}

// GetUser returns a single user by ID
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == "" {
		util.BadRequest(c, "User ID is required")
		return
	}

	user, err := h.userService.GetUserByID(targetID)
	if err != nil {
		util.NotFound(c, err.Error())
		return
	}

	util.SuccessResponse(c, http.StatusOK, "User retrieved successfully", gin.H{"user": user})
}
