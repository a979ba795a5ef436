package app

import (
	"errors"
	"net/http"

	"friendlink/internal/service"
	"friendlink/internal/util"

	"github.com/gin-gonic/gin"
)

type FriendshipHandler struct {
	friendshipService service.FriendshipService
}

func NewFriendshipHandler(friendshipService service.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendshipService: friendshipService}
}

// friendshipError maps service errors onto HTTP status codes
func friendshipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFriendshipNotFound), errors.Is(err, service.ErrUserNotFound):
		util.NotFound(c, err.Error())
	case errors.Is(err, service.ErrNotRecipient), errors.Is(err, service.ErrNotParticipant):
		util.Forbidden(c, err.Error())
	default:
		util.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
	}
}

// SendFriendRequest handles sending a friend request
// POST /api/v1/friendships/request
func (h *FriendshipHandler) SendFriendRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		RecipientID string `json:"recipient_id" binding:"required,uuid"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	friendship, err := h.friendshipService.SendFriendRequest(userID.(string), req.RecipientID)
	if err != nil {
		friendshipError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Friend request sent successfully", gin.H{"friendship": friendship})
}

// AcceptFriendRequest handles accepting a friend request
// POST /api/v1/friendships/:id/accept
func (h *FriendshipHandler) AcceptFriendRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friendshipID := c.Param("id")
	if friendshipID == "" {
		util.BadRequest(c, "Friendship ID is required")
		return
	}

	friendship, err := h.friendshipService.AcceptFriendRequest(friendshipID, userID.(string))
	if err != nil {
		friendshipError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friend request accepted successfully", gin.H{"friendship": friendship})
}

// DeclineFriendRequest handles declining a pending request or removing a
// confirmed friend
// DELETE /api/v1/friendships/:id
func (h *FriendshipHandler) DeclineFriendRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friendshipID := c.Param("id")
	if friendshipID == "" {
		util.BadRequest(c, "Friendship ID is required")
		return
	}

	if err := h.friendshipService.DeclineFriendRequest(friendshipID, userID.(string)); err != nil {
		friendshipError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friendship removed successfully", nil)
}

// GetFriendship handles getting a friendship by ID
// GET /api/v1/friendships/:id
func (h *FriendshipHandler) GetFriendship(c *gin.Context) {
	friendshipID := c.Param("id")
	if friendshipID == "" {
		util.BadRequest(c, "Friendship ID is required")
		return
	}

	friendship, err := h.friendshipService.GetFriendshipByID(friendshipID)
	if err != nil {
		util.NotFound(c, err.Error())
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friendship retrieved successfully", gin.H{"friendship": friendship})
}

// GetMyFriendships handles getting all friendships for current user
// GET /api/v1/friendships
func (h *FriendshipHandler) GetMyFriendships(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friendships, err := h.friendshipService.GetFriendshipsByUserID(userID.(string))
	if err != nil {
		util.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friendships retrieved successfully", gin.H{"friendships": friendships})
}

// GetPendingRequests handles getting requests awaiting the user's answer
// GET /api/v1/friendships/pending
func (h *FriendshipHandler) GetPendingRequests(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friendships, err := h.friendshipService.GetPendingRequests(userID.(string))
	if err != nil {
		util.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Pending requests retrieved successfully", gin.H{"friendships": friendships})
}

// GetSentRequests handles getting open requests the user has sent
// GET /api/v1/friendships/sent
func (h *FriendshipHandler) GetSentRequests(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friendships, err := h.friendshipService.GetSentRequests(userID.(string))
	if err != nil {
		util.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Sent requests retrieved successfully", gin.H{"friendships": friendships})
}

// GetFriends handles getting confirmed friends
// GET /api/v1/friendships/friends
func (h *FriendshipHandler) GetFriends(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	friendships, err := h.friendshipService.GetFriends(userID.(string))
	if err != nil {
		util.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friends retrieved successfully", gin.H{"friends": friendships})
}

// GetFriendshipStatus handles getting friendship status with another user
// GET /api/v1/friendships/status/:userID
func (h *FriendshipHandler) GetFriendshipStatus(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	targetUserID := c.Param("userID")
	if targetUserID == "" {
		util.BadRequest(c, "User ID is required")
		return
	}

	status, err := h.friendshipService.GetFriendshipStatus(userID.(string), targetUserID)
	if err != nil {
		util.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friendship status retrieved successfully", gin.H{"status": status})
}

// GetPendingCount handles getting the badge count of open requests
// GET /api/v1/friendships/pending/count
func (h *FriendshipHandler) GetPendingCount(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	count, err := h.friendshipService.CountPendingRequests(userID.(string))
	if err != nil {
		util.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Pending count retrieved successfully", gin.H{"count": count})
}
