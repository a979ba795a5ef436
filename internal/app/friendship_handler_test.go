package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"friendlink/internal/model"
	"friendlink/internal/service"
	"friendlink/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	callerID     = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	otherID      = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	friendshipID = "ffffffff-ffff-ffff-ffff-ffffffffffff"
)

// stubFriendshipService returns canned results per method
type stubFriendshipService struct {
	sendErr    error
	acceptErr  error
	declineErr error
}

func (s *stubFriendshipService) SendFriendRequest(requesterID, recipientID string) (*model.Friendship, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &model.Friendship{
		ID:          friendshipID,
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      model.FriendshipStatusPending,
	}, nil
}

func (s *stubFriendshipService) AcceptFriendRequest(id, userID string) (*model.Friendship, error) {
	if s.acceptErr != nil {
		return nil, s.acceptErr
	}
	return &model.Friendship{ID: id, Status: model.FriendshipStatusAccepted}, nil
}

func (s *stubFriendshipService) DeclineFriendRequest(id, userID string) error {
	return s.declineErr
}

func (s *stubFriendshipService) GetFriendshipByID(id string) (*model.Friendship, error) {
	return nil, service.ErrFriendshipNotFound
}

func (s *stubFriendshipService) GetFriendshipsByUserID(userID string) ([]*model.Friendship, error) {
	return nil, nil
}

func (s *stubFriendshipService) GetPendingRequests(userID string) ([]*model.Friendship, error) {
	return nil, nil
}

func (s *stubFriendshipService) GetSentRequests(userID string) ([]*model.Friendship, error) {
	return nil, nil
}

func (s *stubFriendshipService) GetFriends(userID string) ([]*model.Friendship, error) {
	return nil, nil
}

func (s *stubFriendshipService) GetFriendshipStatus(userID1, userID2 string) (string, error) {
	return model.FriendshipStatusNone, nil
}

func (s *stubFriendshipService) CountPendingRequests(userID string) (int64, error) {
	return 0, nil
}

func setupRouter(svc service.FriendshipService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// Stand-in for the JWT middleware
	r.Use(func(c *gin.Context) {
		c.Set("userID", callerID)
		c.Next()
	})

	h := NewFriendshipHandler(svc)
	r.POST("/api/v1/friendships/request", h.SendFriendRequest)
	r.POST("/api/v1/friendships/:id/accept", h.AcceptFriendRequest)
	r.DELETE("/api/v1/friendships/:id", h.DeclineFriendRequest)
	r.GET("/api/v1/friendships/:id", h.GetFriendship)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, util.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestSendFriendRequestCreated(t *testing.T) {
	r := setupRouter(&stubFriendshipService{})

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/friendships/request",
		gin.H{"recipient_id": otherID})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
}

func TestSendFriendRequestValidation(t *testing.T) {
	r := setupRouter(&stubFriendshipService{})

	// Missing recipient_id fails binding
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/friendships/request", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)

	// Malformed UUID fails binding too
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/friendships/request",
		gin.H{"recipient_id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendFriendRequestDuplicateConflict(t *testing.T) {
	r := setupRouter(&stubFriendshipService{sendErr: service.ErrRequestPending})

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/friendships/request",
		gin.H{"recipient_id": otherID})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, service.ErrRequestPending.Error(), resp.Message)
}

func TestAcceptByNonRecipientForbidden(t *testing.T) {
	r := setupRouter(&stubFriendshipService{acceptErr: service.ErrNotRecipient})

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/friendships/"+friendshipID+"/accept", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, resp.Success)
}

func TestDeclineUnknownFriendshipNotFound(t *testing.T) {
	r := setupRouter(&stubFriendshipService{declineErr: service.ErrFriendshipNotFound})

	w, resp := doJSON(t, r, http.MethodDelete, "/api/v1/friendships/"+friendshipID, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}

func TestGetFriendshipNotFoundAfterDecline(t *testing.T) {
	r := setupRouter(&stubFriendshipService{})

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/friendships/"+friendshipID, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}
