package service

import (
	"sync"
	"testing"

	"friendlink/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// In-memory fakes. The friendship fake mirrors the database behavior the
// service relies on: generated IDs, canonical pair keys, and a unique
// constraint on the pair.

type fakeFriendshipRepo struct {
	mu    sync.Mutex
	items map[string]*model.Friendship
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{items: make(map[string]*model.Friendship)}
}

func (r *fakeFriendshipRepo) Create(f *model.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	f.PairKey = model.PairKey(f.RequesterID, f.RecipientID)

	for _, existing := range r.items {
		if existing.PairKey == f.PairKey {
			return gorm.ErrDuplicatedKey
		}
	}

	clone := *f
	r.items[f.ID] = &clone
	return nil
}

func (r *fakeFriendshipRepo) FindByID(id string) (*model.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *f
	return &clone, nil
}

func (r *fakeFriendshipRepo) FindByPair(userID1, userID2 string) (*model.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := model.PairKey(userID1, userID2)
	for _, f := range r.items {
		if f.PairKey == key {
			clone := *f
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFriendshipRepo) FindByUserID(userID string) ([]*model.Friendship, error) {
	return r.filter(func(f *model.Friendship) bool {
		return f.Involves(userID)
	}), nil
}

func (r *fakeFriendshipRepo) FindPendingByRecipientID(recipientID string) ([]*model.Friendship, error) {
	return r.filter(func(f *model.Friendship) bool {
		return f.RecipientID == recipientID && f.IsPending()
	}), nil
}

func (r *fakeFriendshipRepo) FindPendingByRequesterID(requesterID string) ([]*model.Friendship, error) {
	return r.filter(func(f *model.Friendship) bool {
		return f.RequesterID == requesterID && f.IsPending()
	}), nil
}

func (r *fakeFriendshipRepo) FindAcceptedByUserID(userID string) ([]*model.Friendship, error) {
	return r.filter(func(f *model.Friendship) bool {
		return f.Involves(userID) && f.Status == model.FriendshipStatusAccepted
	}), nil
}

func (r *fakeFriendshipRepo) Update(f *model.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[f.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *f
	r.items[f.ID] = &clone
	return nil
}

func (r *fakeFriendshipRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeFriendshipRepo) CountPendingByRecipientID(recipientID string) (int64, error) {
	pending, _ := r.FindPendingByRecipientID(recipientID)
	return int64(len(pending)), nil
}

func (r *fakeFriendshipRepo) filter(keep func(*model.Friendship) bool) []*model.Friendship {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Friendship
	for _, f := range r.items {
		if keep(f) {
			clone := *f
			out = append(out, &clone)
		}
	}
	return out
}

func (r *fakeFriendshipRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, id := range ids {
		r.users[id] = &model.User{ID: id, Username: "user-" + id, Email: id + "@example.com", FullName: "User " + id}
	}
	return r
}

func (r *fakeUserRepo) Create(u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) SearchUsers(keyword string, limit, offset int) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(u *model.User) error { return nil }

func (r *fakeUserRepo) UpdateLastLogin(userID string) error { return nil }

type fakeNotifService struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeNotifService) SendFriendRequestNotification(recipientID, requesterID, requesterName, friendshipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, model.NotificationTypeFriendRequest)
	return nil
}

func (s *fakeNotifService) SendFriendAcceptedNotification(requesterID, recipientID, recipientName, friendshipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, model.NotificationTypeFriendAccepted)
	return nil
}

func (s *fakeNotifService) GetNotificationsByUserID(userID string, limit, offset int) ([]*model.Notification, error) {
	return nil, nil
}

func (s *fakeNotifService) GetUnreadCount(userID string) (int64, error) { return 0, nil }

func (s *fakeNotifService) MarkAsRead(notificationID, userID string) error { return nil }

func (s *fakeNotifService) MarkAllAsRead(userID string) error { return nil }

func (s *fakeNotifService) SetWSHub(hub interface {
	BroadcastToUser(string, map[string]interface{})
}) {
}

const (
	userA = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	userB = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	userC = "cccccccc-cccc-cccc-cccc-cccccccccccc"
)

func newTestService() (FriendshipService, *fakeFriendshipRepo) {
	repo := newFakeFriendshipRepo()
	users := newFakeUserRepo(userA, userB, userC)
	return NewFriendshipService(repo, users, &fakeNotifService{}), repo
}

func TestSendFriendRequestCreatesOnePendingRecord(t *testing.T) {
	svc, repo := newTestService()

	friendship, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)

	assert.Equal(t, model.FriendshipStatusPending, friendship.Status)
	assert.Equal(t, userA, friendship.RequesterID)
	assert.Equal(t, userB, friendship.RecipientID)
	assert.Equal(t, 1, repo.count())
}

func TestSendFriendRequestToSelfRejected(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.SendFriendRequest(userA, userA)
	assert.ErrorIs(t, err, ErrSelfRequest)
	assert.Equal(t, 0, repo.count())
}

func TestSendFriendRequestUnknownRecipient(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.SendFriendRequest(userA, "dddddddd-dddd-dddd-dddd-dddddddddddd")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSendFriendRequestDuplicatePairRejected(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)

	// Same direction
	_, err = svc.SendFriendRequest(userA, userB)
	assert.ErrorIs(t, err, ErrRequestPending)

	// Opposite direction counts as the same unordered pair
	_, err = svc.SendFriendRequest(userB, userA)
	assert.ErrorIs(t, err, ErrRequestPending)

	assert.Equal(t, 1, repo.count())
}

func TestSendFriendRequestToExistingFriendRejected(t *testing.T) {
	svc, _ := newTestService()

	friendship, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)
	_, err = svc.AcceptFriendRequest(friendship.ID, userB)
	require.NoError(t, err)

	_, err = svc.SendFriendRequest(userB, userA)
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestAcceptFlipsStatusWithoutNewRecord(t *testing.T) {
	svc, repo := newTestService()

	friendship, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)

	accepted, err := svc.AcceptFriendRequest(friendship.ID, userB)
	require.NoError(t, err)

	assert.Equal(t, friendship.ID, accepted.ID)
	assert.Equal(t, model.FriendshipStatusAccepted, accepted.Status)
	assert.Equal(t, 1, repo.count())
}

func TestAcceptRequiresRecipient(t *testing.T) {
	svc, _ := newTestService()

	friendship, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)

	// Neither the requester nor a third party may confirm the request
	_, err = svc.AcceptFriendRequest(friendship.ID, userA)
	assert.ErrorIs(t, err, ErrNotRecipient)
	_, err = svc.AcceptFriendRequest(friendship.ID, userC)
	assert.ErrorIs(t, err, ErrNotRecipient)
}

func TestAcceptIsIdempotent(t *testing.T) {
	svc, _ := newTestService()

	friendship, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)

	_, err = svc.AcceptFriendRequest(friendship.ID, userB)
	require.NoError(t, err)

	again, err := svc.AcceptFriendRequest(friendship.ID, userB)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipStatusAccepted, again.Status)
}

func TestDeclineRemovesRecord(t *testing.T) {
	svc, repo := newTestService()

	friendship, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)

	require.NoError(t, svc.DeclineFriendRequest(friendship.ID, userB))
	assert.Equal(t, 0, repo.count())

	_, err = svc.GetFriendshipByID(friendship.ID)
	assert.ErrorIs(t, err, ErrFriendshipNotFound)
}

func TestDeclinePendingRequiresRecipient(t *testing.T) {
	svc, repo := newTestService()

	friendship, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)

	err = svc.DeclineFriendRequest(friendship.ID, userA)
	assert.ErrorIs(t, err, ErrNotRecipient)
	assert.Equal(t, 1, repo.count())
}

func TestUnfriendAllowedForEitherParty(t *testing.T) {
	svc, repo := newTestService()

	friendship, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)
	_, err = svc.AcceptFriendRequest(friendship.ID, userB)
	require.NoError(t, err)

	// Once accepted the requester may remove it too, but outsiders may not
	err = svc.DeclineFriendRequest(friendship.ID, userC)
	assert.ErrorIs(t, err, ErrNotParticipant)

	require.NoError(t, svc.DeclineFriendRequest(friendship.ID, userA))
	assert.Equal(t, 0, repo.count())
}

func TestConfirmedFriendshipVisibleToBothSides(t *testing.T) {
	svc, _ := newTestService()

	friendship, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)
	_, err = svc.AcceptFriendRequest(friendship.ID, userB)
	require.NoError(t, err)

	friendsOfA, err := svc.GetFriends(userA)
	require.NoError(t, err)
	friendsOfB, err := svc.GetFriends(userB)
	require.NoError(t, err)

	require.Len(t, friendsOfA, 1)
	require.Len(t, friendsOfB, 1)
	assert.Equal(t, friendship.ID, friendsOfA[0].ID)
	assert.Equal(t, friendship.ID, friendsOfB[0].ID)
}

func TestPendingViewsAndCount(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)
	_, err = svc.SendFriendRequest(userC, userB)
	require.NoError(t, err)

	received, err := svc.GetPendingRequests(userB)
	require.NoError(t, err)
	assert.Len(t, received, 2)

	sent, err := svc.GetSentRequests(userA)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	count, err := svc.CountPendingRequests(userB)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestFriendshipStatusReporting(t *testing.T) {
	svc, _ := newTestService()

	status, err := svc.GetFriendshipStatus(userA, userB)
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipStatusNone, status)

	friendship, err := svc.SendFriendRequest(userA, userB)
	require.NoError(t, err)

	// Status is direction-independent
	status, _ = svc.GetFriendshipStatus(userB, userA)
	assert.Equal(t, model.FriendshipStatusPending, status)

	_, err = svc.AcceptFriendRequest(friendship.ID, userB)
	require.NoError(t, err)

	status, _ = svc.GetFriendshipStatus(userA, userB)
	assert.Equal(t, model.FriendshipStatusAccepted, status)
}
