package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/repository"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/jwt"
)

// ---- fakes ----

type fakeRepo struct {
	mu        sync.Mutex
	convs     map[uuid.UUID]*model.Conversation
	messages  []model.Message
	transfers []model.Transfer
	roles     map[uuid.UUID]string

	analyticsErr error
	gotFrom      time.Time
	gotTo        time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		convs: map[uuid.UUID]*model.Conversation{},
		roles: map[uuid.UUID]string{},
	}
}

func (f *fakeRepo) CreateConversation(_ context.Context, conv *model.Conversation, first *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv.Status = model.StatusOpen
	conv.UnreadStaff = 1
	conv.Tags = []string{}
	conv.LastMessage = first.Content
	cp := *conv
	f.convs[conv.ID] = &cp
	f.messages = append(f.messages, *first)
	return nil
}

func (f *fakeRepo) GetConversation(_ context.Context, id uuid.UUID) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) FindOpenByCustomer(_ context.Context, customerID uuid.UUID) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.CustomerID == customerID && c.Status == model.StatusOpen {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListConversations(_ context.Context, filter model.ConversationFilter) ([]model.Conversation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Conversation
	for _, c := range f.convs {
		if filter.CustomerID != nil && c.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeRepo) AddMessage(_ context.Context, msg *model.Message, e repository.MessageEffects) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.convs[msg.ConversationID]
	if c == nil || c.Status != model.StatusOpen {
		return model.ErrStateConflict
	}
	if e.IncUnreadCustomer {
		c.UnreadCustomer++
	}
	if e.IncUnreadStaff {
		c.UnreadStaff++
	}
	if e.ClaimStaff != nil && c.StaffID == nil {
		id := *e.ClaimStaff
		c.StaffID = &id
	}
	if e.FirstResponse && c.FirstResponseAt == nil {
		now := time.Now()
		c.FirstResponseAt = &now
	}
	c.LastMessage = msg.Content
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeRepo) ListMessages(_ context.Context, conversationID uuid.UUID, page, limit int) ([]model.Message, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) MarkRead(_ context.Context, conversationID uuid.UUID, reader model.SenderRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.convs[conversationID]
	if reader == model.SenderCustomer {
		c.UnreadCustomer = 0
	} else {
		c.UnreadStaff = 0
	}
	return nil
}

func (f *fakeRepo) AssignStaff(_ context.Context, conversationID uuid.UUID, expected *uuid.UUID, staffID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.convs[conversationID]
	if (expected == nil) != (c.StaffID == nil) || (expected != nil && *expected != *c.StaffID) {
		return model.ErrStateConflict
	}
	c.StaffID = &staffID
	return nil
}

func (f *fakeRepo) Transfer(_ context.Context, t *model.Transfer, notice *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.convs[t.ConversationID]
	to := t.ToStaffID
	c.StaffID = &to
	f.transfers = append(f.transfers, *t)
	f.messages = append(f.messages, *notice)
	return nil
}

func (f *fakeRepo) ListTransfers(_ context.Context, _ uuid.UUID) ([]model.Transfer, error) {
	return f.transfers, nil
}

func (f *fakeRepo) AddTag(_ context.Context, conversationID uuid.UUID, tag string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[conversationID]
	if !ok {
		return nil, model.ErrConversationNotFound
	}
	if !containsTag(c.Tags, tag) {
		c.Tags = append(c.Tags, tag)
	}
	return c.Tags, nil
}

func (f *fakeRepo) RemoveTag(_ context.Context, conversationID uuid.UUID, tag string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[conversationID]
	if !ok {
		return nil, model.ErrConversationNotFound
	}
	out := []string{}
	for _, t := range c.Tags {
		if t != tag {
			out = append(out, t)
		}
	}
	c.Tags = out
	return out, nil
}

func (f *fakeRepo) SetStatus(_ context.Context, conversationID uuid.UUID, from, to model.ConversationStatus, notice *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.convs[conversationID]
	if c.Status != from {
		return model.ErrStateConflict
	}
	c.Status = to
	f.messages = append(f.messages, *notice)
	return nil
}

func (f *fakeRepo) UnreadForCustomer(_ context.Context, customerID uuid.UUID) (int, error) {
	n := 0
	for _, c := range f.convs {
		if c.CustomerID == customerID {
			n += c.UnreadCustomer
		}
	}
	return n, nil
}

func (f *fakeRepo) UnreadForStaff(_ context.Context, staffID uuid.UUID) (int, error) {
	n := 0
	for _, c := range f.convs {
		if c.Status == model.StatusOpen && (c.StaffID == nil || *c.StaffID == staffID) {
			n += c.UnreadStaff
		}
	}
	return n, nil
}

func (f *fakeRepo) GetUserRole(_ context.Context, userID uuid.UUID) (string, error) {
	return f.roles[userID], nil
}

func (f *fakeRepo) CountByStatus(_ context.Context, from, to time.Time) (model.StatusCounts, error) {
	f.mu.Lock()
	f.gotFrom, f.gotTo = from, to
	f.mu.Unlock()
	return model.StatusCounts{Total: 5, Open: 2, Closed: 3}, nil
}

func (f *fakeRepo) CountMessages(context.Context, time.Time, time.Time) (int, error) {
	return 42, nil
}

func (f *fakeRepo) AvgFirstResponseSeconds(context.Context, time.Time, time.Time) (float64, error) {
	return 95.26, nil
}

func (f *fakeRepo) StaffHandled(context.Context, time.Time, time.Time) ([]model.StaffStat, error) {
	if f.analyticsErr != nil {
		return nil, f.analyticsErr
	}
	return []model.StaffStat{{StaffID: uuid.New(), StaffName: "Lan", Conversations: 3, Messages: 20}}, nil
}

func (f *fakeRepo) TagDistribution(context.Context, time.Time, time.Time) (map[string]int, error) {
	return map[string]int{"giao-hang": 2, "hoan-tien": 1}, nil
}

type pushed struct {
	userID    uuid.UUID
	eventType string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []pushed
}

func (n *fakeNotifier) SendToUser(userID uuid.UUID, eventType string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, pushed{userID, eventType})
}

func (n *fakeNotifier) to(userID uuid.UUID) []string {
	var out []string
	for _, e := range n.events {
		if e.userID == userID {
			out = append(out, e.eventType)
		}
	}
	return out
}

func newTestService() (*ChatService, *fakeRepo, *fakeNotifier) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	return NewChatService(repo, notifier), repo, notifier
}

func chatStatus(t *testing.T, err error) (string, int) {
	t.Helper()
	var ce *model.ChatError
	require.True(t, errors.As(err, &ce), "expected ChatError, got %v", err)
	return ce.Code, ce.HTTPStatus
}

// ---- tests ----

func TestStartConversation_ReusesOpenConversation(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	customer := uuid.New()

	first, err := svc.StartConversation(ctx, customer, model.StartConversationRequest{Message: "Shop ơi, hoa hồng còn không?"})
	require.NoError(t, err)
	assert.Equal(t, "Shop ơi, hoa hồng còn không?", first.Subject)

	second, err := svc.StartConversation(ctx, customer, model.StartConversationRequest{Subject: "khác", Message: "Cho mình hỏi thêm"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.convs, 1)
	assert.Equal(t, 2, second.UnreadStaff)
	assert.Len(t, repo.messages, 2)
}

func TestSendMessage_UnreadCountersAndAutoClaim(t *testing.T) {
	svc, repo, notifier := newTestService()
	ctx := context.Background()
	customer, staff := uuid.New(), uuid.New()

	conv, err := svc.StartConversation(ctx, customer, model.StartConversationRequest{Message: "Xin chào"})
	require.NoError(t, err)

	staffActor := Actor{UserID: staff, Role: jwt.RoleStaff}
	msg, err := svc.SendMessage(ctx, staffActor, conv.ID, model.SendMessageRequest{Content: "  Chào bạn  "})
	require.NoError(t, err)
	assert.Equal(t, model.SenderStaff, msg.SenderRole)
	assert.Equal(t, "Chào bạn", msg.Content)

	stored := repo.convs[conv.ID]
	require.NotNil(t, stored.StaffID)
	assert.Equal(t, staff, *stored.StaffID)
	assert.Equal(t, 1, stored.UnreadCustomer)
	assert.NotNil(t, stored.FirstResponseAt)
	assert.Equal(t, []string{shared.EventChatMessage}, notifier.to(customer))
	assert.Empty(t, notifier.to(staff))

	// customer trả lời -> staff được push
	_, err = svc.SendMessage(ctx, Actor{UserID: customer, Role: jwt.RoleCustomer}, conv.ID, model.SendMessageRequest{Content: "Cảm ơn"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.convs[conv.ID].UnreadStaff)
	assert.Equal(t, []string{shared.EventChatMessage}, notifier.to(staff))

	n, err := svc.UnreadCount(ctx, staffActor)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, svc.MarkRead(ctx, staffActor, conv.ID))
	n, err = svc.UnreadCount(ctx, staffActor)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = svc.UnreadCount(ctx, Actor{UserID: customer, Role: jwt.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSendMessage_Rules(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	customer := uuid.New()
	conv, err := svc.StartConversation(ctx, customer, model.StartConversationRequest{Message: "Hi"})
	require.NoError(t, err)

	t.Run("other customer forbidden", func(t *testing.T) {
		_, err := svc.SendMessage(ctx, Actor{UserID: uuid.New(), Role: jwt.RoleCustomer}, conv.ID, model.SendMessageRequest{Content: "x"})
		code, status := chatStatus(t, err)
		assert.Equal(t, model.ErrCodeForbidden, code)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		_, err := svc.SendMessage(ctx, Actor{UserID: customer, Role: jwt.RoleCustomer}, uuid.New(), model.SendMessageRequest{Content: "x"})
		assert.ErrorIs(t, err, model.ErrConversationNotFound)
	})

	t.Run("closed conversation", func(t *testing.T) {
		actor := Actor{UserID: customer, Role: jwt.RoleCustomer}
		_, err := svc.Close(ctx, actor, conv.ID)
		require.NoError(t, err)

		_, err = svc.SendMessage(ctx, actor, conv.ID, model.SendMessageRequest{Content: "x"})
		code, status := chatStatus(t, err)
		assert.Equal(t, model.ErrCodeClosed, code)
		assert.Equal(t, http.StatusConflict, status)
	})
}

func TestTransfer(t *testing.T) {
	svc, repo, notifier := newTestService()
	ctx := context.Background()
	customer, staffA, staffB, shipper := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	repo.roles[staffA] = jwt.RoleStaff
	repo.roles[staffB] = jwt.RoleStaff
	repo.roles[shipper] = jwt.RoleShipper

	conv, err := svc.StartConversation(ctx, customer, model.StartConversationRequest{Message: "Đơn của mình đâu rồi?"})
	require.NoError(t, err)
	_, err = svc.AssignToSelf(ctx, staffA, conv.ID)
	require.NoError(t, err)

	t.Run("target must be staff", func(t *testing.T) {
		_, err := svc.Transfer(ctx, staffA, conv.ID, model.TransferRequest{ToStaffID: shipper})
		code, _ := chatStatus(t, err)
		assert.Equal(t, model.ErrCodeInvalidStaff, code)
	})

	t.Run("same staff rejected", func(t *testing.T) {
		_, err := svc.Transfer(ctx, staffA, conv.ID, model.TransferRequest{ToStaffID: staffA})
		code, _ := chatStatus(t, err)
		assert.Equal(t, model.ErrCodeSameStaff, code)
	})

	t.Run("ok", func(t *testing.T) {
		updated, err := svc.Transfer(ctx, staffA, conv.ID, model.TransferRequest{ToStaffID: staffB, Note: "khách hỏi về hoàn tiền"})
		require.NoError(t, err)
		require.NotNil(t, updated.StaffID)
		assert.Equal(t, staffB, *updated.StaffID)

		require.Len(t, repo.transfers, 1)
		assert.Equal(t, staffA, *repo.transfers[0].FromStaffID)

		last := repo.messages[len(repo.messages)-1]
		assert.Equal(t, model.SenderSystem, last.SenderRole)
		assert.Contains(t, last.Content, "khách hỏi về hoàn tiền")
		assert.Nil(t, last.SenderID)

		assert.Equal(t, []string{shared.EventChatTransferred}, notifier.to(staffB))
		assert.Contains(t, notifier.to(customer), shared.EventChatMessage)
	})
}

func TestAssignToSelf_AlreadyTaken(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	customer, staffA, staffB := uuid.New(), uuid.New(), uuid.New()

	conv, err := svc.StartConversation(ctx, customer, model.StartConversationRequest{Message: "Hi"})
	require.NoError(t, err)

	_, err = svc.AssignToSelf(ctx, staffA, conv.ID)
	require.NoError(t, err)

	// nhận lại chính mình: no-op
	again, err := svc.AssignToSelf(ctx, staffA, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, staffA, *again.StaffID)

	_, err = svc.AssignToSelf(ctx, staffB, conv.ID)
	_, status := chatStatus(t, err)
	assert.Equal(t, http.StatusConflict, status)
}

func TestTags_NormalizedAndDeduplicated(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	conv, err := svc.StartConversation(ctx, uuid.New(), model.StartConversationRequest{Message: "Hi"})
	require.NoError(t, err)

	tags, err := svc.AddTag(ctx, conv.ID, "  Giao-Hang ")
	require.NoError(t, err)
	assert.Equal(t, []string{"giao-hang"}, tags)

	tags, err = svc.AddTag(ctx, conv.ID, "GIAO-HANG")
	require.NoError(t, err)
	assert.Equal(t, []string{"giao-hang"}, tags)

	_, err = svc.AddTag(ctx, conv.ID, "   ")
	code, _ := chatStatus(t, err)
	assert.Equal(t, model.ErrCodeInvalidTag, code)

	tags, err = svc.RemoveTag(ctx, conv.ID, "Giao-hang")
	require.NoError(t, err)
	assert.Empty(t, tags)

	_, err = svc.AddTag(ctx, uuid.New(), "vip")
	assert.ErrorIs(t, err, model.ErrConversationNotFound)
}

func TestTags_Limit(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	conv, err := svc.StartConversation(ctx, uuid.New(), model.StartConversationRequest{Message: "Hi"})
	require.NoError(t, err)

	for i := 0; i < model.MaxTags; i++ {
		repo.convs[conv.ID].Tags = append(repo.convs[conv.ID].Tags, string(rune('a'+i)))
	}

	_, err = svc.AddTag(ctx, conv.ID, "extra")
	code, _ := chatStatus(t, err)
	assert.Equal(t, model.ErrCodeInvalidTag, code)

	// tag đã có thì vẫn OK
	_, err = svc.AddTag(ctx, conv.ID, "a")
	assert.NoError(t, err)
}

func TestCloseReopen(t *testing.T) {
	svc, repo, notifier := newTestService()
	ctx := context.Background()
	customer, staff := uuid.New(), uuid.New()
	customerActor := Actor{UserID: customer, Role: jwt.RoleCustomer}
	staffActor := Actor{UserID: staff, Role: jwt.RoleStaff}

	conv, err := svc.StartConversation(ctx, customer, model.StartConversationRequest{Message: "Hi"})
	require.NoError(t, err)

	closed, err := svc.Close(ctx, staffActor, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, closed.Status)
	assert.Equal(t, []string{shared.EventChatClosed}, notifier.to(customer))

	_, err = svc.Close(ctx, staffActor, conv.ID)
	code, _ := chatStatus(t, err)
	assert.Equal(t, model.ErrCodeAlreadyClosed, code)

	// khách có hội thoại mới đang mở thì không được mở lại cái cũ
	other, err := svc.StartConversation(ctx, customer, model.StartConversationRequest{Message: "Hỏi việc khác"})
	require.NoError(t, err)
	assert.NotEqual(t, conv.ID, other.ID)

	_, err = svc.Reopen(ctx, customerActor, conv.ID)
	code, _ = chatStatus(t, err)
	assert.Equal(t, model.ErrCodeAlreadyOpen, code)

	// staff thì được
	reopened, err := svc.Reopen(ctx, staffActor, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, reopened.Status)
	assert.Equal(t, model.StatusOpen, repo.convs[conv.ID].Status)
}

func TestAnalytics(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	loc := time.UTC

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, loc)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, loc)

	res, err := svc.Analytics(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalConversations)
	assert.Equal(t, 2, res.OpenConversations)
	assert.Equal(t, 3, res.ClosedConversations)
	assert.Equal(t, 42, res.TotalMessages)
	assert.Equal(t, 95.3, res.AvgFirstResponseSeconds)
	assert.Len(t, res.StaffHandled, 1)
	assert.Equal(t, 2, res.TagDistribution["giao-hang"])

	// to tính trọn ngày 31/3
	assert.Equal(t, from, repo.gotFrom)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, loc), repo.gotTo)
}

func TestAnalytics_Errors(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Analytics(ctx, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	code, _ := chatStatus(t, err)
	assert.Equal(t, model.ErrCodeInvalidRange, code)

	repo.analyticsErr = errors.New("db down")
	_, err = svc.Analytics(ctx, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	assert.ErrorContains(t, err, "db down")
}
