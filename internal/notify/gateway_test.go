package notify

import (
	"context"
	"errors"
	"testing"

	"labportal/internal/database"
	"labportal/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "msg-1", nil
}

type mockBot struct {
	mock.Mock
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func newHistory(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGatewayRoutesByAudienceAndStoresHistory(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	user := &recordingSender{}
	admin := &recordingSender{}
	history := newHistory(t)
	g := NewGateway(user, admin, []string{"lab-admin@example.edu"}, history, &logger)

	res := g.Notify(ctx, models.NotifyStatusApproved, labBooking(), models.NotifyContext{})
	assert.True(t, res.Success)
	assert.Equal(t, "msg-1", res.MessageID)

	res = g.Notify(ctx, models.NotifyConflictClearedAdmin, labBooking(), models.NotifyContext{RelatedBookingID: "R"})
	assert.True(t, res.Success)

	require.Len(t, user.sent, 1)
	assert.Equal(t, "ana@example.edu", user.sent[0].Recipient)
	require.Len(t, admin.sent, 1)
	assert.Equal(t, "lab-admin@example.edu", admin.sent[0].Recipient)

	recs, err := history.ListNotifications(ctx, "A")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, models.NotifyStatusApproved, recs[0].Kind)
	assert.Equal(t, models.NotifyConflictClearedAdmin, recs[1].Kind)
}

func TestGatewayFailureIsReportedNotReturned(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	history := newHistory(t)
	g := NewGateway(&recordingSender{err: errors.New("smtp down")}, &recordingSender{}, nil, history, &logger)

	res := g.Notify(ctx, models.NotifyStatusDeclined, labBooking(), models.NotifyContext{})
	assert.False(t, res.Success)
	assert.Equal(t, "smtp down", res.Error)

	recs, err := history.ListNotifications(ctx, "A")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Success)
	assert.Equal(t, "smtp down", recs[0].Error)
}

func TestTelegramSenderPostsToEveryChat(t *testing.T) {
	bot := new(mockBot)
	bot.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		m, ok := c.(tgbotapi.MessageConfig)
		return ok && m.ChatID == 10
	})).Return(tgbotapi.Message{MessageID: 5}, nil)
	bot.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		m, ok := c.(tgbotapi.MessageConfig)
		return ok && m.ChatID == 20
	})).Return(tgbotapi.Message{}, errors.New("chat not found"))

	s := NewTelegramSender(bot, []int64{10, 20})
	id, err := s.Send(context.Background(), Message{Subject: "s", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, "5", id)
	bot.AssertNumberOfCalls(t, "Send", 2)
}

func TestTelegramSenderAllChatsFail(t *testing.T) {
	bot := new(mockBot)
	bot.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("unauthorized"))

	s := NewTelegramSender(bot, []int64{10})
	_, err := s.Send(context.Background(), Message{Subject: "s"})
	assert.ErrorContains(t, err, "unauthorized")

	_, err = NewTelegramSender(bot, nil).Send(context.Background(), Message{})
	assert.Error(t, err)
}

func TestLogSenderAndMultiSender(t *testing.T) {
	logger := zerolog.Nop()
	ls := NewLogSender(&logger)

	id, err := ls.Send(context.Background(), Message{Recipient: "a@b.c", Subject: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = ls.Send(context.Background(), Message{})
	assert.Error(t, err)

	multi := MultiSender{&recordingSender{err: errors.New("down")}, ls}
	id, err = multi.Send(context.Background(), Message{Recipient: "a@b.c"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = MultiSender{}.Send(context.Background(), Message{})
	assert.Error(t, err)
}
