package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "community-automation-bot/internal/common/errors"
	"community-automation-bot/internal/features/giveaway/models"
	"community-automation-bot/internal/features/giveaway/repository"
	"community-automation-bot/internal/features/premium"
	"community-automation-bot/internal/platform/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu           sync.Mutex
	records      map[string]*models.Giveaway
	createErr    error
	markEndedErr error // one-shot
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*models.Giveaway)}
}

func (f *fakeRepo) Create(_ context.Context, g *models.Giveaway) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *g
	f.records[g.MessageID] = &clone
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*models.Giveaway, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.records[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	clone := *g
	return &clone, nil
}

func (f *fakeRepo) CountOpenByGuild(_ context.Context, guildID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, g := range f.records {
		if g.GuildID == guildID && g.Status == models.GiveawayStatusOpen {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) GetExpired(_ context.Context, now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, g := range f.records {
		if g.Status == models.GiveawayStatusOpen && g.IsDue(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeRepo) MarkEnded(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markEndedErr != nil {
		err := f.markEndedErr
		f.markEndedErr = nil
		return false, err
	}
	g, ok := f.records[id]
	if !ok || g.Status != models.GiveawayStatusOpen {
		return false, nil
	}
	g.Status = models.GiveawayStatusEnded
	g.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeRepo) SetWinners(_ context.Context, id string, winnerIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.records[id]
	if !ok {
		return repository.ErrGiveawayNotFound
	}
	g.WinnerIDs = winnerIDs
	return nil
}

type fakeGateway struct {
	mu          sync.Mutex
	botID       string
	nextID      int
	sent        []*gateway.Message
	reactions   []string // "channel/message/emoji"
	reactors    map[string][]string
	sendErr     error
	reactionErr error
}

func newGatewayFake() *fakeGateway {
	return &fakeGateway{botID: "bot-1", reactors: make(map[string][]string)}
}

func (f *fakeGateway) BotUserID() string { return f.botID }

func (f *fakeGateway) FetchMessage(_ context.Context, channelID, messageID string) (*gateway.Message, error) {
	return &gateway.Message{ID: messageID, ChannelID: channelID}, nil
}

func (f *fakeGateway) SendMessage(_ context.Context, channelID, content string) (*gateway.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg := &gateway.Message{
		ID:        fmt.Sprintf("announce-%d", f.nextID),
		ChannelID: channelID,
		AuthorID:  f.botID,
		Content:   content,
	}
	f.sent = append(f.sent, msg)
	return msg, nil
}

func (f *fakeGateway) AddReaction(_ context.Context, channelID, messageID string, emoji gateway.Emoji) error {
	if f.reactionErr != nil {
		return f.reactionErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, channelID+"/"+messageID+"/"+emoji.Name)
	return nil
}

func (f *fakeGateway) FetchReactors(_ context.Context, _, messageID string, emoji gateway.Emoji) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reactors[messageID+"/"+emoji.Name], nil
}

func (f *fakeGateway) GrantRole(_ context.Context, _, _, _, _ string) error  { return nil }
func (f *fakeGateway) RevokeRole(_ context.Context, _, _, _, _ string) error { return nil }

func (f *fakeGateway) sentContents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Content
	}
	return out
}

type staticResolver struct{ tier premium.Tier }

func (s staticResolver) FetchPremiumTier(context.Context, string) (premium.Tier, error) {
	return s.tier, nil
}

func newService(repo *fakeRepo, gw *fakeGateway, tier premium.Tier) Service {
	gate := premium.NewQuotaGate(staticResolver{tier: tier}, repo, premium.HomeGuildExemption("home-guild"))
	return NewService(repo, gw, gate)
}

func sourceMessage() *gateway.Message {
	return &gateway.Message{
		ID:        "cmd-1",
		ChannelID: "chan-1",
		GuildID:   "guild-1",
		AuthorID:  "operator",
	}
}

func TestStartCreatesOpenGiveaway(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)

	g, err := svc.Start(context.Background(), sourceMessage(), "a rubber duck", 3, 3)
	require.NoError(t, err)

	assert.Equal(t, models.GiveawayStatusOpen, g.Status)
	assert.Equal(t, 3, g.Winners)
	assert.Equal(t, "guild-1", g.GuildID)
	assert.WithinDuration(t, time.Now().Add(3*time.Hour), g.EndsAt, time.Minute)

	// The record is keyed by the announcement message id.
	stored, err := repo.GetByID(context.Background(), g.MessageID)
	require.NoError(t, err)
	assert.Equal(t, "a rubber duck", stored.Item)

	// Both participation reactions were attached.
	require.Len(t, gw.reactions, 2)
	assert.Contains(t, gw.reactions[0], "🎊")
	assert.Contains(t, gw.reactions[1], "🎉")
}

func TestSecondConcurrentGiveawayDenied(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	ctx := context.Background()

	_, err := svc.Start(ctx, sourceMessage(), "first", 3, 1)
	require.NoError(t, err)

	_, err = svc.Start(ctx, sourceMessage(), "second", 3, 1)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodePremiumRequired, appErr.Code)
}

func TestHomeGuildSkipsQuota(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	ctx := context.Background()

	src := sourceMessage()
	src.GuildID = "home-guild"

	for i := 0; i < 4; i++ {
		_, err := svc.Start(ctx, src, fmt.Sprintf("item %d", i), 720, 1)
		require.NoError(t, err)
	}
}

func TestStartRejectsInvalidWinners(t *testing.T) {
	svc := newService(newFakeRepo(), newGatewayFake(), premium.TierNone)

	_, err := svc.Start(context.Background(), sourceMessage(), "item", 3, 0)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidWinners, appErr.Code)
}

func TestStartAbortsWhenPersistenceFails(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	repo.createErr = errors.New("store down")
	svc := newService(repo, gw, premium.TierNone)

	_, err := svc.Start(context.Background(), sourceMessage(), "item", 3, 1)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, appErr.Code)

	// The announcement went out before the failure; the orphan must read
	// as "not a giveaway" and no reactions are attached to it.
	assert.Len(t, gw.sent, 1)
	assert.Empty(t, gw.reactions)
	_, err = svc.Get(context.Background(), gw.sent[0].ID)
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsNotFound())
}

func TestStartSurvivesReactionFailure(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	gw.reactionErr = errors.New("missing permissions")
	svc := newService(repo, gw, premium.TierNone)

	g, err := svc.Start(context.Background(), sourceMessage(), "item", 3, 1)
	require.NoError(t, err)

	stored, err := repo.GetByID(context.Background(), g.MessageID)
	require.NoError(t, err)
	assert.True(t, stored.IsOpen())
}

func startWithParticipants(t *testing.T, repo *fakeRepo, gw *fakeGateway, svc Service, participants ...string) *models.Giveaway {
	t.Helper()
	g, err := svc.Start(context.Background(), sourceMessage(), "prize", 3, 2)
	require.NoError(t, err)
	gw.reactors[g.MessageID+"/🎊"] = append([]string{gw.botID}, participants...)
	return g
}

func TestFinalizeDrawsWinnersExcludingBot(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	g := startWithParticipants(t, repo, gw, svc, "u1", "u2", "u3")

	require.NoError(t, svc.Finalize(context.Background(), g.MessageID))

	stored, err := repo.GetByID(context.Background(), g.MessageID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusEnded, stored.Status)
	require.Len(t, stored.WinnerIDs, 2)
	for _, id := range stored.WinnerIDs {
		assert.NotEqual(t, gw.botID, id)
		assert.Contains(t, []string{"u1", "u2", "u3"}, id)
	}
	assert.NotEqual(t, stored.WinnerIDs[0], stored.WinnerIDs[1])
}

func TestFinalizeTwiceAnnouncesOnce(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	g := startWithParticipants(t, repo, gw, svc, "u1", "u2")

	ctx := context.Background()
	require.NoError(t, svc.Finalize(ctx, g.MessageID))
	require.NoError(t, svc.Finalize(ctx, g.MessageID))

	var resultAnnouncements int
	for _, content := range gw.sentContents() {
		if strings.Contains(content, "Congratulations") {
			resultAnnouncements++
		}
	}
	assert.Equal(t, 1, resultAnnouncements)
}

func TestConcurrentFinalizeEndsOnce(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	g := startWithParticipants(t, repo, gw, svc, "u1", "u2")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Finalize(context.Background(), g.MessageID)
		}()
	}
	wg.Wait()

	var resultAnnouncements int
	for _, content := range gw.sentContents() {
		if strings.Contains(content, "Congratulations") {
			resultAnnouncements++
		}
	}
	assert.Equal(t, 1, resultAnnouncements)
}

func TestFailedTransitionLeavesGiveawayFinalizeable(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	g := startWithParticipants(t, repo, gw, svc, "u1", "u2")

	ctx := context.Background()
	repo.markEndedErr = errors.New("connection reset")
	err := svc.Finalize(ctx, g.MessageID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, appErr.Code)

	// The failed attempt must not half-apply the transition: the record
	// stays open so a later sweep can finalize it.
	stored, err := repo.GetByID(ctx, g.MessageID)
	require.NoError(t, err)
	assert.True(t, stored.IsOpen())
	assert.Empty(t, stored.WinnerIDs)

	require.NoError(t, svc.Finalize(ctx, g.MessageID))
	stored, err = repo.GetByID(ctx, g.MessageID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusEnded, stored.Status)
	assert.NotEmpty(t, stored.WinnerIDs)

	var resultAnnouncements int
	for _, content := range gw.sentContents() {
		if strings.Contains(content, "Congratulations") {
			resultAnnouncements++
		}
	}
	assert.Equal(t, 1, resultAnnouncements)
}

func TestFinalizeWithNoParticipantsAnnouncesNoWinner(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)

	g, err := svc.Start(context.Background(), sourceMessage(), "prize", 3, 2)
	require.NoError(t, err)
	// Only the bot reacted.
	gw.reactors[g.MessageID+"/🎊"] = []string{gw.botID}

	require.NoError(t, svc.Finalize(context.Background(), g.MessageID))

	stored, err := repo.GetByID(context.Background(), g.MessageID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusEnded, stored.Status)
	assert.Empty(t, stored.WinnerIDs)

	contents := gw.sentContents()
	assert.Contains(t, contents[len(contents)-1], "no winner")
}

func TestParticipantsDedupedAcrossEmoji(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)

	g, err := svc.Start(context.Background(), sourceMessage(), "prize", 3, 5)
	require.NoError(t, err)
	gw.reactors[g.MessageID+"/🎊"] = []string{"u1", "u2"}
	gw.reactors[g.MessageID+"/🎉"] = []string{"u2", "u3"}

	require.NoError(t, svc.Finalize(context.Background(), g.MessageID))

	stored, err := repo.GetByID(context.Background(), g.MessageID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, stored.WinnerIDs)
}

func TestRerollRedrawsWithoutReopening(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	g := startWithParticipants(t, repo, gw, svc, "u1", "u2", "u3")

	ctx := context.Background()
	require.NoError(t, svc.Finalize(ctx, g.MessageID))
	require.NoError(t, svc.Reroll(ctx, g.MessageID, false))

	stored, err := repo.GetByID(ctx, g.MessageID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusEnded, stored.Status)
	assert.Len(t, stored.WinnerIDs, 2)
}

func TestRerollExcludesPreviousWinners(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	g := startWithParticipants(t, repo, gw, svc, "u1", "u2", "u3", "u4")

	ctx := context.Background()
	require.NoError(t, svc.Finalize(ctx, g.MessageID))
	first, err := repo.GetByID(ctx, g.MessageID)
	require.NoError(t, err)
	require.Len(t, first.WinnerIDs, 2)

	require.NoError(t, svc.Reroll(ctx, g.MessageID, true))
	second, err := repo.GetByID(ctx, g.MessageID)
	require.NoError(t, err)
	require.Len(t, second.WinnerIDs, 2)
	for _, id := range second.WinnerIDs {
		assert.NotContains(t, first.WinnerIDs, id)
	}
}

func TestRerollOnOpenGiveawayEndsIt(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	g := startWithParticipants(t, repo, gw, svc, "u1")

	require.NoError(t, svc.Reroll(context.Background(), g.MessageID, false))

	stored, err := repo.GetByID(context.Background(), g.MessageID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusEnded, stored.Status)
}

func TestRerollUnknownGiveaway(t *testing.T) {
	svc := newService(newFakeRepo(), newGatewayFake(), premium.TierNone)

	err := svc.Reroll(context.Background(), "missing", false)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeGiveawayNotFound, appErr.Code)
}

func TestHandleCommandRequiresItem(t *testing.T) {
	svc := newService(newFakeRepo(), newGatewayFake(), premium.TierNone)

	err := svc.HandleCommand(context.Background(), sourceMessage(), CommandArgs{Remainder: "   "})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidSyntax, appErr.Code)
}

func TestHandleCommandStartsWithDefaults(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)

	err := svc.HandleCommand(context.Background(), sourceMessage(), CommandArgs{Remainder: "a shiny prize"})
	require.NoError(t, err)

	require.Len(t, gw.sent, 1)
	g, err := repo.GetByID(context.Background(), gw.sent[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultWinners, g.Winners)
	assert.WithinDuration(t, time.Now().Add(models.DefaultTimeoutHours*time.Hour), g.EndsAt, time.Minute)
}

func TestHandleCommandClampsTimeout(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierGold)

	over := 9000
	err := svc.HandleCommand(context.Background(), sourceMessage(), CommandArgs{Remainder: "prize", Timeout: &over})
	// Clamped to 720, which still exceeds the GOLD allowance of 168.
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeTierLimitExceeded, appErr.Code)
	assert.Equal(t, 168, appErr.Details["max"])
}

func TestHandleCommandWithGiveawayIDRerolls(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	g := startWithParticipants(t, repo, gw, svc, "u1", "u2")

	ctx := context.Background()
	require.NoError(t, svc.Finalize(ctx, g.MessageID))

	err := svc.HandleCommand(ctx, sourceMessage(), CommandArgs{Remainder: g.MessageID})
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, g.MessageID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusEnded, stored.Status)
	assert.NotEmpty(t, stored.WinnerIDs)
}
