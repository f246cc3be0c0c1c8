package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"community-automation-bot/internal/features/giveaway/models"
	"community-automation-bot/internal/features/premium"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepFinalizesOverdueGiveaways(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	g := startWithParticipants(t, repo, gw, svc, "u1", "u2")

	// Force the deadline into the past.
	repo.mu.Lock()
	repo.records[g.MessageID].EndsAt = time.Now().Add(-time.Minute)
	repo.mu.Unlock()

	exp := NewExpirationService(svc, repo, time.Hour)
	exp.sweep()

	stored, err := repo.GetByID(context.Background(), g.MessageID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusEnded, stored.Status)
	assert.NotEmpty(t, stored.WinnerIDs)
}

func TestSweepIgnoresFutureGiveaways(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	g := startWithParticipants(t, repo, gw, svc, "u1")

	exp := NewExpirationService(svc, repo, time.Hour)
	exp.sweep()

	stored, err := repo.GetByID(context.Background(), g.MessageID)
	require.NoError(t, err)
	assert.True(t, stored.IsOpen())
}

func TestOverlappingSweepsAnnounceOnce(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)
	g := startWithParticipants(t, repo, gw, svc, "u1", "u2")

	repo.mu.Lock()
	repo.records[g.MessageID].EndsAt = time.Now().Add(-time.Minute)
	repo.mu.Unlock()

	exp := NewExpirationService(svc, repo, time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exp.sweep()
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

func TestStartStopLifecycle(t *testing.T) {
	repo, gw := newFakeRepo(), newGatewayFake()
	svc := newService(repo, gw, premium.TierNone)

	exp := NewExpirationService(svc, repo, 10*time.Millisecond)
	exp.Start()
	time.Sleep(30 * time.Millisecond)
	exp.Stop()
}
