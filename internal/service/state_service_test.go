package service_test

import (
	"testing"
	"time"

	"formgate/internal/cache"
	"formgate/internal/config"
	"formgate/internal/service"

	"gotest.tools/v3/assert"
)

func newStateService() *service.StateService {
	return service.NewStateService(cache.NewMemoryCache(time.Minute))
}

func TestStateLifecycle(t *testing.T) {
	states := newStateService()

	// Unknown state
	_, found := states.GetState("missing")
	assert.Assert(t, !found)

	// Put and get
	states.PutState("some-state")
	stored, found := states.GetState("some-state")
	assert.Assert(t, found)
	assert.Equal(t, "some-state", stored)

	// Forget
	states.ForgetState("some-state")
	_, found = states.GetState("some-state")
	assert.Assert(t, !found)
}

func TestNonceDualRecords(t *testing.T) {
	states := newStateService()

	states.PutNonce("some-state", "some-nonce")

	// Lookup by state
	nonce, found := states.GetNonceByState("some-state")
	assert.Assert(t, found)
	assert.Equal(t, "some-nonce", nonce)

	// Lookup by value
	nonce, found = states.GetNonceByValue("some-nonce")
	assert.Assert(t, found)
	assert.Equal(t, "some-nonce", nonce)

	// Forget removes both records
	states.ForgetNonce("some-state", "some-nonce")
	_, found = states.GetNonceByState("some-state")
	assert.Assert(t, !found)
	_, found = states.GetNonceByValue("some-nonce")
	assert.Assert(t, !found)
}

func TestPullContextIsSingleUse(t *testing.T) {
	states := newStateService()

	states.PutContext("user-1", config.PendingOAuthContext{
		Intention: "crm-sync",
		AutoClose: true,
	})

	pending, found := states.PullContext("user-1", "")
	assert.Assert(t, found)
	assert.Equal(t, "crm-sync", pending.Intention)
	assert.Equal(t, true, pending.AutoClose)

	// Second pull comes back empty
	_, found = states.PullContext("user-1", "")
	assert.Assert(t, !found)
}

func TestPullContextPrefersUserKey(t *testing.T) {
	states := newStateService()

	states.PutContext("user-1", config.PendingOAuthContext{Intention: "by-user"})
	states.PutContextForState("some-state", config.PendingOAuthContext{Intention: "by-state"})

	pending, found := states.PullContext("user-1", "some-state")
	assert.Assert(t, found)
	assert.Equal(t, "by-user", pending.Intention)

	// State-keyed record is still there for anonymous flows
	pending, found = states.PullContext("", "some-state")
	assert.Assert(t, found)
	assert.Equal(t, "by-state", pending.Intention)
}
