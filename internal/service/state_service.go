package service

import (
	"encoding/json"
	"time"

	"formgate/internal/cache"
	"formgate/internal/config"

	"github.com/rs/zerolog/log"
)

// StateService is the short-lived key-value store holding CSRF state,
// replay-protection nonces and pending OAuth context. Every write made
// while generating a redirect has a matching delete on the callback path,
// the TTL bounds leaks when the callback never arrives.
type StateService struct {
	Cache cache.Cache
}

func NewStateService(cache cache.Cache) *StateService {
	return &StateService{
		Cache: cache,
	}
}

func (state *StateService) PutState(stateToken string) {
	state.Cache.Set(config.StateKeyPrefix+stateToken, []byte(stateToken), time.Duration(config.StateTTL)*time.Second)
}

func (state *StateService) GetState(stateToken string) (string, bool) {
	value, found := state.Cache.Get(config.StateKeyPrefix + stateToken)
	if !found {
		return "", false
	}
	return string(value), true
}

func (state *StateService) ForgetState(stateToken string) {
	state.Cache.Forget(config.StateKeyPrefix + stateToken)
}

// PutNonce stores the nonce twice: keyed by state and keyed by its own
// value. Some providers do not echo the state back through the client
// reliably, the by-value record is the fallback lookup path.
func (state *StateService) PutNonce(stateToken string, nonce string) {
	ttl := time.Duration(config.StateTTL) * time.Second
	state.Cache.Set(config.NonceKeyPrefix+stateToken, []byte(nonce), ttl)
	state.Cache.Set(config.NonceValueKeyPrefix+nonce, []byte(nonce), ttl)
}

func (state *StateService) GetNonceByState(stateToken string) (string, bool) {
	value, found := state.Cache.Get(config.NonceKeyPrefix + stateToken)
	if !found {
		return "", false
	}
	return string(value), true
}

func (state *StateService) GetNonceByValue(nonce string) (string, bool) {
	value, found := state.Cache.Get(config.NonceValueKeyPrefix + nonce)
	if !found {
		return "", false
	}
	return string(value), true
}

// ForgetNonce removes both nonce records. Called after validation,
// success or failure, so each nonce is usable at most once.
func (state *StateService) ForgetNonce(stateToken string, nonce string) {
	state.Cache.Forget(config.NonceKeyPrefix + stateToken)
	state.Cache.Forget(config.NonceValueKeyPrefix + nonce)
}

func (state *StateService) PutContext(key string, pending config.PendingOAuthContext) {
	value, err := json.Marshal(pending)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal pending OAuth context")
		return
	}
	state.Cache.Set(config.ContextKeyPrefix+key, value, time.Duration(config.ContextTTL)*time.Second)
}

func (state *StateService) PutContextForState(stateToken string, pending config.PendingOAuthContext) {
	value, err := json.Marshal(pending)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal pending OAuth context")
		return
	}
	state.Cache.Set(config.ContextStateKeyPrefix+stateToken, value, time.Duration(config.ContextTTL)*time.Second)
}

// PullContext reads and deletes the pending context for the given user
// and state keys, preferring the user-keyed record.
func (state *StateService) PullContext(userID string, stateToken string) (config.PendingOAuthContext, bool) {
	keys := []string{}
	if userID != "" {
		keys = append(keys, config.ContextKeyPrefix+userID)
	}
	if stateToken != "" {
		keys = append(keys, config.ContextStateKeyPrefix+stateToken)
	}

	for _, key := range keys {
		value, found := state.Cache.Get(key)
		if !found {
			continue
		}
		state.Cache.Forget(key)

		var pending config.PendingOAuthContext
		if err := json.Unmarshal(value, &pending); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to unmarshal pending OAuth context")
			return config.PendingOAuthContext{}, false
		}
		return pending, true
	}

	return config.PendingOAuthContext{}, false
}
