package snapshot

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

// idArena maps original friend id references to the ids accepted by one
// import. It lives for a single Restore call.
type idArena struct {
	byKey    map[string]string
	accepted map[string]bool
}

func newIDArena() *idArena {
	return &idArena{byKey: make(map[string]string), accepted: make(map[string]bool)}
}

// refKey canonicalizes a raw id reference. Strings are keyed by their trimmed
// value; anything else by its compact JSON text.
func refKey(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	if s, ok := asString(raw); ok {
		if s == "" {
			return "", false
		}
		return "s:" + s, true
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", false
	}
	return "j:" + buf.String(), true
}

// claim returns the id a friend record should receive. String ids are kept;
// malformed ids get a generated id that every later reference to the same
// raw value resolves to. Missing ids and the reserved You id get a fresh id
// that no reference can reach.
func (a *idArena) claim(raw json.RawMessage) (id string, generated bool) {
	key, ok := refKey(raw)
	if !ok || isYou(raw) {
		return newFriendID(), true
	}
	if s, isStr := asString(raw); isStr {
		return s, false
	}
	if id, seen := a.byKey[key]; seen {
		return id, true
	}
	id = newFriendID()
	a.byKey[key] = id
	return id, true
}

// accept registers id as a known friend reachable from raw. References to
// You always mean the owner, never a friend.
func (a *idArena) accept(raw json.RawMessage, id string) {
	a.accepted[id] = true
	if isYou(raw) {
		return
	}
	if key, ok := refKey(raw); ok {
		a.byKey[key] = id
	}
}

// alias makes references to raw resolve to target.
func (a *idArena) alias(raw json.RawMessage, target string) {
	if isYou(raw) {
		return
	}
	if key, ok := refKey(raw); ok {
		a.byKey[key] = target
	}
}

// resolve maps a reference to an accepted friend id.
func (a *idArena) resolve(raw json.RawMessage) (string, bool) {
	key, ok := refKey(raw)
	if !ok {
		return "", false
	}
	id, ok := a.byKey[key]
	if !ok || !a.accepted[id] {
		return "", false
	}
	return id, true
}

func (a *idArena) known(id string) bool {
	return a.accepted[id]
}

func newFriendID() string {
	return "friend-" + uuid.NewString()
}

// isYou reports whether raw is the reserved You participant id.
func isYou(raw json.RawMessage) bool {
	s, ok := asString(raw)
	return ok && s == models.You
}
