package chathub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"skillhub/backend/internal/chaterr"
	"skillhub/backend/internal/models"
	"skillhub/backend/internal/presence"
)

// CallState tracks where a session is in the ring/answer lifecycle.
type CallState int

const (
	CallRinging CallState = iota
	CallActive
)

// CallSession is the in-memory state of one two-party call. Sessions are
// never persisted; a restart drops every in-flight call and clients
// re-initiate.
type CallSession struct {
	Caller  string
	Callee  string
	RoomKey string
	State   CallState

	ringTimer *time.Timer
}

func (s *CallSession) involves(userID string) bool {
	return s.Caller == userID || s.Callee == userID
}

func (s *CallSession) peerOf(userID string) string {
	if s.Caller == userID {
		return s.Callee
	}
	return s.Caller
}

// PeerSender delivers one event to a user's current connection. It
// reports false when the user has no reachable connection.
type PeerSender interface {
	SendToUser(userID string, event models.Event) bool
}

// CallCoordinator relays WebRTC negotiation payloads between exactly two
// parties. Offers, answers and candidates are opaque blobs; the
// coordinator only decides who may talk to whom and whether the peer is
// reachable.
type CallCoordinator struct {
	mu       sync.Mutex
	sessions map[string]*CallSession // keyed by the unordered pair key

	Presence *presence.Registry
	Sender   PeerSender

	// RingTimeout ends unanswered calls. Zero disables the timer.
	RingTimeout time.Duration
}

func NewCallCoordinator(reg *presence.Registry, sender PeerSender, ringTimeout time.Duration) *CallCoordinator {
	return &CallCoordinator{
		sessions:    make(map[string]*CallSession),
		Presence:    reg,
		Sender:      sender,
		RingTimeout: ringTimeout,
	}
}

// Initiate opens a session and rings the callee. When the callee has no
// presence entry, no session is created and the call fails with
// chaterr.ErrPeerUnreachable so the caller can be told immediately. A
// still-pending session for the same pair is replaced; the latest
// initiate wins.
func (c *CallCoordinator) Initiate(caller, callee, callerName string, offer json.RawMessage, roomKey string) error {
	if _, ok := c.Presence.Connection(callee); !ok {
		log.Printf("Call from %s to %s: callee offline", caller, callee)
		return chaterr.ErrPeerUnreachable
	}

	key := models.RoomKey(caller, callee)

	c.mu.Lock()
	if old, ok := c.sessions[key]; ok && old.ringTimer != nil {
		old.ringTimer.Stop()
	}
	session := &CallSession{
		Caller:  caller,
		Callee:  callee,
		RoomKey: roomKey,
		State:   CallRinging,
	}
	if c.RingTimeout > 0 {
		session.ringTimer = time.AfterFunc(c.RingTimeout, func() { c.expire(key) })
	}
	c.sessions[key] = session
	c.mu.Unlock()

	c.Sender.SendToUser(callee, models.Event{
		Event: models.EventIncomingVideoCall,
		Data: models.IncomingVideoCallPayload{
			From:     caller,
			FromName: callerName,
			Offer:    offer,
			RoomID:   roomKey,
		},
	})
	return nil
}

// Accept relays the callee's answer to the caller and marks the session
// active. If the caller disconnected while ringing, the session ends, the
// answer is discarded and chaterr.ErrPeerUnreachable tells the callee the
// peer is gone.
func (c *CallCoordinator) Accept(callee, caller string, answer json.RawMessage) error {
	key := models.RoomKey(caller, callee)

	c.mu.Lock()
	session, ok := c.sessions[key]
	if !ok || session.State != CallRinging || session.Callee != callee {
		c.mu.Unlock()
		log.Printf("Dropping accept from %s for %s: no ringing session", callee, caller)
		return nil
	}

	if _, reachable := c.Presence.Connection(caller); !reachable {
		c.endLocked(key, session)
		c.mu.Unlock()
		return chaterr.ErrPeerUnreachable
	}

	session.State = CallActive
	if session.ringTimer != nil {
		session.ringTimer.Stop()
		session.ringTimer = nil
	}
	c.mu.Unlock()

	c.Sender.SendToUser(caller, models.Event{
		Event: models.EventVideoCallAccepted,
		Data:  models.VideoCallAcceptedPayload{From: callee, Answer: answer},
	})
	return nil
}

// Decline ends a ringing session and tells the caller, if reachable.
func (c *CallCoordinator) Decline(callee, caller string) {
	key := models.RoomKey(caller, callee)

	c.mu.Lock()
	if session, ok := c.sessions[key]; ok && session.Callee == callee {
		c.endLocked(key, session)
	}
	c.mu.Unlock()

	c.Sender.SendToUser(caller, models.Event{
		Event: models.EventVideoCallDeclined,
		Data:  models.VideoCallPeerPayload{From: callee},
	})
}

// Terminate ends the session between the two parties, issued by either
// one. The hangup is relayed to the peer even when no session is
// tracked; clients hang up through this path regardless of call state.
func (c *CallCoordinator) Terminate(initiator, peer string) {
	key := models.RoomKey(initiator, peer)

	c.mu.Lock()
	if session, ok := c.sessions[key]; ok && session.involves(initiator) {
		c.endLocked(key, session)
	}
	c.mu.Unlock()

	c.Sender.SendToUser(peer, models.Event{
		Event: models.EventVideoCallEnded,
		Data:  models.VideoCallPeerPayload{From: initiator},
	})
}

// RelayIceCandidate forwards an opaque candidate within a live session.
// Candidates with no session or no reachable peer are dropped without an
// error; they legitimately trickle in after hangup.
func (c *CallCoordinator) RelayIceCandidate(from, to string, candidate json.RawMessage) {
	key := models.RoomKey(from, to)

	c.mu.Lock()
	session, ok := c.sessions[key]
	valid := ok && session.involves(from)
	c.mu.Unlock()
	if !valid {
		return
	}

	c.Sender.SendToUser(to, models.Event{
		Event: models.EventIceCandidate,
		Data:  models.IceCandidateOutPayload{Candidate: candidate, From: from},
	})
}

// TerminateFor ends any session the user is part of, notifying the peer.
// The connection lifecycle manager calls this when a party disconnects.
func (c *CallCoordinator) TerminateFor(userID string) {
	var peers []string

	c.mu.Lock()
	for key, session := range c.sessions {
		if session.involves(userID) {
			peers = append(peers, session.peerOf(userID))
			c.endLocked(key, session)
		}
	}
	c.mu.Unlock()

	for _, peer := range peers {
		c.Sender.SendToUser(peer, models.Event{
			Event: models.EventVideoCallEnded,
			Data:  models.VideoCallPeerPayload{From: userID},
		})
	}
}

// ActiveSessions reports how many calls are currently tracked.
func (c *CallCoordinator) ActiveSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// expire fires from the ring timer when nobody answered in time.
func (c *CallCoordinator) expire(key string) {
	c.mu.Lock()
	session, ok := c.sessions[key]
	if !ok || session.State != CallRinging {
		c.mu.Unlock()
		return
	}
	c.endLocked(key, session)
	c.mu.Unlock()

	log.Printf("Call between %s and %s timed out while ringing", session.Caller, session.Callee)
	c.Sender.SendToUser(session.Caller, models.Event{
		Event: models.EventVideoCallEnded,
		Data:  models.VideoCallPeerPayload{From: session.Callee},
	})
	c.Sender.SendToUser(session.Callee, models.Event{
		Event: models.EventVideoCallEnded,
		Data:  models.VideoCallPeerPayload{From: session.Caller},
	})
}

// endLocked removes a session; callers hold c.mu.
func (c *CallCoordinator) endLocked(key string, session *CallSession) {
	if session.ringTimer != nil {
		session.ringTimer.Stop()
		session.ringTimer = nil
	}
	delete(c.sessions, key)
}
