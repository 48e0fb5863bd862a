package infrastructure

import "sync"

// ReplyGuard tracks conversations with a reply in flight so a second send to
// the same conversation is refused instead of interleaving with the first.
// Keys are scoped by company. It only covers the current process.
type ReplyGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewReplyGuard() *ReplyGuard {
	return &ReplyGuard{inFlight: make(map[string]struct{})}
}

func replyKey(companyID, conversationID string) string {
	return companyID + ":" + conversationID
}

// TryAcquire marks the company's conversation busy. It returns false when a reply is already running.
func (g *ReplyGuard) TryAcquire(companyID, conversationID string) bool {
	key := replyKey(companyID, conversationID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[key]; busy {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

func (g *ReplyGuard) Release(companyID, conversationID string) {
	g.mu.Lock()
	delete(g.inFlight, replyKey(companyID, conversationID))
	g.mu.Unlock()
}

func (g *ReplyGuard) busy(companyID, conversationID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[replyKey(companyID, conversationID)]
	return busy
}
