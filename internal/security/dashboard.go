package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is how long a dashboard login lasts when no ttl is configured.
const DefaultTokenTTL = 12 * time.Hour

// DashboardGuard checks the admin password and issues HMAC tokens bound to a session id,
// so no login state has to be shared between replicas. Tokens carry their expiry; logout
// revokes a token on the replica that served it until it expires.
type DashboardGuard struct {
	hash   []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewDashboardGuard accepts either a plain password or a bcrypt hash of it.
// An empty secret is replaced by a random one, which invalidates tokens on restart.
func NewDashboardGuard(password, secret string, tokenTTL time.Duration) (*DashboardGuard, error) {
	if password == "" {
		return nil, fmt.Errorf("dashboard password is required")
	}

	hash := []byte(password)
	if _, err := bcrypt.Cost(hash); err != nil {
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash dashboard password: %w", err)
		}
	}

	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate dashboard secret: %w", err)
		}
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &DashboardGuard{
		hash:    hash,
		secret:  key,
		ttl:     tokenTTL,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}, nil
}

// CheckPassword reports whether password matches. Surrounding whitespace is ignored.
func (g *DashboardGuard) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(g.hash, []byte(strings.TrimSpace(password))) == nil
}

// Token returns a dashboard token for sessionID and the time it stops being accepted.
// The token is "<unix expiry>.<hex hmac>".
func (g *DashboardGuard) Token(sessionID string) (string, time.Time, error) {
	if sessionID == "" {
		return "", time.Time{}, fmt.Errorf("session ID is required")
	}
	expires := g.now().Add(g.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expires.Unix(), 10)
	return exp + "." + g.sign(sessionID, exp), expires, nil
}

// Authorized reports whether token is an unexpired, unrevoked dashboard token for sessionID.
func (g *DashboardGuard) Authorized(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	exp, mac, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil || !g.now().Before(time.Unix(unix, 0)) {
		return false
	}
	if !hmac.Equal([]byte(g.sign(sessionID, exp)), []byte(mac)) {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	_, revoked := g.revoked[token]
	return !revoked
}

// Revoke rejects token from now on. Expired entries are pruned as new ones arrive.
func (g *DashboardGuard) Revoke(token string) {
	exp, _, ok := strings.Cut(token, ".")
	if !ok {
		return
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return
	}
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()
	for t, until := range g.revoked {
		if !now.Before(until) {
			delete(g.revoked, t)
		}
	}
	if until := time.Unix(unix, 0); now.Before(until) {
		g.revoked[token] = until
	}
}

func (g *DashboardGuard) sign(sessionID, exp string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte("dashboard:" + sessionID + ":" + exp))
	return hex.EncodeToString(mac.Sum(nil))
}
