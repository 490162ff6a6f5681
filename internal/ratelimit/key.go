package ratelimit

import (
	"strconv"
	"strings"
)

// authenticatedMultiplier widens the budget for signed-in owners, whose
// dashboard fans out into several requests per page.
const authenticatedMultiplier = 5

// Resolve picks the scope for a request: the account when one is
// authenticated, otherwise the client address.
func Resolve(perSecond int, userID uint64, clientIP string) Decision {
	if perSecond <= 0 {
		return Decision{}
	}
	if userID > 0 {
		return Decision{Limit: perSecond * authenticatedMultiplier, Scope: ScopeUser, UserID: userID}
	}
	clientIP = strings.TrimSpace(clientIP)
	if clientIP == "" {
		return Decision{}
	}
	return Decision{Limit: perSecond, Scope: ScopeClient, ClientIP: clientIP}
}

// Key is the counter name for the decision: "u:<id>" for accounts and
// "ip:<addr>" for anonymous clients. It is empty when nothing is counted.
func (d Decision) Key() string {
	switch d.Scope {
	case ScopeUser:
		if d.UserID == 0 {
			return ""
		}
		return "u:" + strconv.FormatUint(d.UserID, 10)
	case ScopeClient:
		if d.ClientIP == "" {
			return ""
		}
		return "ip:" + d.ClientIP
	default:
		return ""
	}
}
