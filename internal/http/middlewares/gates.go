package middlewares

import (
	"net/http"

	"github.com/geocoder89/bankly/internal/auth"
)

const (
	msgUnauthorized = "Unauthorized"
	msgForbidden    = "Forbidden: Admin privileges required"
)

// GateContext is the immutable view of a request that gates decide on.
// A nil claims pointer means the request is unauthenticated.
type GateContext struct {
	claims *auth.Claims
	params map[string]string
}

func NewGateContext(claims *auth.Claims, params map[string]string) GateContext {
	gc := GateContext{params: make(map[string]string, len(params))}

	if claims != nil {
		c := *claims
		gc.claims = &c
	}
	for k, v := range params {
		gc.params[k] = v
	}

	return gc
}

func (g GateContext) Identified() bool {
	return g.claims != nil
}

func (g GateContext) Claims() (auth.Claims, bool) {
	if g.claims == nil {
		return auth.Claims{}, false
	}
	return *g.claims, true
}

func (g GateContext) Param(name string) string {
	return g.params[name]
}

// Rejection is a terminal gate result.
type Rejection struct {
	Status  int
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

// Gate either passes a (possibly narrowed) context on or rejects the request.
type Gate struct {
	Name  string
	Check func(GateContext) (GateContext, *Rejection)
}

// Run applies gates in order. On rejection it also returns the failing gate's name.
func Run(gc GateContext, gates ...Gate) (GateContext, *Rejection, string) {
	for _, g := range gates {
		next, rejection := g.Check(gc)
		if rejection != nil {
			return gc, rejection, g.Name
		}
		gc = next
	}
	return gc, nil, ""
}

func RequireLogin() Gate {
	return Gate{
		Name: "require_login",
		Check: func(gc GateContext) (GateContext, *Rejection) {
			if !gc.Identified() {
				return gc, &Rejection{Status: http.StatusUnauthorized, Message: msgUnauthorized}
			}
			return gc, nil
		},
	}
}

// RequireSameUserOrAdmin lets the request through when the caller owns the
// resource named by the route param, or is an admin.
func RequireSameUserOrAdmin(param string) Gate {
	return Gate{
		Name: "require_same_user_or_admin",
		Check: func(gc GateContext) (GateContext, *Rejection) {
			claims, ok := gc.Claims()
			if !ok {
				return gc, &Rejection{Status: http.StatusUnauthorized, Message: msgUnauthorized}
			}

			if claims.IsAdmin || (claims.Username != "" && claims.Username == gc.Param(param)) {
				return gc, nil
			}

			return gc, &Rejection{Status: http.StatusUnauthorized, Message: msgUnauthorized}
		},
	}
}
