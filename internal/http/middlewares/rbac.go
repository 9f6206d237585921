package middlewares

import "net/http"

func RequireAdmin() Gate {
	return RequireAdminStatus(http.StatusForbidden)
}

// RequireAdminStatus is RequireAdmin with a route-chosen status for identified
// non-admins. Unauthenticated callers always get 401.
func RequireAdminStatus(status int) Gate {
	message := msgForbidden
	if status == http.StatusUnauthorized {
		message = msgUnauthorized
	}

	return Gate{
		Name: "require_admin",
		Check: func(gc GateContext) (GateContext, *Rejection) {
			claims, ok := gc.Claims()
			if !ok {
				return gc, &Rejection{Status: http.StatusUnauthorized, Message: msgUnauthorized}
			}

			if !claims.IsAdmin {
				return gc, &Rejection{Status: status, Message: message}
			}
			return gc, nil
		},
	}
}
