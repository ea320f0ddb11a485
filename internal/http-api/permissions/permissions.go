// Package permissions holds the access-control predicates for the API.
// They are pure functions over (user, method, target author); callers turn a
// false result into a 403 (or 401 for anonymous requesters), never a panic.
package permissions

import (
	"net/http"

	"reviewhub/internal/http-api/models"
)

// IsSafeMethod reports whether method is a read-only HTTP verb that needs no
// special privilege.
func IsSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// IsAdmin reports whether user holds admin privileges. Anonymous requesters
// (nil user) are never admins.
func IsAdmin(user *models.User) bool {
	return user != nil && user.IsAdmin()
}

// CanWriteCatalog gates Category, Genre and Title writes: reads are open to
// everyone, writes require an authenticated admin.
func CanWriteCatalog(user *models.User, method string) bool {
	return IsSafeMethod(method) || IsAdmin(user)
}

// CanModifyFeedback gates Review and Comment mutations: reads are open,
// writes are allowed for the object's author, moderators and admins.
func CanModifyFeedback(user *models.User, method string, authorID string) bool {
	if IsSafeMethod(method) {
		return true
	}
	if user == nil {
		return false
	}
	return user.ID == authorID || user.IsAdmin() || user.IsModerator()
}
