package http

import (
	"net/http"

	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/pkg/httputil"
)

// NotificationsView is a drained batch of toasts.
type NotificationsView struct {
	Items   []notify.Notification `json:"items"`
	Dropped int                   `json:"dropped"`
}

// DrainNotifications handles GET /api/v1/sessions/{sessionID}/notifications.
// Each notification is returned once.
func DrainNotifications(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: NotificationsView{Items: s.Outbox.Drain(), Dropped: s.Outbox.Dropped()},
	})
}
