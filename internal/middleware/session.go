package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"config-envelope-service/pkg/httputil"
)

// SessionName は管理者セッションのCookie名。
const SessionName = "admin_session"

// sessionMaxAge は7日間（秒）。
const sessionMaxAge = 60 * 60 * 24 * 7

// セッションに保存するキー
const (
	sessionKeyAdmin = "admin"
	sessionKeyID    = "sid"
)

// NewSessionStore はCookieベースのセッションストアを生成する。
// secret が空の場合は起動ごとにランダムな鍵を使うため、再起動でセッションは無効になる。
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	key := []byte(secret)
	if len(key) == 0 {
		slog.Warn("SESSION_SECRET is not set, using an ephemeral key")
		key = securecookie.GenerateRandomKey(32)
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// IsAdmin はセッションが管理者として認証済みかどうかを返す。
func IsAdmin(sess *sessions.Session) bool {
	if sess == nil {
		return false
	}
	v, ok := sess.Values[sessionKeyAdmin].(bool)
	return ok && v
}

// MarkAdmin はセッションを認証済みにする。
func MarkAdmin(sess *sessions.Session, sessionID string) {
	sess.Values[sessionKeyAdmin] = true
	sess.Values[sessionKeyID] = sessionID
}

// SessionID はセッションIDを返す。未認証の場合は空文字。
func SessionID(sess *sessions.Session) string {
	id, _ := sess.Values[sessionKeyID].(string)
	return id
}

// RequireAdmin は管理者セッションのないリクエストを401で拒否する。
func RequireAdmin(store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 改ざん・期限切れのCookieはGetがエラーを返すが、未認証として扱う
			sess, _ := store.Get(r, SessionName)
			if !IsAdmin(sess) {
				WriteAuditLog(r.Context(), "ADMIN_ACCESS", r.URL.Path, ResultFailed)
				httputil.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
