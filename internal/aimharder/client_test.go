package aimharder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/aimharder-scheduler/internal/domain/reservation"
	"github.com/example/aimharder-scheduler/internal/internaltypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testBox   = reservation.BoxRef{ID: 10002, Name: "mybox"}
	testCreds = reservation.Credentials{Email: "me@example.com", Password: "secret"}
)

// newTestServer routes requests by path, the same way the platform splits
// login, catalog, booking and activity endpoints.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func loginWithCookie(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "me@example.com", r.PostForm.Get("mail"))
		assert.Equal(t, "secret", r.PostForm.Get("pw"))
		assert.Equal(t, "Log in", r.PostForm.Get("login"))
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte("<html>welcome</html>"))
	}
}

func login(t *testing.T, ts *httptest.Server) reservation.Session {
	t.Helper()
	c := New(Options{LoginURL: ts.URL + "/login", BaseURL: ts.URL})
	s, err := c.Login(context.Background(), testCreds, testBox)
	require.NoError(t, err)
	return s
}

func TestLoginWithSessionCookie(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{"/login": loginWithCookie(t)})
	login(t, ts)
}

func TestLoginWithRedirectToBox(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/login": func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/mybox/home", http.StatusFound)
		},
		"/mybox/home": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("dashboard"))
		},
	})
	login(t, ts)
}

func TestLoginRejected(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"wrong password": func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc", Path: "/"})
			_, _ = w.Write([]byte("Contraseña incorrecta"))
		},
		"too many attempts": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("Too many wrong attempts"))
		},
		"no session": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("hello"))
		},
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t, map[string]http.HandlerFunc{"/login": h})
			c := New(Options{LoginURL: ts.URL + "/login", BaseURL: ts.URL})
			_, err := c.Login(context.Background(), testCreds, testBox)
			require.Error(t, err)
			assert.ErrorIs(t, err, internaltypes.ErrAuth)
		})
	}
}

func TestClassesResponseShapes(t *testing.T) {
	day := time.Date(2026, time.January, 19, 0, 0, 0, 0, time.UTC)
	cases := map[string]struct {
		body string
		want int
	}{
		"bare list":       {`[{"id":1,"timeid":"1830_60"},{"id":2}]`, 2},
		"bookings":        {`{"bookings":[{"id":1}],"classes":[{"id":2},{"id":3}]}`, 1},
		"classes":         {`{"classes":[{"id":2},{"id":3}]}`, 2},
		"sessions":        {`{"sessions":[{"id":4}]}`, 1},
		"nothing":         {`{"other":[{"id":4}]}`, 0},
		"non object item": {`[1,{"id":2}]`, 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t, map[string]http.HandlerFunc{
				"/login": loginWithCookie(t),
				"/api/bookings": func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "10002", r.URL.Query().Get("box"))
					assert.Equal(t, "20260119", r.URL.Query().Get("day"))
					_, _ = w.Write([]byte(tc.body))
				},
			})
			records, err := login(t, ts).Classes(context.Background(), day)
			require.NoError(t, err)
			assert.Len(t, records, tc.want)
		})
	}
}

func TestClassesKeepsLargeIDsExact(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/login": loginWithCookie(t),
		"/api/bookings": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"bookings":[{"id":98765432101,"timeid":"1830_60","className":"CrossFit"}]}`))
		},
	})
	records, err := login(t, ts).Classes(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, json.Number("98765432101"), records[0]["id"])
}

func TestClassesTransportError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/login": loginWithCookie(t),
		"/api/bookings": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		},
	})
	_, err := login(t, ts).Classes(context.Background(), time.Now())
	assert.ErrorIs(t, err, internaltypes.ErrTransport)
}

func TestBookSendsForm(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/login": loginWithCookie(t),
		"/api/book": func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "123", r.PostForm.Get("id"))
			assert.Equal(t, "20260119", r.PostForm.Get("day"))
			assert.Equal(t, "0", r.PostForm.Get("insist"))
			_, present := r.PostForm["familyId"]
			assert.True(t, present)
			if ck, err := r.Cookie("PHPSESSID"); assert.NoError(t, err) {
				assert.Equal(t, "abc", ck.Value)
			}
			_, _ = w.Write([]byte(`{"bookState":1}`))
		},
	})
	status, body, err := login(t, ts).Book(context.Background(), "123", time.Date(2026, time.January, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"bookState":1}`, string(body))
}

func TestDashboardAndActivity(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/login": loginWithCookie(t),
		"/": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<script>var cfg = {userID: 4242};</script>`))
		},
		"/api/activity": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "0", q.Get("timeLineFormat"))
			assert.Equal(t, "100", q.Get("timeLineContent"))
			assert.Equal(t, "4242", q.Get("userID"))
			_, _ = w.Write([]byte(`{"elements":[]}`))
		},
	})
	s := login(t, ts)

	html, err := s.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Contains(t, html, "userID: 4242")

	body, err := s.Activity(context.Background(), "4242", 100)
	require.NoError(t, err)
	assert.JSONEq(t, `{"elements":[]}`, string(body))
}

func TestSessionsDoNotShareCookies(t *testing.T) {
	n := 0
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/login": func(w http.ResponseWriter, r *http.Request) {
			n++
			_, err := r.Cookie("PHPSESSID")
			assert.Error(t, err, "a fresh login must not carry cookies from another session")
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "s", Path: "/"})
		},
	})
	login(t, ts)
	login(t, ts)
	assert.Equal(t, 2, n)
}
