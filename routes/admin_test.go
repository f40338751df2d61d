package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"culturalevents/models"
)

func TestAdmin_ForbiddenForNonAdmins(t *testing.T) {
	ts := setupServer(t)
	user := loginAs(t, ts, "user", "user123")

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/users"},
		{http.MethodPost, "/api/admin/users"},
		{http.MethodDelete, "/api/admin/users/" + primitive.NewObjectID().Hex()},
		{http.MethodGet, "/api/admin/events"},
		{http.MethodPost, "/api/import-data"},
		{http.MethodGet, "/api/admin/import-runs"},
	}
	for _, p := range paths {
		for _, cookie := range []*http.Cookie{nil, user} {
			w := doReq(ts.s, p.method, p.path, "", cookie)
			require.Equal(t, http.StatusForbidden, w.Code, p.path)
			require.JSONEq(t, `{"error":"Not authorized"}`, w.Body.String())
		}
	}
	require.EqualValues(t, 0, ts.sync.syncs.Load())
}

func TestAdmin_UsersNeverExposePasswords(t *testing.T) {
	ts := setupServer(t)
	admin := loginAs(t, ts, "admin", "admin123")

	w := doReq(ts.s, http.MethodPost, "/api/admin/users",
		`{"username":"carol","password":"secret","isAdmin":false}`, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	require.NotContains(t, created, "password")
	require.Equal(t, "carol", created["username"])

	w = doReq(ts.s, http.MethodGet, "/api/admin/users", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[[]map[string]any](t, w)
	require.Len(t, users, 3)
	for _, u := range users {
		require.NotContains(t, u, "password")
	}

	// the new account can sign in with the plaintext it was created with
	loginAs(t, ts, "carol", "secret")
}

func TestAdmin_CreateUserRequiresFields(t *testing.T) {
	ts := setupServer(t)
	admin := loginAs(t, ts, "admin", "admin123")

	w := doReq(ts.s, http.MethodPost, "/api/admin/users", `{"username":"dave"}`, admin)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w = doReq(ts.s, http.MethodPost, "/api/admin/users", `{"username":"user","password":"x"}`, admin)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdmin_UpdateUser(t *testing.T) {
	ts := setupServer(t)
	admin := loginAs(t, ts, "admin", "admin123")
	target, err := ts.users.GetByUsername(context.Background(), "user")
	require.NoError(t, err)

	w := doReq(ts.s, http.MethodPut, "/api/admin/users/"+target.ID.Hex(),
		`{"password":"changed","isAdmin":true,"favorites":["ignored"]}`, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotContains(t, w.Body.String(), "password")
	require.Contains(t, w.Body.String(), `"isAdmin":true`)

	got, err := ts.users.GetByID(context.Background(), target.ID)
	require.NoError(t, err)
	require.Equal(t, "user", got.Username)
	require.NotEqual(t, "changed", got.Password)
	loginAs(t, ts, "user", "changed")

	w = doReq(ts.s, http.MethodPut, "/api/admin/users/"+primitive.NewObjectID().Hex(), `{"isAdmin":true}`, admin)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = doReq(ts.s, http.MethodPut, "/api/admin/users/nope", `{"isAdmin":true}`, admin)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_DeleteUserCascades(t *testing.T) {
	ts := setupServer(t)
	hall, _, _, concert := seedCatalog(ts)

	user := loginAs(t, ts, "user", "user123")
	require.Equal(t, http.StatusCreated,
		doReq(ts.s, http.MethodPost, "/api/venues/"+hall.ID.Hex()+"/comments", `{"content":"bye"}`, user).Code)
	require.Equal(t, http.StatusOK,
		doReq(ts.s, http.MethodPost, "/api/venues/"+hall.ID.Hex()+"/like", "", user).Code)
	require.Equal(t, http.StatusOK,
		doReq(ts.s, http.MethodPost, "/api/events/"+concert.ID.Hex()+"/like", "", user).Code)

	target, err := ts.users.GetByUsername(context.Background(), "user")
	require.NoError(t, err)

	admin := loginAs(t, ts, "admin", "admin123")
	w := doReq(ts.s, http.MethodDelete, "/api/admin/users/"+target.ID.Hex(), "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message":"User deleted successfully"}`, w.Body.String())

	_, err = ts.users.GetByID(context.Background(), target.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
	require.Empty(t, ts.comments.Items)
	v, _ := ts.venues.GetByID(context.Background(), hall.ID)
	require.Empty(t, v.Likes)
	e, _ := ts.events.GetByID(context.Background(), concert.ID)
	require.Empty(t, e.Likes)

	// deleting again still succeeds
	w = doReq(ts.s, http.MethodDelete, "/api/admin/users/"+target.ID.Hex(), "", admin)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin_CreateEvent(t *testing.T) {
	ts := setupServer(t)
	hall, _, _, _ := seedCatalog(ts)
	admin := loginAs(t, ts, "admin", "admin123")

	// venue must exist
	w := doReq(ts.s, http.MethodPost, "/api/admin/events",
		`{"eventId":"e9","title":"Recital","venue":"`+primitive.NewObjectID().Hex()+`"}`, admin)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"Venue not found"}`, w.Body.String())

	// eventId, title and venue are required
	w = doReq(ts.s, http.MethodPost, "/api/admin/events", `{"title":"Recital"}`, admin)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w = doReq(ts.s, http.MethodPost, "/api/admin/events",
		`{"eventId":"e9","title":"Recital","venue":"`+hall.ID.Hex()+`","price":"$100","likes":["x"]}`, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Event](t, w)
	require.Equal(t, "Recital", created.Title)
	require.Equal(t, "$100", created.Price)
	require.Empty(t, created.Likes)

	v, err := ts.venues.GetByID(context.Background(), hall.ID)
	require.NoError(t, err)
	require.Contains(t, v.Events, created.ID)
}

func TestAdmin_UpdateEventMovesVenue(t *testing.T) {
	ts := setupServer(t)
	hall, shatin, _, concert := seedCatalog(ts)
	admin := loginAs(t, ts, "admin", "admin123")

	w := doReq(ts.s, http.MethodPut, "/api/admin/events/"+concert.ID.Hex(),
		`{"title":"Late Concert","venue":"`+shatin.ID.Hex()+`"}`, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), `"title":"Late Concert"`)

	oldVenue, _ := ts.venues.GetByID(context.Background(), hall.ID)
	newVenue, _ := ts.venues.GetByID(context.Background(), shatin.ID)
	require.NotContains(t, oldVenue.Events, concert.ID)
	require.Contains(t, newVenue.Events, concert.ID)

	w = doReq(ts.s, http.MethodPut, "/api/admin/events/"+primitive.NewObjectID().Hex(), `{"title":"x"}`, admin)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_DeleteEventUnlinksVenue(t *testing.T) {
	ts := setupServer(t)
	hall, _, _, concert := seedCatalog(ts)
	admin := loginAs(t, ts, "admin", "admin123")

	w := doReq(ts.s, http.MethodDelete, "/api/admin/events/"+concert.ID.Hex(), "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message":"Event deleted successfully"}`, w.Body.String())

	_, err := ts.events.GetByID(context.Background(), concert.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
	v, _ := ts.venues.GetByID(context.Background(), hall.ID)
	require.Empty(t, v.Events)

	w = doReq(ts.s, http.MethodDelete, "/api/admin/events/"+concert.ID.Hex(), "", admin)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin_ListEvents(t *testing.T) {
	ts := setupServer(t)
	seedCatalog(ts)
	admin := loginAs(t, ts, "admin", "admin123")

	w := doReq(ts.s, http.MethodGet, "/api/admin/events", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"title":"Concert"`)
}

func TestImportData_RunsSync(t *testing.T) {
	ts := setupServer(t)
	admin := loginAs(t, ts, "admin", "admin123")

	w := doReq(ts.s, http.MethodPost, "/api/import-data", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message":"Data imported successfully"}`, w.Body.String())
	require.EqualValues(t, 1, ts.sync.syncs.Load())
}

func TestAdmin_ImportRuns(t *testing.T) {
	ts := setupServer(t)
	admin := loginAs(t, ts, "admin", "admin123")

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := models.ImportRun{StartedAt: base.Add(time.Duration(i) * time.Hour), VenuesUpserted: i}
		require.NoError(t, ts.runs.Record(context.Background(), &r))
	}

	w := doReq(ts.s, http.MethodGet, "/api/admin/import-runs?limit=2", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	runs := decode[[]models.ImportRun](t, w)
	require.Len(t, runs, 2)
	require.Equal(t, 2, runs[0].VenuesUpserted)

	w = doReq(ts.s, http.MethodGet, "/api/admin/import-runs?limit=zero", "", admin)
	require.Len(t, decode[[]models.ImportRun](t, w), 3)
}

func TestAdmin_DeletedUserLosesSession(t *testing.T) {
	ts := setupServer(t)
	hall, _, _, _ := seedCatalog(ts)
	user := loginAs(t, ts, "user", "user123")
	admin := loginAs(t, ts, "admin", "admin123")

	target, err := ts.users.GetByUsername(context.Background(), "user")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK,
		doReq(ts.s, http.MethodDelete, "/api/admin/users/"+target.ID.Hex(), "", admin).Code)

	w := doReq(ts.s, http.MethodGet, "/api/session", "", user)
	require.JSONEq(t, `{"loggedIn":false}`, w.Body.String())

	w = doReq(ts.s, http.MethodPost, "/api/venues/"+hall.ID.Hex()+"/comments", `{"content":"ghost"}`, user)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, ts.comments.Items)
}

func TestAdmin_DemotedAdminLosesAdminRoutes(t *testing.T) {
	ts := setupServer(t)
	admin := loginAs(t, ts, "admin", "admin123")

	w := doReq(ts.s, http.MethodPost, "/api/admin/users",
		`{"username":"ops","password":"ops123","isAdmin":true}`, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	opsID := decode[map[string]any](t, w)["_id"].(string)

	ops := loginAs(t, ts, "ops", "ops123")
	require.Equal(t, http.StatusOK, doReq(ts.s, http.MethodGet, "/api/admin/users", "", ops).Code)

	w = doReq(ts.s, http.MethodPut, "/api/admin/users/"+opsID, `{"isAdmin":false}`, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doReq(ts.s, http.MethodGet, "/api/admin/users", "", ops)
	require.Equal(t, http.StatusForbidden, w.Code)
	w = doReq(ts.s, http.MethodGet, "/api/session", "", ops)
	require.JSONEq(t, `{"loggedIn":true,"username":"ops","isAdmin":false}`, w.Body.String())
}

func TestImportData_SurvivesCancelledRequest(t *testing.T) {
	ts := setupServer(t)
	admin := loginAs(t, ts, "admin", "admin123")

	// the client goes away while the import is running
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ts.sync.onSync = cancel
	req := httptest.NewRequest(http.MethodPost, "/api/import-data", nil).WithContext(ctx)
	req.AddCookie(admin)
	w := httptest.NewRecorder()
	ts.s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, ts.sync.syncs.Load())
	require.NoError(t, ts.sync.ctxErr)
	require.True(t, ts.sync.hasDeadline)
}
