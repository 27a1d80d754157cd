package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/coriplus/coriplus/internal/config"
	"github.com/coriplus/coriplus/internal/handlers"
	"github.com/coriplus/coriplus/internal/models"
	"github.com/coriplus/coriplus/internal/services"
	"github.com/coriplus/coriplus/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "routes-secret"

type testServer struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{
		JWTSecret:        secret,
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		AppName:          "Cori+",
		UploadDir:        t.TempDir(),
	}

	notifications := services.NewNotificationService(db)
	relationships := services.NewRelationshipService(db, notifications)
	uploads := services.NewUploadService(db, cfg.UploadDir)
	messages := services.NewMessageService(db, services.NewContentFilter(services.BannedWords), uploads, relationships, notifications)

	auth := services.NewAuthService(db, cfg)

	app := fiber.New()
	Setup(app, cfg, services.NewAccessGate(db), auth, Handlers{
		Auth:         handlers.NewAuthHandler(auth),
		Health:       handlers.NewHealthHandler(db),
		Moderation:   handlers.NewModerationHandler(services.NewModerationService(db)),
		Message:      handlers.NewMessageHandler(messages),
		Relationship: handlers.NewRelationshipHandler(relationships),
		Notification: handlers.NewNotificationHandler(notifications),
		Upload:       handlers.NewUploadHandler(uploads),
		Site:         handlers.NewSiteHandler(cfg.AppName),
	})
	return &testServer{app: app, db: db, cfg: cfg}
}

type call struct {
	method      string
	path        string
	auth        string
	contentType string
	body        io.Reader
}

func (s *testServer) do(t *testing.T, c call) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(c.method, c.path, c.body)
	if c.contentType != "" {
		req.Header.Set("Content-Type", c.contentType)
	}
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (s *testServer) doJSON(t *testing.T, method, path, auth string, payload interface{}) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(t, call{method: method, path: path, auth: auth, contentType: fiber.MIMEApplicationJSON, body: body})
}

func bearer(t *testing.T, u *models.User) string {
	return "Bearer " + testutil.AccessToken(t, secret, u)
}

func adminBasic() string {
	return testutil.BasicAuth("admin", testutil.Password("admin"))
}

func id(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	s := newServer(t)
	user := testutil.CreateUser(t, s.db, "bob")

	for _, path := range []string{"/api/admin/", "/api/admin/reports", "/api/admin/reports/1"} {
		resp, body := s.doJSON(t, http.MethodGet, path, bearer(t, user), nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, path)
		assert.JSONEq(t, `{"error":true,"message":"Forbidden"}`, string(body))
	}

	resp, _ := s.doJSON(t, http.MethodPost, "/api/admin/reports/1", "", map[string]string{"decision": "accept"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAdminDashboard(t *testing.T) {
	s := newServer(t)
	testutil.CreateAdmin(t, s.db, "admin")
	author := testutil.CreateUser(t, s.db, "author")
	msg := testutil.CreateMessage(t, s.db, author, "hello")
	testutil.CreateReport(t, s.db, models.MessageRef{ID: msg.ID}, time.Now())

	resp, body := s.doJSON(t, http.MethodGet, "/api/admin/", adminBasic(), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"users":2,"messages":1,"pending_reports":1}`, string(body))
}

func TestAdminReports_ListNewestFirst(t *testing.T) {
	s := newServer(t)
	testutil.CreateAdmin(t, s.db, "admin")
	target := testutil.CreateUser(t, s.db, "target")
	now := time.Now().UTC()
	older := testutil.CreateReport(t, s.db, models.UserRef{ID: target.ID}, now.Add(-time.Hour))
	newer := testutil.CreateReport(t, s.db, models.UserRef{ID: target.ID}, now)

	resp, body := s.doJSON(t, http.MethodGet, "/api/admin/reports", adminBasic(), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list struct {
		Reports []models.Report   `json:"reports"`
		Total   int64             `json:"total"`
		Reasons map[string]string `json:"report_reasons"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Reports, 2)
	assert.Equal(t, newer.ID, list.Reports[0].ID)
	assert.Equal(t, older.ID, list.Reports[1].ID)
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, "It's spam", list.Reasons["1"])

	resp, _ = s.doJSON(t, http.MethodGet, "/api/admin/reports?status=bogus", adminBasic(), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminReports_Detail(t *testing.T) {
	s := newServer(t)
	testutil.CreateAdmin(t, s.db, "admin")
	target := testutil.CreateUser(t, s.db, "target")
	report := testutil.CreateReport(t, s.db, models.UserRef{ID: target.ID}, time.Now())

	resp, body := s.doJSON(t, http.MethodGet, "/api/admin/reports/"+id(report.ID), adminBasic(), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"media_type":"user"`)
	assert.Contains(t, string(body), `"status":"pending"`)

	resp, _ = s.doJSON(t, http.MethodGet, "/api/admin/reports/9999", adminBasic(), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminReports_ReviewWithForm(t *testing.T) {
	s := newServer(t)
	testutil.CreateAdmin(t, s.db, "admin")
	author := testutil.CreateUser(t, s.db, "author")
	msg := testutil.CreateMessage(t, s.db, author, "spam spam spam")
	report := testutil.CreateReport(t, s.db, models.MessageRef{ID: msg.ID}, time.Now())

	form := url.Values{"take_down": {""}}
	resp, _ := s.do(t, call{
		method:      http.MethodPost,
		path:        "/api/admin/reports/" + id(report.ID),
		auth:        adminBasic(),
		contentType: fiber.MIMEApplicationForm,
		body:        strings.NewReader(form.Encode()),
	})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/api/admin/reports", resp.Header.Get("Location"))

	var n int64
	s.db.Model(&models.Message{}).Where("id = ?", msg.ID).Count(&n)
	assert.Zero(t, n)

	var got models.Report
	require.NoError(t, s.db.First(&got, report.ID).Error)
	assert.Equal(t, models.ReportStatusAccepted, got.Status)
}

func TestAdminReports_ReviewWithJSON(t *testing.T) {
	s := newServer(t)
	admin := testutil.CreateAdmin(t, s.db, "admin")
	target := testutil.CreateUser(t, s.db, "target")
	report := testutil.CreateReport(t, s.db, models.UserRef{ID: target.ID}, time.Now())
	path := "/api/admin/reports/" + id(report.ID)

	resp, _ := s.doJSON(t, http.MethodPost, path, bearer(t, admin), map[string]string{"decision": "maybe"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = s.doJSON(t, http.MethodPost, path, bearer(t, admin), map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := s.doJSON(t, http.MethodPost, path, bearer(t, admin), map[string]string{"decision": "decline"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got models.Report
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, models.ReportStatusDeclined, got.Status)
	require.NotNil(t, got.ReviewedByID)
	assert.Equal(t, admin.ID, *got.ReviewedByID)

	var user models.User
	require.NoError(t, s.db.First(&user, target.ID).Error)
	assert.Equal(t, models.DisabledStateActive, user.IsDisabled)

	resp, _ = s.doJSON(t, http.MethodPost, "/api/admin/reports/9999", bearer(t, admin), map[string]string{"decision": "accept"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateReport(t *testing.T) {
	s := newServer(t)
	reporter := testutil.CreateUser(t, s.db, "reporter")
	author := testutil.CreateUser(t, s.db, "author")
	msg := testutil.CreateMessage(t, s.db, author, "rude words")

	resp, body := s.doJSON(t, http.MethodPost, "/api/reports", bearer(t, reporter), map[string]interface{}{
		"media_type": "message", "media_id": msg.ID, "reason": 1,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	var report models.Report
	require.NoError(t, json.Unmarshal(body, &report))
	require.NotNil(t, report.SenderID)
	assert.Equal(t, reporter.ID, *report.SenderID)

	resp, body = s.doJSON(t, http.MethodPost, "/api/reports", "", map[string]interface{}{
		"media_type": "user", "media_id": author.ID, "reason": 2,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	var anon models.Report
	require.NoError(t, json.Unmarshal(body, &anon))
	assert.Nil(t, anon.SenderID)

	resp, _ = s.doJSON(t, http.MethodPost, "/api/reports", "", map[string]interface{}{
		"media_type": "message", "media_id": 9999, "reason": 1,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = s.doJSON(t, http.MethodPost, "/api/reports", "", map[string]interface{}{
		"media_type": "user", "media_id": author.ID, "reason": 99,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = s.doJSON(t, http.MethodGet, "/api/reports/reasons", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"1":"It's spam"`)
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)

	resp, body := s.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "carol", "full_name": "Carol", "email": "carol@example.com",
		"password": "correct-horse", "birthday": "1999-04-01",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))

	resp, _ = s.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "carol", "full_name": "Carol", "email": "c2@example.com",
		"password": "correct-horse", "birthday": "1999-04-01",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, body = s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "carol", "password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid username or password")

	resp, body = s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "carol", "password": "correct-horse",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(body, &tokens))
	assert.NotEmpty(t, tokens.AccessToken)

	resp, _ = s.doJSON(t, http.MethodGet, "/api/feed", "Bearer "+tokens.AccessToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, s.db.Model(&models.User{}).Where("username = ?", "carol").
		Update("is_disabled", models.DisabledStatePermanent).Error)
	resp, body = s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "carol", "password": "correct-horse",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "disabled")
}

func TestMessagesAndFeed(t *testing.T) {
	s := newServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")

	resp, body := s.doJSON(t, http.MethodPost, "/api/messages", bearer(t, alice), map[string]interface{}{
		"text": "first post", "privacy": 0,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	var msg models.Message
	require.NoError(t, json.Unmarshal(body, &msg))

	resp, _ = s.doJSON(t, http.MethodPost, "/api/messages", "", map[string]interface{}{"text": "anon"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.doJSON(t, http.MethodPost, "/api/users/alice/follow", bearer(t, bob), nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = s.doJSON(t, http.MethodPost, "/api/users/bob/follow", bearer(t, bob), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = s.doJSON(t, http.MethodGet, "/api/feed", bearer(t, bob), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var feed struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &feed))
	require.Len(t, feed.Messages, 1)
	assert.Equal(t, msg.ID, feed.Messages[0].ID)

	resp, body = s.doJSON(t, http.MethodPost, "/api/messages/"+id(msg.ID)+"/upvote", bearer(t, bob), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"upvoted":true}`, string(body))

	resp, body = s.doJSON(t, http.MethodGet, "/api/notifications", bearer(t, alice), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var notes struct {
		Notifications []models.Notification `json:"notifications"`
		Unseen        int64                 `json:"unseen"`
	}
	require.NoError(t, json.Unmarshal(body, &notes))
	assert.Equal(t, int64(2), notes.Unseen)

	resp, _ = s.doJSON(t, http.MethodPost, "/api/notifications/seen", bearer(t, alice), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = s.doJSON(t, http.MethodGet, "/api/users/alice/followers", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"username":"bob"`)

	resp, _ = s.doJSON(t, http.MethodDelete, "/api/messages/"+id(msg.ID), bearer(t, bob), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = s.doJSON(t, http.MethodDelete, "/api/messages/"+id(msg.ID), bearer(t, alice), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = s.doJSON(t, http.MethodGet, "/api/messages/"+id(msg.ID), "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPrivateMessageHiddenFromOthers(t *testing.T) {
	s := newServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")

	resp, body := s.doJSON(t, http.MethodPost, "/api/messages", bearer(t, alice), map[string]interface{}{
		"text": "diary entry", "privacy": int(models.PrivacyOnlyMe),
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	var msg models.Message
	require.NoError(t, json.Unmarshal(body, &msg))

	resp, _ = s.doJSON(t, http.MethodGet, "/api/messages/"+id(msg.ID), bearer(t, bob), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = s.doJSON(t, http.MethodGet, "/api/messages/"+id(msg.ID), bearer(t, alice), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMessageWithUpload(t *testing.T) {
	s := newServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("text", "look at this"))
	require.NoError(t, w.WriteField("privacy", "0"))
	part, err := w.CreateFormFile("file", "cat.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, body := s.do(t, call{
		method:      http.MethodPost,
		path:        "/api/messages",
		auth:        bearer(t, alice),
		contentType: w.FormDataContentType(),
		body:        &buf,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	var msg models.Message
	require.NoError(t, json.Unmarshal(body, &msg))
	require.Len(t, msg.Uploads, 1)

	resp, _ = s.do(t, call{method: http.MethodGet, path: "/uploads/" + msg.Uploads[0].FileName()})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, call{method: http.MethodGet, path: "/uploads/..%2Fsecret.png"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestContentFilterRejectsMessage(t *testing.T) {
	s := newServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")

	resp, _ := s.doJSON(t, http.MethodPost, "/api/messages", bearer(t, alice), map[string]interface{}{
		"text": "STOP SHOUTING AROUND HERE PLEASE",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSitePages(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(t, call{method: http.MethodGet, path: "/robots.txt"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Disallow: /api/admin/")

	resp, body = s.do(t, call{method: http.MethodGet, path: "/api/legal/terms"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Cori+")

	resp, _ = s.do(t, call{method: http.MethodGet, path: "/api/legal/privacy"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = s.do(t, call{method: http.MethodGet, path: "/api/health"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"db":"ok"`)

	resp, _ = s.do(t, call{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	testutil.CreateAdmin(t, s.db, "admin")
	resp, body = s.do(t, call{method: http.MethodGet, path: "/metrics", auth: adminBasic()})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func postImage(t *testing.T, s *testServer, author *models.User) models.Message {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("text", "holiday snap"))
	require.NoError(t, w.WriteField("privacy", "0"))
	part, err := w.CreateFormFile("file", "beach.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nbeach"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, body := s.do(t, call{
		method:      http.MethodPost,
		path:        "/api/messages",
		auth:        bearer(t, author),
		contentType: w.FormDataContentType(),
		body:        &buf,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	var msg models.Message
	require.NoError(t, json.Unmarshal(body, &msg))
	require.Len(t, msg.Uploads, 1)
	return msg
}

func TestTakenDownMessageImageIsNotServed(t *testing.T) {
	s := newServer(t)
	admin := testutil.CreateAdmin(t, s.db, "admin")
	author := testutil.CreateUser(t, s.db, "author")
	msg := postImage(t, s, author)
	file := "/uploads/" + msg.Uploads[0].FileName()

	resp, _ := s.do(t, call{method: http.MethodGet, path: file})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	report := testutil.CreateReport(t, s.db, models.MessageRef{ID: msg.ID}, time.Now())
	resp, _ = s.doJSON(t, http.MethodPost, "/api/admin/reports/"+id(report.ID), bearer(t, admin), map[string]string{"decision": "accept"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, call{method: http.MethodGet, path: file})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestTakenDownUserTokenStopsWorking(t *testing.T) {
	s := newServer(t)
	admin := testutil.CreateAdmin(t, s.db, "admin")
	troll := testutil.CreateUser(t, s.db, "troll")
	victim := testutil.CreateUser(t, s.db, "victim")
	token := bearer(t, troll)

	resp, _ := s.doJSON(t, http.MethodPost, "/api/messages", token, map[string]interface{}{"text": "before", "privacy": 0})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	report := testutil.CreateReport(t, s.db, models.UserRef{ID: troll.ID}, time.Now())
	resp, _ = s.doJSON(t, http.MethodPost, "/api/admin/reports/"+id(report.ID), bearer(t, admin), map[string]string{"decision": "accept"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := s.doJSON(t, http.MethodPost, "/api/messages", token, map[string]interface{}{"text": "after", "privacy": 0})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "disabled")

	resp, _ = s.doJSON(t, http.MethodPost, "/api/users/victim/follow", token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = s.doJSON(t, http.MethodPost, "/api/reports", token, map[string]interface{}{
		"media_type": "user", "media_id": victim.ID, "reason": 1,
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var n int64
	s.db.Model(&models.Message{}).Where("user_id = ?", troll.ID).Count(&n)
	assert.Equal(t, int64(1), n)
}
