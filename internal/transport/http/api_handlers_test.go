package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/beamchat/server/internal/store"
)

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	status, body := doJSON(t, env, stdhttp.MethodGet, "/health", "", nil)
	if status != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	status, body := doJSON(t, env, stdhttp.MethodPost, "/api/register", "", RegisterRequest{Username: "alice", Password: "password123"})
	if status != stdhttp.StatusCreated {
		t.Fatalf("register status = %d, want 201: %s", status, body)
	}
	var reg AuthResponse
	if err := json.Unmarshal(body, &reg); err != nil || reg.Token == "" {
		t.Fatalf("register response = %s", body)
	}

	status, _ = doJSON(t, env, stdhttp.MethodPost, "/api/register", "", RegisterRequest{Username: "alice", Password: "password123"})
	if status != stdhttp.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", status)
	}

	status, body = doJSON(t, env, stdhttp.MethodPost, "/api/login", "", LoginRequest{Username: "alice", Password: "password123"})
	if status != stdhttp.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", status, body)
	}
	var login AuthResponse
	if err := json.Unmarshal(body, &login); err != nil || login.Token == "" {
		t.Fatalf("login response = %s", body)
	}

	status, _ = doJSON(t, env, stdhttp.MethodPost, "/api/login", "", LoginRequest{Username: "alice", Password: "wrong-password"})
	if status != stdhttp.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", status)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "password123"},
		{"short password", "alice", "12345"},
		{"empty body", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := doJSON(t, env, stdhttp.MethodPost, "/api/register", "", RegisterRequest{Username: tt.username, Password: tt.password})
			if status != stdhttp.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/messages/global", "/api/conversations", "/api/notifications", "/api/users/all"} {
		status, _ := doJSON(t, env, stdhttp.MethodGet, path, "", nil)
		if status != stdhttp.StatusUnauthorized {
			t.Errorf("GET %s without token: status = %d, want 401", path, status)
		}
	}
}

func TestGlobalHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := registerUser(t, env, "alice")

	for _, body := range []string{"first", "second"} {
		saveTestMessage(t, env, &store.Message{
			Kind:        store.MessageKindGlobal,
			Sender:      "alice",
			Body:        body,
			MessageType: "text",
		})
	}

	status, body := doJSON(t, env, stdhttp.MethodGet, "/api/messages/global", token, nil)
	if status != stdhttp.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}

	var messages []MessageResponse
	if err := json.Unmarshal(body, &messages); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Message != "first" || messages[1].Message != "second" {
		t.Errorf("messages out of order: %+v", messages)
	}
}

func TestPrivateHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := registerUser(t, env, "alice")
	registerUser(t, env, "bob")

	saveTestMessage(t, env, &store.Message{
		Kind: store.MessageKindPrivate, Sender: "alice", Receiver: "bob", Body: "hi bob", MessageType: "text",
	})
	saveTestMessage(t, env, &store.Message{
		Kind: store.MessageKindPrivate, Sender: "bob", Receiver: "alice", Body: "hi alice", MessageType: "text",
	})
	saveTestMessage(t, env, &store.Message{
		Kind: store.MessageKindPrivate, Sender: "bob", Receiver: "carol", Body: "unrelated", MessageType: "text",
	})

	status, body := doJSON(t, env, stdhttp.MethodGet, "/api/messages/private/bob", token, nil)
	if status != stdhttp.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}

	var messages []MessageResponse
	if err := json.Unmarshal(body, &messages); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2: %s", len(messages), body)
	}
	if messages[0].Message != "hi bob" || messages[1].Message != "hi alice" {
		t.Errorf("unexpected thread: %+v", messages)
	}
}

func TestConversationsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := registerUser(t, env, "alice")

	saveTestMessage(t, env, &store.Message{
		Kind: store.MessageKindPrivate, Sender: "alice", Receiver: "bob", Body: "to bob", MessageType: "text",
	})
	saveTestMessage(t, env, &store.Message{
		Kind: store.MessageKindPrivate, Sender: "carol", Receiver: "alice", Body: "from carol", MessageType: "text",
	})

	status, body := doJSON(t, env, stdhttp.MethodGet, "/api/conversations", token, nil)
	if status != stdhttp.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}

	var conversations []ConversationResponse
	if err := json.Unmarshal(body, &conversations); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("got %d conversations, want 2: %s", len(conversations), body)
	}
}

func TestUserSearchEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := registerUser(t, env, "alice")
	registerUser(t, env, "alfred")
	registerUser(t, env, "bob")

	status, _ := doJSON(t, env, stdhttp.MethodGet, "/api/users/search?query=a", token, nil)
	if status != stdhttp.StatusBadRequest {
		t.Errorf("short query status = %d, want 400", status)
	}

	status, body := doJSON(t, env, stdhttp.MethodGet, "/api/users/search?query=al", token, nil)
	if status != stdhttp.StatusOK {
		t.Fatalf("status = %d: %s", status, body)
	}

	var users []UserResponse
	if err := json.Unmarshal(body, &users); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// alice matches too but the caller is excluded from results.
	if len(users) != 1 || users[0].Username != "alfred" {
		t.Errorf("users = %+v, want just alfred", users)
	}
}

func TestAdminNotificationEndpoint(t *testing.T) {
	env := newTestEnv(t)
	aliceToken := registerUser(t, env, "alice")
	adminToken := registerUser(t, env, "admin")

	req := SendNotificationRequest{Title: "maintenance", Message: "back in five"}

	status, _ := doJSON(t, env, stdhttp.MethodPost, "/api/admin/send-notification", aliceToken, req)
	if status != stdhttp.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", status)
	}

	status, body := doJSON(t, env, stdhttp.MethodPost, "/api/admin/send-notification", adminToken, req)
	if status != stdhttp.StatusOK {
		t.Fatalf("admin status = %d: %s", status, body)
	}

	status, body = doJSON(t, env, stdhttp.MethodGet, "/api/notifications", aliceToken, nil)
	if status != stdhttp.StatusOK {
		t.Fatalf("list status = %d: %s", status, body)
	}
	var notifications []NotificationResponse
	if err := json.Unmarshal(body, &notifications); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(notifications) != 1 || notifications[0].Title != "maintenance" {
		t.Errorf("notifications = %+v", notifications)
	}
}

func TestUploadAndServe(t *testing.T) {
	env := newTestEnv(t)
	token := registerUser(t, env, "alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("hello upload")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req, err := stdhttp.NewRequest(stdhttp.MethodPost, env.ts.URL+"/api/upload", &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := env.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}

	var upload UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&upload); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if upload.FileID == "" || upload.FileName != "notes.txt" {
		t.Fatalf("upload response = %+v", upload)
	}

	status, body := doJSON(t, env, stdhttp.MethodGet, upload.FileURL, token, nil)
	if status != stdhttp.StatusOK {
		t.Fatalf("serve status = %d", status)
	}
	if string(body) != "hello upload" {
		t.Errorf("served content = %q", body)
	}
}

func TestServeRejectsPathTraversal(t *testing.T) {
	env := newTestEnv(t)
	token := registerUser(t, env, "alice")

	status, _ := doJSON(t, env, stdhttp.MethodGet, "/api/media/..%2Fconfig.yaml", token, nil)
	if status == stdhttp.StatusOK {
		t.Error("traversal id must not be served")
	}
}

func saveTestMessage(t *testing.T, env *testEnv, msg *store.Message) {
	t.Helper()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if err := env.st.SaveMessage(context.Background(), msg); err != nil {
		t.Fatalf("save message: %v", err)
	}
}
