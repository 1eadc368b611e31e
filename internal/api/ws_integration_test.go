package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/chatlink/internal/api/handler"
	"github.com/d60-Lab/chatlink/internal/auth"
	"github.com/d60-Lab/chatlink/internal/repository"
	"github.com/d60-Lab/chatlink/internal/service"
	"github.com/d60-Lab/chatlink/internal/session"
	"github.com/d60-Lab/chatlink/internal/ws"
	"github.com/d60-Lab/chatlink/internal/ws/handlers"
	"github.com/d60-Lab/chatlink/pkg/database"
)

// newChatServer 起一套完整的进程内服务：sqlite + miniredis + 全部 handler
func newChatServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	// handler 并发访问 sqlite :memory:：钉死单连接，避免池里每条连接各自一个库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	userRepo := repository.NewUserRepository(db)
	users := service.NewUserService(userRepo)
	presence := service.NewPresenceService(rdb, 300*time.Second)
	connections := service.NewConnectionService(db, userRepo, repository.NewUserConnectionRepository(db), 1000)
	channels := service.NewChannelService(db, presence, connections,
		repository.NewChannelRepository(db), repository.NewUserChannelRepository(db), 100)
	messages := service.NewMessageService(channels, repository.NewMessageRepository(db), 4, 100)
	stop := messages.Start()
	t.Cleanup(func() { _ = stop(context.Background()) })

	registry := session.NewRegistry()
	dispatcher := ws.NewDispatcher(handlers.All(handlers.Deps{
		Registry:    registry,
		Users:       users,
		Connections: connections,
		Channels:    channels,
		Messages:    messages,
		Presence:    presence,
	})...)

	authSvc := auth.NewService(userRepo, "test-secret", time.Hour)
	h := handler.New(authSvc, registry, dispatcher, 100, 200)

	srv := httptest.NewServer(NewRouter(h, "test"))
	t.Cleanup(srv.Close)
	return srv
}

func signup(t *testing.T, srv *httptest.Server, username string) (token, inviteCode string) {
	t.Helper()

	w := post(t, srv, "/api/v1/users", `{"username":"`+username+`","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, w.StatusCode)
	var created struct {
		Data struct {
			InviteCode string `json:"invite_code"`
		} `json:"data"`
	}
	decode(t, w, &created)

	w = post(t, srv, "/api/v1/auth/login", `{"username":"`+username+`","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, w.StatusCode)
	var login struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	decode(t, w, &login)

	return login.Data.Token, created.Data.InviteCode
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

// recv 读下一帧；2s 内没有帧就失败
func recv(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestChatFlowOverWebsocket(t *testing.T) {
	srv := newChatServer(t)

	aliceToken, _ := signup(t, srv, "alice")
	bobToken, bobCode := signup(t, srv, "bob")

	alice := dialWS(t, srv, aliceToken)
	bob := dialWS(t, srv, bobToken)

	// 一次往返确保两条连接都已注册，随后的实时通知才有处可投
	var frame map[string]any
	for _, conn := range []*websocket.Conn{alice, bob} {
		send(t, conn, map[string]any{"type": ws.TypeFetchChannelsListRequest})
		frame = recv(t, conn)
		require.Equal(t, ws.TypeFetchChannelsListResponse, frame["type"])
	}

	// alice 邀请 bob
	send(t, alice, map[string]any{"type": ws.TypeInviteRequest, "userInviteCode": bobCode})
	frame = recv(t, alice)
	require.Equal(t, ws.TypeInviteResponse, frame["type"])

	frame = recv(t, bob)
	require.Equal(t, ws.TypeAskInvite, frame["type"])
	require.Equal(t, "alice", frame["inviterUsername"])

	// bob 接受
	send(t, bob, map[string]any{"type": ws.TypeAcceptRequest, "username": "alice"})
	frame = recv(t, bob)
	require.Equal(t, ws.TypeAcceptResponse, frame["type"])
	require.Equal(t, "alice", frame["username"])

	frame = recv(t, alice)
	require.Equal(t, ws.TypeNotifyAccept, frame["type"])
	require.Equal(t, "bob", frame["username"])

	// alice 建群拉 bob
	send(t, alice, map[string]any{
		"type":                 ws.TypeCreateRequest,
		"title":                "team",
		"participantUsernames": []string{"bob"},
	})
	frame = recv(t, alice)
	require.Equal(t, ws.TypeCreateResponse, frame["type"])
	require.Equal(t, "team", frame["title"])
	channelID := int64(frame["channelId"].(float64))

	frame = recv(t, bob)
	require.Equal(t, ws.TypeNotifyJoin, frame["type"])
	require.Equal(t, "team", frame["title"])

	// 双方进入频道
	for _, conn := range []*websocket.Conn{alice, bob} {
		send(t, conn, map[string]any{"type": ws.TypeEnterRequest, "channelId": channelID})
		frame = recv(t, conn)
		require.Equal(t, ws.TypeEnterResponse, frame["type"])
	}

	// alice 发消息，bob 实时收到
	send(t, alice, map[string]any{"type": ws.TypeWriteMessage, "channelId": channelID, "content": "hello bob"})
	frame = recv(t, bob)
	require.Equal(t, ws.TypeNotifyMessage, frame["type"])
	require.Equal(t, "alice", frame["username"])
	require.Equal(t, "hello bob", frame["content"])
}

func TestErrorFrameCarriesRequestType(t *testing.T) {
	srv := newChatServer(t)
	aliceToken, _ := signup(t, srv, "alice")
	alice := dialWS(t, srv, aliceToken)

	send(t, alice, map[string]any{"type": ws.TypeInviteRequest, "userInviteCode": "no-such-code"})
	frame := recv(t, alice)
	require.Equal(t, ws.TypeError, frame["type"])
	require.Equal(t, ws.TypeInviteRequest, frame["messageType"])
	require.Equal(t, "Invalid invite code.", frame["message"])
}

func TestSecondLoginReplacesFirst(t *testing.T) {
	srv := newChatServer(t)
	aliceToken, aliceCode := signup(t, srv, "alice")

	first := dialWS(t, srv, aliceToken)
	// 一次往返确保第一条连接已注册完毕
	send(t, first, map[string]any{"type": ws.TypeFetchUserInviteCodeRequest})
	frame := recv(t, first)
	require.Equal(t, ws.TypeFetchUserInviteCodeResponse, frame["type"])

	second := dialWS(t, srv, aliceToken)

	// 旧连接已被服务器关闭
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	require.Error(t, err)

	// 新连接正常服务
	send(t, second, map[string]any{"type": ws.TypeFetchUserInviteCodeRequest})
	frame = recv(t, second)
	require.Equal(t, ws.TypeFetchUserInviteCodeResponse, frame["type"])
	require.Equal(t, aliceCode, frame["inviteCode"])
}
