// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stalcup-dev/riverboat-tournament/server/matchmaker"
	"github.com/stalcup-dev/riverboat-tournament/server/ratelimit"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
)

const (
	maxBodyBytes = 64 * 1024

	// Idle IP buckets are full again long before this.
	ipBucketIdle  = 10 * time.Minute
	ipBucketSweep = time.Minute
)

var (
	createIPPolicy = ratelimit.Policy{Capacity: 8, RefillPerSecond: 0.5}
	joinIPPolicy   = ratelimit.Policy{Capacity: 15, RefillPerSecond: 1.5}
)

type requestIDKeyType struct{}

var requestIDKey requestIDKeyType

// api serves the matchmaker, lobby and socket endpoints of one Directory.
type api struct {
	cfg       Config
	dir       *Directory
	createIPs *ratelimit.Keyed
	joinIPs   *ratelimit.Keyed
	upgrader  websocket.Upgrader
}

// NewRouter builds the HTTP surface of the server. IP buckets are swept
// until ctx is done.
func NewRouter(ctx context.Context, cfg Config, dir *Directory) *gin.Engine {
	a := &api{
		cfg:       cfg,
		dir:       dir,
		createIPs: ratelimit.NewKeyed(createIPPolicy),
		joinIPs:   ratelimit.NewKeyed(joinIPPolicy),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	a.upgrader.CheckOrigin = func(r *http.Request) bool {
		return cfg.Origins.Allowed(r.Header.Get("Origin"))
	}

	router := gin.Default()
	router.HandleMethodNotAllowed = true

	router.Use(requestIDMiddleware())
	router.Use(a.corsMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedPaths([]string{"/ws"})))
	router.Use(cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	}))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.GET("/healthz", a.healthz)
	router.HEAD("/healthz", a.healthz)
	router.POST("/match/create", a.guard(a.createIPs), a.createMatch)
	router.POST("/match/join", a.guard(a.joinIPs), a.joinMatch)
	router.GET("/lobby/list", a.guard(nil), a.listLobby)
	router.GET("/ws/:roomId", a.serveSocket)

	router.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
	})

	go a.sweep(ctx)
	return router
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), requestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

// corsMiddleware also answers every preflight request.
func (a *api) corsMiddleware() gin.HandlerFunc {
	origin := a.cfg.corsOrigin()
	return func(c *gin.Context) {
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-Matchmaker-Secret, X-Invite-Key")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// guard applies the origin and invite gates, then the per-IP bucket if
// there is one.
func (a *api) guard(buckets *ratelimit.Keyed) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" && !a.cfg.Origins.Allowed(origin) {
			abortWithError(c, http.StatusForbidden, "ORIGIN_FORBIDDEN")
			return
		}
		if !a.cfg.InviteOK(c.GetHeader("X-Invite-Key")) {
			abortWithError(c, http.StatusForbidden, "INVITE_REQUIRED")
			return
		}
		if buckets != nil && !buckets.Allow(c.ClientIP(), a.dir.now()) {
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED")
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code}})
}

func (a *api) healthz(c *gin.Context) {
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": a.cfg.Version})
}

type (
	createRequest struct {
		Name string `json:"name"`
	}

	joinRequest struct {
		Code string `json:"code"`
	}
)

// readBody decodes an optional JSON object. An empty body leaves v alone.
func readBody(c *gin.Context, v interface{}) error {
	buf, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(buf)) == "" {
		return nil
	}
	return json.Unmarshal(buf, v)
}

func (a *api) createMatch(c *gin.Context) {
	if a.cfg.enforceSecret() && c.GetHeader("X-Matchmaker-Secret") != a.cfg.MatchmakerSecret {
		log.Printf("[matchmaker] create result=denied reason=secret_mismatch")
		abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED")
		return
	}

	var request createRequest
	if err := readBody(c, &request); err != nil {
		log.Printf("[matchmaker] create body ignored err=%v", err)
	}
	name, _ := sanitizeRoomName(request.Name)

	hub, entry, err := a.dir.Create(name)
	if err != nil {
		log.Printf("[matchmaker] create result=error message=%v", err)
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}

	log.Printf("[matchmaker] create code=%s room_id=%s result=ok", entry.Code, hub.ID)
	c.JSON(http.StatusOK, gin.H{"code": entry.Code, "roomId": hub.ID})
}

func (a *api) joinMatch(c *gin.Context) {
	var request joinRequest
	if err := readBody(c, &request); err != nil {
		log.Printf("[matchmaker] join code=(invalid) result=code_invalid reason=%v", err)
		abortWithError(c, http.StatusBadRequest, "CODE_INVALID")
		return
	}

	code, ok := matchmaker.NormalizeCode(request.Code)
	if !ok {
		log.Printf("[matchmaker] join code=(invalid) result=code_invalid")
		abortWithError(c, http.StatusBadRequest, "CODE_INVALID")
		return
	}

	lookup := a.dir.registry.Lookup(code, a.dir.now())
	switch lookup.Status {
	case matchmaker.StatusExpired:
		log.Printf("[matchmaker] join code=%s result=code_expired", code)
		abortWithError(c, http.StatusGone, "CODE_EXPIRED")
		return
	case matchmaker.StatusInvalid:
		log.Printf("[matchmaker] join code=%s result=code_invalid", code)
		abortWithError(c, http.StatusBadRequest, "CODE_INVALID")
		return
	}

	roomID := lookup.Entry.TargetID
	hub := a.dir.Get(roomID)
	if hub == nil {
		a.dir.registry.Delete(code)
		log.Printf("[matchmaker] join code=%s room_id=%s result=code_invalid_missing_room", code, roomID)
		abortWithError(c, http.StatusBadRequest, "CODE_INVALID")
		return
	}

	summary := hub.Summary()
	if summary.Players >= MaxClients {
		log.Printf("[matchmaker] join code=%s room_id=%s result=room_full clients=%d", code, roomID, summary.Players)
		abortWithError(c, http.StatusConflict, "ROOM_FULL")
		return
	}

	log.Printf("[matchmaker] join code=%s room_id=%s result=ok clients=%d", code, roomID, summary.Players)
	c.JSON(http.StatusOK, gin.H{"roomId": roomID})
}

func (a *api) listLobby(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": a.dir.List()})
}

// serveSocket admits a client to a room. The checks mirror the ones
// /match/join makes, since clients may skip it.
func (a *api) serveSocket(c *gin.Context) {
	if !a.cfg.Origins.Allowed(c.GetHeader("Origin")) {
		abortWithError(c, http.StatusForbidden, "ORIGIN_FORBIDDEN")
		return
	}

	hub := a.dir.Get(c.Param("roomId"))
	if hub == nil {
		abortWithError(c, http.StatusNotFound, "ROOM_NOT_FOUND")
		return
	}
	if hub.Summary().Players >= MaxClients {
		abortWithError(c, http.StatusConflict, "ROOM_FULL")
		return
	}
	if a.cfg.Production() && !a.dir.roomCodes.Admit(hub.ID, c.Query("join_code"), a.dir.now()) {
		abortWithError(c, http.StatusBadRequest, "CODE_INVALID")
		return
	}

	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("upgrade error", err)
		return
	}

	client := NewSocketClient(conn, uuid.NewString())
	if !hub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(CloseRejected, "ROOM_CLOSED"))
		_ = conn.Close()
	}
}

func (a *api) sweep(ctx context.Context) {
	ticker := time.NewTicker(ipBucketSweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			nowMs := a.dir.now()
			idleMs := ipBucketIdle.Milliseconds()
			dropped := a.createIPs.Sweep(nowMs, idleMs) + a.joinIPs.Sweep(nowMs, idleMs)
			log.Printf("[matchmaker] ip_sweep dropped=%d create_ips=%d join_ips=%d", dropped, a.createIPs.Len(), a.joinIPs.Len())
		case <-ctx.Done():
			return
		}
	}
}
