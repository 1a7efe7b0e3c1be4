package gateway

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HendryAvila/crewgate/internal/rpc"
	"github.com/HendryAvila/crewgate/internal/specstore"
)

// NewRouter builds the HTTP transport: the single JSON-RPC endpoint plus
// the plain-GET discovery surface for tooling that does not speak
// JSON-RPC. The caller's bearer credential, if present, is forwarded to
// the specification store on every request.
func NewRouter(d *Dispatcher) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/rpc", d.handleRPC)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": ServerName, "version": Version})
	})

	debug := r.Group("/debug")
	debug.GET("/tools", d.handleDebugTools)
	debug.GET("/resources", d.handleDebugResources)

	return r
}

// handleRPC handles one JSON-RPC call per HTTP request. The response is
// always a parseable envelope with HTTP 200; protocol failures live in
// the error member, not in the transport status.
func (d *Dispatcher) handleRPC(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusOK, rpc.NewErrorResponse(nil, rpc.ParseError(err)))
		return
	}

	ctx := withBearer(c)
	c.JSON(http.StatusOK, d.Dispatch(ctx, body))
}

// handleDebugTools exposes the live tool catalog over plain GET.
func (d *Dispatcher) handleDebugTools(c *gin.Context) {
	cat := d.buildCatalog(withBearer(c))
	c.JSON(http.StatusOK, gin.H{"tools": cat.Tools})
}

// handleDebugResources exposes the live resource catalog over plain GET.
func (d *Dispatcher) handleDebugResources(c *gin.Context) {
	cat := d.buildCatalog(withBearer(c))
	c.JSON(http.StatusOK, gin.H{"resources": cat.Resources})
}

// withBearer attaches the caller's bearer credential to the request
// context. Authentication itself happened upstream; the token is only
// forwarded to the store.
func withBearer(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		ctx = specstore.WithToken(ctx, token)
	}
	return ctx
}
