package node

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Node is a long-running process with an HTTP surface.
type Node interface {
	NodeID() string
	Kind() string
	HTTPRouter() *gin.Engine
	Serve(ctx context.Context) error
}
