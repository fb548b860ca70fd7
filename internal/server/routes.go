package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/receiptkit/internal/observability"
	"github.com/danmuck/receiptkit/internal/receipt"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var errBadRequest = errors.New("bad request")

// decodeRequest is the App Store verifyReceipt request shape.
type decodeRequest struct {
	ReceiptData string `json:"receipt-data"`
}

type decodeResponse struct {
	Status     string                  `json:"status"`
	Receipt    *receipt.Receipt        `json:"receipt"`
	Attributes []receipt.AttributeView `json:"attributes,omitempty"`
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
			"version": Version,
		})
	})

	if s.metrics {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	s.router.POST("/v1/receipts/decode", s.handleDecode)
}

func (s *Server) handleDecode(c *gin.Context) {
	data, err := s.readReceipt(c)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, receipt.ErrReceiptTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.fail(c, status, err)
		return
	}

	r, err := s.parser.Parse(data)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	resp := decodeResponse{Status: "ok", Receipt: r}
	if wantAttributes(c.Query("attributes")) {
		resp.Attributes = receipt.Describe(r.Attributes)
	}
	c.JSON(http.StatusOK, resp)
}

// readReceipt returns the DER bytes of the request: the raw body, or the
// base64 receipt-data field of a JSON body.
func (s *Server) readReceipt(c *gin.Context) ([]byte, error) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, receipt.ErrReceiptTooLarge
		}
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if c.ContentType() != gin.MIMEJSON {
		return data, nil
	}

	var req decodeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(req.ReceiptData))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return raw, nil
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	kind := receipt.ErrorKind(err)
	if errors.Is(err, errBadRequest) {
		kind = "bad_request"
	}
	c.Set(observability.ContextErrorKind, kind)
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

func wantAttributes(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
