package observability

import (
	"testing"
	"time"

	"github.com/danmuck/receiptkit/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("receiptd", "POST", "/v1/receipts/decode", 200, 12*time.Millisecond)
	RecordReceipt(true, 40*time.Microsecond)
	RecordReceipt(false, 10*time.Microsecond)
}

func TestRecordAttributeAndErrorCounters(t *testing.T) {
	testlog.Start(t)
	before := testutil.ToFloat64(attributesDecoded.WithLabelValues("bundle_id"))
	RecordAttribute("bundle_id")
	RecordAttribute("bundle_id")
	assert.Equal(t, before+2, testutil.ToFloat64(attributesDecoded.WithLabelValues("bundle_id")))

	before = testutil.ToFloat64(decodeErrors.WithLabelValues("unknown"))
	RecordDecodeError("")
	assert.Equal(t, before+1, testutil.ToFloat64(decodeErrors.WithLabelValues("unknown")))

	before = testutil.ToFloat64(decodeErrors.WithLabelValues("missing_octet"))
	RecordDecodeError("missing_octet")
	assert.Equal(t, before+1, testutil.ToFloat64(decodeErrors.WithLabelValues("missing_octet")))
}
