package logger

import (
	"bytes"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sizeLimit = 240 * 1024 // CloudWatch log size limit
	// request log type
	requestType = "request"
	truncated   = "TRUNCATED..."
)

// headers never written to the request log
var maskedHeaders = []string{"Authorization", "Cookie", "X-Api-Key"}

// requestRecord is one line of the request log
type requestRecord struct {
	RequestID       string
	Timestamp       int64
	Duration        int64
	HTTPStatusCode  int
	ErrorStackTrace string
	HTTPMethod      string
	RequestPath     string
	RequestQuery    string
	RequestBody     string
	ResponseBody    string
	Headers         map[string][]string
}

func (r *requestRecord) size() int {
	return len(r.RequestBody) + len(r.ResponseBody) + len(r.ErrorStackTrace) + len(r.RequestQuery)
}

func (r *requestRecord) fields() []zap.Field {
	return []zap.Field{
		zap.String("type", requestType),
		zap.String("request_id", r.RequestID),
		zap.Int64("timestamp", r.Timestamp),
		zap.Int64("duration_ms", r.Duration),
		zap.Int("status", r.HTTPStatusCode),
		zap.String("method", r.HTTPMethod),
		zap.String("path", r.RequestPath),
		zap.String("query", r.RequestQuery),
		zap.String("request_body", r.RequestBody),
		zap.String("response_body", r.ResponseBody),
		zap.Any("headers", r.Headers),
		zap.String("stack", r.ErrorStackTrace),
	}
}

// GinLogMiddleware writes one request log entry per request, even when the handler panics
func GinLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var record *requestRecord
		// overwrite the gin.Context.Writer to log response body
		respWriter := &respLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = respWriter

		defer func() {
			truncate(record)
			GetLogger().Info(requestType, record.fields()...)
		}()

		defer func() {
			if r := recover(); r != nil {
				record.HTTPStatusCode = http.StatusInternalServerError
				record.ErrorStackTrace = string(debug.Stack())
				// throw the panic to the later middlewares
				panic(r)
			}
		}()

		record = newRequestRecord(c)

		if lc, ok := lambdacontext.FromContext(c.Request.Context()); ok {
			record.RequestID = lc.AwsRequestID
		}

		c.Next()

		record.HTTPStatusCode = c.Writer.Status()
		record.Duration = time.Now().UnixNano()/1e6 - record.Timestamp
		record.ResponseBody = respWriter.body.String()
	}
}

// truncate drops bodies, largest concern first, until the record fits the log size limit
func truncate(record *requestRecord) {
	if record.size() < sizeLimit {
		return
	}
	record.ResponseBody = truncated
	if record.size() < sizeLimit {
		return
	}
	record.RequestBody = truncated
	if record.size() < sizeLimit {
		return
	}
	record.ErrorStackTrace = truncated
}

type respLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w respLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w respLogWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func newRequestRecord(c *gin.Context) *requestRecord {
	var requestBody []byte
	if c.Request.Body != nil {
		var err error
		requestBody, err = io.ReadAll(c.Request.Body)
		if err != nil {
			GetLogger().Warn("failed to read request body for logging", zap.Error(err))
		}
		// reattach request body for later use
		c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
	}

	return &requestRecord{
		Timestamp:    time.Now().UnixNano() / 1e6,
		HTTPMethod:   c.Request.Method,
		RequestPath:  c.Request.URL.Path,
		RequestQuery: c.Request.URL.Query().Encode(),
		RequestBody:  string(requestBody),
		Headers:      maskHeaders(c.Request.Header),
	}
}

func maskHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	for _, name := range maskedHeaders {
		for k := range out {
			if strings.EqualFold(k, name) {
				out[k] = []string{"***"}
			}
		}
	}
	return out
}
