package utils

// HTTP Header Constants
const (
	// Standard HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderContentLength = "Content-Length"
	HeaderUserAgent     = "User-Agent"
	HeaderCacheControl  = "Cache-Control"
	HeaderConnection    = "Connection"
	HeaderOrigin        = "Origin"
	HeaderHost          = "Host"

	// Request/Response Tracking Headers
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"

	// Client IP / Proxy Headers
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderXForwardedProto = "X-Forwarded-Proto"
	HeaderXRealIP         = "X-Real-IP"

	// Security Headers
	HeaderXContentTypeOptions = "X-Content-Type-Options"
	HeaderXFrameOptions       = "X-Frame-Options"

	// Streaming Headers
	HeaderXAccelBuffering = "X-Accel-Buffering"

	// CORS Headers
	HeaderAccessControlAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders = "Access-Control-Allow-Headers"

	// Authorization Headers
	HeaderAuthorization = "Authorization"
)

// Content Type Constants
const (
	ContentTypeJSON            = "application/json"
	ContentTypeJSONUTF8        = "application/json; charset=utf-8"
	ContentTypeEventStream     = "text/event-stream"
	ContentTypeEventStreamUTF8 = "text/event-stream; charset=utf-8"
)

// Cache Control Values
const (
	CacheControlNoCache = "no-cache"
)

// Security Header Values
const (
	XContentTypeOptionsNoSniff = "nosniff"
	XFrameOptionsDeny          = "DENY"
)

// Service Values
const (
	ServiceName = "AI-Generation-Gateway/1.0"
)

// CORS Values
const (
	CORSAllowOriginAll  = "*"
	CORSAllowMethodsStd = "POST, GET, OPTIONS"
	CORSAllowHeadersStd = "Accept, Content-Type, Content-Length, X-CSRF-Token, Authorization"
)

// Buffering Values
const (
	XAccelBufferingNo = "no"
)

// Connection Values
const (
	ConnectionKeepAlive = "keep-alive"
)
