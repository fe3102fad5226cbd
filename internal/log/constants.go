package log

const (
	KeyAppName       = "app"
	KeyRequestID     = "requestId"
	KeyProcess       = "process"
	KeyTag           = "tag"
	KeyEmail         = "email"
	KeyConfig        = "config"
	KeyRequestBody   = "requestBody"
	KeyRequestHeader = "requestHeader"
	KeyRequestHost   = "host"
	KeyRequestIp     = "requesterIP"
	KeyRequestMethod = "requestMethod"
	KeyRequestURI    = "requestURI"
	KeyRequestURL    = "requestURL"

	KeyCart        = "cart"
	KeyCartID      = "cartId"
	KeyCartItems   = "cartItems"
	KeyCartVersion = "cartVersion"
	KeyCacheKey    = "cacheKey"
	KeyDbURL       = "dbUrl"
	KeyProductID   = "productId"
	KeyQuantity    = "quantity"
	KeySessionKey  = "sessionKey"
	KeyUserID      = "userId"
	KeyAttempt     = "attempt"
)
