package constants

const (
	AppCartService = "cart-service"
	AppCartSweeper = "cart-sweeper"
	AudienceUser   = "audience-user"

	SessionCookieName = "cart_session"
)
