package internaltypes

import "errors"

var (
	ErrConfig         = errors.New("invalid configuration")
	ErrAuth           = errors.New("authentication failed")
	ErrTransport      = errors.New("transport error")
	ErrNotFound       = errors.New("not found")
	ErrUserIDNotFound = errors.New("userID not found in dashboard")
	ErrFeedParse      = errors.New("activity feed parse error")
)
