package dto

import "time"

type RateLimitInfo struct {
	Allowed   bool      `json:"allowed" example:"true"`
	Limit     int       `json:"limit" example:"100"`
	Remaining int       `json:"remaining" example:"99"`
	ResetAt   time.Time `json:"reset_at"`
}

type RateLimitExceededResponse struct {
	Error      string `json:"error" example:"Too Many Requests"`
	RetryAfter int    `json:"retryAfter" example:"42"`
}
