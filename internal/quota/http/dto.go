package http

import (
	"time"

	"github.com/nekogravitycat/appointment-booking-backend/internal/quota"
)

type UsageResponse struct {
	Tier        string    `json:"tier"`
	Window      string    `json:"window"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Used        int       `json:"used"`
	Limit       *int      `json:"limit"`     // null when unlimited
	Remaining   *int      `json:"remaining"` // null when unlimited
}

func NewUsageResponse(u *quota.Usage) UsageResponse {
	resp := UsageResponse{
		Tier:        string(u.Tier),
		Window:      string(u.Window.Kind),
		WindowStart: u.Window.Start,
		WindowEnd:   u.Window.End,
		Used:        u.Used,
	}
	if u.Limit > 0 {
		limit, remaining := u.Limit, u.Remaining()
		resp.Limit = &limit
		resp.Remaining = &remaining
	}
	return resp
}
